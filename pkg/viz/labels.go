package viz

import (
	"strings"

	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// families in priority order.
var families = []store.ChartFamily{store.ChartTimeSeries, store.ChartBar, store.ChartPie, store.ChartGeo}

var keywords = map[store.ChartFamily][]string{
	store.ChartTimeSeries: normalized(
		"trend", "over time", "monthly", "month", "yearly", "annual", "by year", "per year",
		"quarterly", "quarter", "history", "historical", "timeline", "time series", "daily", "weekly",
		"اتجاه", "مع مرور الوقت", "شهري", "شهر", "سنوي", "ربع سنوي", "تاريخي", "زمني", "يومي", "اسبوعي",
	),
	store.ChartBar: normalized(
		"compare", "comparison", "versus", "vs", "against", "difference", "highest", "lowest",
		"top", "most", "least", "largest", "smallest", "biggest", "rank", "ranking", "best", "worst",
		"قارن", "مقارنة", "مقابل", "الفرق", "أعلى", "أدنى", "أكثر", "أقل", "أكبر", "أصغر", "ترتيب",
	),
	store.ChartPie: normalized(
		"distribution", "breakdown", "percentage", "proportion", "share", "allocation", "split", "composition",
		"توزيع", "تقسيم", "نسبة مئوية", "نسبة", "حصة", "تخصيص",
	),
	store.ChartGeo: normalized(
		"map", "location", "emirate", "region", "geographic", "spatial", "area", "city", "where",
		"خريطة", "موقع", "إمارة", "منطقة", "جغرافي", "مكاني", "مدينة", "أين",
	),
}

func normalized(terms ...string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = lang.Normalize(t)
	}
	return out
}

// FamilyOf returns the chart family a question asks for. Temporal wording
// wins over comparison, comparison over distribution, distribution over
// location.
func FamilyOf(text lang.Text) store.ChartFamily {
	for _, f := range families {
		if _, ok := text.HasAny(keywords[f]); ok {
			return f
		}
	}
	return store.ChartNone
}

type text struct {
	en, ar string
}

func (t text) in(code lang.Code) string {
	if code == lang.Arabic {
		return t.ar
	}
	return t.en
}

var titles = struct {
	perMonth, by, distribution, byEmirate text
}{
	perMonth:     text{en: "%s per Month", ar: "%s شهريًا"},
	by:           text{en: "%s by %s", ar: "%s حسب %s"},
	distribution: text{en: "Distribution of %s by %s", ar: "توزيع %s حسب %s"},
	byEmirate:    text{en: "%s by Emirate", ar: "%s حسب الإمارة"},
}

var recordCount = taxonomy.Text{EN: "Record Count", AR: "عدد السجلات"}

var columnLabels = map[string]text{
	"invoice_type":       {en: "Invoice Type", ar: "نوع الفاتورة"},
	"invoice_sales_type": {en: "Sales Type", ar: "نوع المبيعات"},
	"vat_category":       {en: "VAT Category", ar: "فئة ضريبة القيمة المضافة"},
	"anomaly_type":       {en: "Anomaly Type", ar: "نوع الشذوذ"},
	"buyer_emirate":      {en: "Buyer Emirate", ar: "إمارة المشتري"},
	"seller_emirate":     {en: "Seller Emirate", ar: "إمارة البائع"},
	"emirate":            {en: "Emirate", ar: "الإمارة"},
	"item_name":          {en: "Item", ar: "العنصر"},
	"sector":             {en: "Sector", ar: "القطاع"},
	"action_type":        {en: "Action Type", ar: "نوع الإجراء"},
	"field_changed":      {en: "Changed Field", ar: "الحقل المعدل"},
}

// ColumnLabel is the display name of a category column. Unlisted columns
// fall back to their title-cased name.
func ColumnLabel(col string, code lang.Code) string {
	if t, ok := columnLabels[col]; ok {
		return t.in(code)
	}
	return cases.Title(language.English).String(strings.ReplaceAll(col, "_", " "))
}

type emirate struct {
	iso string
	ar  string
}

// ISO 3166-2:AE codes.
var emirates = map[string]emirate{
	"abu dhabi":      {"AE-AZ", "أبو ظبي"},
	"dubai":          {"AE-DU", "دبي"},
	"sharjah":        {"AE-SH", "الشارقة"},
	"ajman":          {"AE-AJ", "عجمان"},
	"umm al quwain":  {"AE-UQ", "أم القيوين"},
	"ras al khaimah": {"AE-RK", "رأس الخيمة"},
	"fujairah":       {"AE-FU", "الفجيرة"},
}

func lookupEmirate(name string) (emirate, bool) {
	e, ok := emirates[strings.ToLower(strings.Join(strings.Fields(name), " "))]
	return e, ok
}

// RegionCode maps an emirate name to its ISO 3166-2 code.
func RegionCode(name string) (string, bool) {
	e, ok := lookupEmirate(name)
	return e.iso, ok
}

// EmirateName localizes an emirate name. Unknown names are returned as is.
func EmirateName(name string, code lang.Code) string {
	if code != lang.Arabic {
		return name
	}
	if e, ok := lookupEmirate(name); ok {
		return e.ar
	}
	return name
}
