package viz

import (
	"context"
	"errors"
	"testing"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/datastore"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelector(t *testing.T) *Selector {
	t.Helper()
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	ds, err := datastore.Open(context.Background(), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	require.NoError(t, ds.Load(context.Background(), tx, t.TempDir(), 1))

	return NewSelector(tx, ds, logger.NewNopLogger())
}

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		query string
		want  store.ChartFamily
	}{
		{"What is the total revenue by month for 2023?", store.ChartTimeSeries},
		{"Show me the monthly revenue trend over the past year", store.ChartTimeSeries},
		{"Which emirate has the highest fraud rate?", store.ChartBar},
		{"Compare tax compliance rates across different sectors", store.ChartBar},
		{"Show me the distribution of invoices by emirate", store.ChartPie},
		{"Where are most taxpayers located?", store.ChartBar},
		{"Show taxpayers on a map", store.ChartGeo},
		{"أظهر لي اتجاه الإيرادات الشهرية", store.ChartTimeSeries},
		{"أظهر لي توزيع الفواتير حسب الإمارة", store.ChartPie},
		{"ما هي أنواع الشذوذ الأكثر شيوعًا في الفواتير؟", store.ChartBar},
		{"What is the total VAT collected?", store.ChartNone},
		{"", store.ChartNone},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyOf(lang.Prepare(tt.query)))
		})
	}
}

func TestSelectTimeSeries(t *testing.T) {
	s := newSelector(t)
	c := store.Candidate{TableID: "invoices", DomainID: "revenue_analysis"}

	spec := s.Select(context.Background(), "What is the total revenue by month for 2023?", c, lang.English)
	require.NotNil(t, spec)
	assert.Equal(t, store.ChartTimeSeries, spec.ChartFamily)
	assert.Equal(t, "Invoice Amount per Month", spec.Title)
	assert.Equal(t, lang.English, spec.Language)
	require.NotEmpty(t, spec.Series)
	for i, p := range spec.Series {
		require.NotNil(t, p.Timestamp)
		assert.Empty(t, p.RegionCode)
		if i > 0 {
			assert.True(t, p.Timestamp.After(*spec.Series[i-1].Timestamp))
		}
	}
}

func TestSelectFraudByEmirate(t *testing.T) {
	s := newSelector(t)
	c := store.Candidate{TableID: "taxpayers", DomainID: "fraud_detection"}

	spec := s.Select(context.Background(), "Which emirate has the highest fraud rate?", c, lang.English)
	require.NotNil(t, spec)
	assert.Equal(t, store.ChartBar, spec.ChartFamily)
	assert.Equal(t, "Risk Rate by Emirate", spec.Title)
	require.NotEmpty(t, spec.Series)
	assert.LessOrEqual(t, len(spec.Series), len(datastore.Emirates))
	for i, p := range spec.Series {
		assert.Nil(t, p.Timestamp)
		assert.Empty(t, p.RegionCode)
		_, known := RegionCode(p.Label)
		assert.True(t, known, p.Label)
		if i > 0 {
			assert.GreaterOrEqual(t, spec.Series[i-1].Value, p.Value)
		}
	}
}

func TestSelectPieAndGeoInArabic(t *testing.T) {
	s := newSelector(t)

	pie := s.Select(context.Background(), "أظهر لي توزيع الفواتير حسب الإمارة", store.Candidate{TableID: "invoices", DomainID: "geographic_distribution"}, lang.Arabic)
	require.NotNil(t, pie)
	assert.Equal(t, store.ChartPie, pie.ChartFamily)
	assert.Equal(t, "توزيع الفواتير حسب إمارة المشتري", pie.Title)
	total := 0.0
	for _, p := range pie.Series {
		assert.True(t, lang.HasArabicScript(p.Label), p.Label)
		total += p.Value
	}
	assert.Equal(t, 100.0, total)

	geo := s.Select(context.Background(), "Show taxpayers on a map", store.Candidate{TableID: "taxpayers", DomainID: "geographic_distribution"}, lang.Arabic)
	require.NotNil(t, geo)
	assert.Equal(t, store.ChartGeo, geo.ChartFamily)
	for _, p := range geo.Series {
		assert.Regexp(t, `^AE-(AZ|DU|SH|AJ|UQ|RK|FU)$`, p.RegionCode)
		assert.Nil(t, p.Timestamp)
	}
}

func TestSelectReturnsNilWithoutData(t *testing.T) {
	s := newSelector(t)
	ctx := context.Background()

	// no chart wording
	assert.Nil(t, s.Select(ctx, "What is the total VAT collected?", store.Candidate{TableID: "invoices", DomainID: "tax_compliance"}, lang.English))
	// items has no time column
	assert.Nil(t, s.Select(ctx, "monthly item trend", store.Candidate{TableID: "items", DomainID: "tax_compliance"}, lang.English))
	// items has no region column
	assert.Nil(t, s.Select(ctx, "items on a map", store.Candidate{TableID: "items", DomainID: "tax_compliance"}, lang.English))
	assert.Nil(t, s.Select(ctx, "monthly trend", store.Candidate{TableID: "ledgers"}, lang.English))
}

type failingSource struct{}

func (failingSource) Monthly(context.Context, string, string, taxonomy.Measure) ([]datastore.Point, error) {
	return nil, errors.New("boom")
}

func (failingSource) GroupBy(context.Context, string, string, taxonomy.Measure, int) ([]datastore.Point, error) {
	return nil, nil
}

func TestSelectDegradesOnSourceErrors(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	s := NewSelector(tx, failingSource{}, logger.NewNopLogger())

	c := store.Candidate{TableID: "invoices", DomainID: "revenue_analysis"}
	assert.Nil(t, s.Select(context.Background(), "revenue by month", c, lang.English))
	assert.Nil(t, s.Select(context.Background(), "highest revenue", c, lang.English), "an empty result is not a chart")
}

func TestRegionHelpers(t *testing.T) {
	code, ok := RegionCode(" Ras  Al Khaimah ")
	assert.True(t, ok)
	assert.Equal(t, "AE-RK", code)
	_, ok = RegionCode("Muscat")
	assert.False(t, ok)

	assert.Equal(t, "دبي", EmirateName("Dubai", lang.Arabic))
	assert.Equal(t, "Dubai", EmirateName("Dubai", lang.English))
	assert.Equal(t, "Invoice Datetime", ColumnLabel("invoice_datetime", lang.English))
}
