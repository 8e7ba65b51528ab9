package datastore

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Emirates in the spelling used by the CSV exports.
var Emirates = []string{
	"Abu Dhabi", "Dubai", "Sharjah", "Ajman", "Umm Al Quwain", "Ras Al Khaimah", "Fujairah",
}

const (
	syntheticInvoices  = 100
	syntheticItems     = 300
	syntheticTaxpayers = 50
	syntheticAuditLogs = 200
)

var (
	sectors       = []string{"Retail", "Construction", "Hospitality", "Logistics", "Healthcare", "Technology", "Manufacturing"}
	entityTypes   = []string{"LLC", "Sole Establishment", "Free Zone Company", "Branch"}
	businessSizes = []string{"Small", "Medium", "Large"}
	invoiceTypes  = []string{"Standard", "Simplified", "Credit Note", "Debit Note"}
	salesTypes    = []string{"B2B", "B2C", "B2G", "Export"}
	vatCategories = []string{"Standard Rated", "Zero Rated", "Exempt", "Reverse Charge"}
	statuses      = []string{"Issued", "Paid", "Cancelled", "Overdue"}
	anomalyTypes  = []string{"Duplicate Invoice", "Unusual Amount", "VAT Mismatch", "Suspicious Timing"}
	itemNames     = []string{"Laptop", "Office Chair", "Consulting Service", "Cement", "Catering", "Software License", "Printer Paper", "Delivery Service", "Medical Supplies", "Steel Beams"}
	hsCodes       = []string{"8471.30", "9401.30", "9983.11", "2523.29", "9963.31", "9973.31", "4802.56", "9965.11", "3005.90", "7216.33"}
	actions       = []string{"CREATE", "UPDATE", "CANCEL", "APPROVE", "SUBMIT"}
	fields        = []string{"invoice_amount", "invoice_tax_amount", "buyer_trn", "invoice_datetime", "document_status"}
)

// Synthetic generates a small deterministic dataset, keyed by table id. The
// same seed always yields the same rows.
func Synthetic(seed uint64) map[string]Records {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pick := func(xs []string) string { return xs[r.IntN(len(xs))] }
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	span := int(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC).Sub(start) / time.Minute)
	money := func(min, max float64) string {
		return strconv.FormatFloat(min+r.Float64()*(max-min), 'f', 2, 64)
	}

	taxpayers := Records{Header: columnNames("taxpayers")}
	trns := make([]string, syntheticTaxpayers)
	names := make([]string, syntheticTaxpayers)
	emirates := make([]string, syntheticTaxpayers)
	for i := range syntheticTaxpayers {
		trns[i] = fmt.Sprintf("100%012d", r.Int64N(1_000_000_000_000))
		names[i] = fmt.Sprintf("%s Trading %03d", pick(sectors), i+1)
		emirates[i] = pick(Emirates)
		risk := "0"
		if r.Float64() < 0.2 {
			risk = "1"
		}
		reg := start.AddDate(-r.IntN(8), -r.IntN(12), 0)
		taxpayers.Rows = append(taxpayers.Rows, []string{
			trns[i], names[i], pick(sectors), emirates[i], pick(entityTypes), pick(businessSizes),
			reg.Format("2006-01-02"), strconv.Itoa(5 + r.IntN(500)), money(40, 100), risk,
		})
	}

	invoices := Records{Header: columnNames("invoices")}
	ids := make([]string, syntheticInvoices)
	for i := range syntheticInvoices {
		ids[i] = fmt.Sprintf("INV-%05d", i+1)
		seller, buyer := r.IntN(syntheticTaxpayers), r.IntN(syntheticTaxpayers)
		net := 500 + r.Float64()*49500
		discount := net * r.Float64() * 0.05
		tax := (net - discount) * 0.05
		anomaly, anomalyType := "0", ""
		if r.Float64() < 0.12 {
			anomaly, anomalyType = "1", pick(anomalyTypes)
		}
		at := start.Add(time.Duration(r.IntN(span)) * time.Minute)
		invoices.Rows = append(invoices.Rows, []string{
			ids[i], fmt.Sprintf("%d-%04d", at.Year(), i+1), at.Format("2006-01-02 15:04:05"),
			pick(invoiceTypes), pick(salesTypes), pick(vatCategories), pick(statuses),
			trns[seller], names[seller], emirates[seller], trns[buyer], names[buyer], emirates[buyer],
			f2(net), f2(tax), f2(discount), f2(net - discount + tax), anomaly, anomalyType,
		})
	}

	items := Records{Header: columnNames("items")}
	for i := range syntheticItems {
		k := r.IntN(len(itemNames))
		qty := float64(1 + r.IntN(50))
		price := 10 + r.Float64()*990
		discount := qty * price * r.Float64() * 0.1
		vat := (qty*price - discount) * 0.05
		items.Rows = append(items.Rows, []string{
			fmt.Sprintf("ITM-%05d", i+1), ids[r.IntN(len(ids))], itemNames[k], itemNames[k] + " supply", hsCodes[k],
			f2(qty), f2(price), f2(discount), "0.05", f2(vat), f2(qty*price - discount + vat),
		})
	}

	logs := Records{Header: columnNames("audit_logs")}
	for i := range syntheticAuditLogs {
		at := start.Add(time.Duration(r.IntN(span)) * time.Minute)
		field := pick(fields)
		logs.Rows = append(logs.Rows, []string{
			fmt.Sprintf("LOG-%05d", i+1), ids[r.IntN(len(ids))], fmt.Sprintf("user%02d", 1+r.IntN(12)),
			at.Format("2006-01-02 15:04:05"), pick(actions), field, money(0, 10000), money(0, 10000),
		})
	}

	return map[string]Records{
		"invoices":   invoices,
		"items":      items,
		"taxpayers":  taxpayers,
		"audit_logs": logs,
	}
}

func f2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
