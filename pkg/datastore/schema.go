package datastore

import (
	"fmt"
	"strings"
)

// Kind is the SQLite storage class of a column.
type Kind string

const (
	KindText Kind = "TEXT"
	KindReal Kind = "REAL"
	KindInt  Kind = "INTEGER"
)

type Column struct {
	Name string
	Kind Kind
}

// Schema lists the columns of every table, keyed by taxonomy table id.
// CSV columns not listed here are ignored on load.
var Schema = map[string][]Column{
	"invoices": {
		{"invoice_id", KindText},
		{"invoice_number", KindText},
		{"invoice_datetime", KindText},
		{"invoice_type", KindText},
		{"invoice_sales_type", KindText},
		{"vat_category", KindText},
		{"document_status", KindText},
		{"seller_trn", KindText},
		{"seller_name", KindText},
		{"seller_emirate", KindText},
		{"buyer_trn", KindText},
		{"buyer_name", KindText},
		{"buyer_emirate", KindText},
		{"invoice_without_tax", KindReal},
		{"invoice_tax_amount", KindReal},
		{"invoice_discount_amount", KindReal},
		{"invoice_amount", KindReal},
		{"is_anomaly", KindInt},
		{"anomaly_type", KindText},
	},
	"items": {
		{"item_id", KindText},
		{"invoice_id", KindText},
		{"item_name", KindText},
		{"item_description", KindText},
		{"hs_code", KindText},
		{"quantity", KindReal},
		{"unit_price", KindReal},
		{"line_discount", KindReal},
		{"vat_rate", KindReal},
		{"line_vat_amount", KindReal},
		{"line_total", KindReal},
	},
	"taxpayers": {
		{"trn", KindText},
		{"name", KindText},
		{"sector", KindText},
		{"emirate", KindText},
		{"legal_entity_type", KindText},
		{"business_size", KindText},
		{"registration_date", KindText},
		{"number_of_employees", KindInt},
		{"tax_compliance_score", KindReal},
		{"is_high_risk", KindInt},
	},
	"audit_logs": {
		{"log_id", KindText},
		{"invoice_id", KindText},
		{"user_id", KindText},
		{"timestamp", KindText},
		{"action_type", KindText},
		{"field_changed", KindText},
		{"old_value", KindText},
		{"new_value", KindText},
	},
}

func columnNames(table string) []string {
	cols := Schema[table]
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func createStatement(table string) string {
	defs := make([]string, 0, len(Schema[table]))
	for _, c := range Schema[table] {
		defs = append(defs, fmt.Sprintf("%q %s", c.Name, c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))
}

func insertStatement(table string) string {
	names := columnNames(table)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", table, strings.Join(quoted, ", "), marks)
}
