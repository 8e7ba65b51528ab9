package datastore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const invoicesCSV = "\ufeffinvoice_id,invoice_datetime,buyer_emirate,invoice_without_tax,is_anomaly,anomaly_type,extra\n" +
	"INV-1,2024-01-05 10:00:00,Dubai,100.5,False,,x\n" +
	"INV-2,2024-01-20T11:00:00,Sharjah,200,True,Duplicate Invoice,x\n" +
	"INV-3,2024-03-02 09:30:00,Dubai,50,0,,x\n" +
	"INV-4,,Dubai,n/a,1,Unusual Amount,x\n"

func TestLoadCSV(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	n, err := s.LoadCSV(ctx, "invoices", strings.NewReader(invoicesCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, s.Count("invoices"))

	rows, err := s.Sample(ctx, "invoices", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "INV-1", rows[0]["invoice_id"])
	assert.Equal(t, 100.5, rows[0]["invoice_without_tax"])
	assert.Equal(t, int64(0), rows[0]["is_anomaly"])
	assert.Nil(t, rows[0]["anomaly_type"])
	assert.NotContains(t, rows[0], "extra")

	_, err = s.LoadCSV(ctx, "ledger", strings.NewReader(invoicesCSV))
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestAggregates(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.LoadCSV(ctx, "invoices", strings.NewReader(invoicesCSV))
	require.NoError(t, err)

	sum := taxonomy.Measure{Column: "invoice_without_tax", Agg: "sum"}
	monthly, err := s.Monthly(ctx, "invoices", "invoice_datetime", sum)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Label)
	assert.InDelta(t, 300.5, monthly[0].Value, 1e-9)
	require.NotNil(t, monthly[0].Month)
	assert.Equal(t, 3, int(monthly[1].Month.Month()))

	byRegion, err := s.GroupBy(ctx, "invoices", "buyer_emirate", taxonomy.Measure{Agg: "count"}, 0)
	require.NoError(t, err)
	require.Len(t, byRegion, 2)
	assert.Equal(t, Point{Label: "Dubai", Value: 3}, byRegion[0])

	anomalies, err := s.GroupBy(ctx, "invoices", "anomaly_type", taxonomy.Measure{Column: "is_anomaly", Agg: "sum"}, 1)
	require.NoError(t, err)
	assert.Len(t, anomalies, 1)
}

func TestAggregateRejectsUnknownIdentifiers(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.GroupBy(ctx, "invoices", "emirate; DROP TABLE invoices", taxonomy.Measure{Agg: "count"}, 0)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = s.Monthly(ctx, "invoices", "invoice_datetime", taxonomy.Measure{Column: "nope", Agg: "sum"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = s.GroupBy(ctx, "invoices", "buyer_emirate", taxonomy.Measure{Column: "invoice_amount", Agg: "median"}, 0)
	assert.ErrorIs(t, err, ErrUnknownAgg)

	_, err = s.Sample(ctx, "ledger", 5)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestLoadFallsBackToSynthetic(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoices.csv"), []byte(invoicesCSV), 0o644))

	s := openStore(t)
	require.NoError(t, s.Load(context.Background(), tx, dir, 7))

	assert.Equal(t, 4, s.Count("invoices"))
	assert.Equal(t, syntheticItems, s.Count("items"))
	assert.Equal(t, syntheticTaxpayers, s.Count("taxpayers"))
	assert.Equal(t, syntheticAuditLogs, s.Count("audit_logs"))
}

func TestSyntheticIsDeterministic(t *testing.T) {
	a, b := Synthetic(42), Synthetic(42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a["invoices"].Rows, Synthetic(43)["invoices"].Rows)

	for table, rec := range a {
		assert.Equal(t, columnNames(table), rec.Header, table)
		for _, row := range rec.Rows {
			require.Len(t, row, len(rec.Header), table)
		}
	}
}

func TestWriteDirRoundTrip(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	dir := t.TempDir()

	written, err := WriteDir(dir, tx, Synthetic(1))
	require.NoError(t, err)
	assert.Len(t, written, 4)

	s := openStore(t)
	require.NoError(t, s.Load(context.Background(), tx, dir, 99))
	assert.Equal(t, syntheticInvoices, s.Count("invoices"))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Records{Header: []string{"a"}, Rows: [][]string{{"1"}}}))
	assert.Equal(t, "a\n1\n", buf.String())
}
