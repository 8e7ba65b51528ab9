package router

import (
	"testing"

	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	offered := []store.Candidate{
		cand("invoices", "tax_compliance", 0.2),
		cand("items", "tax_compliance", 0.2),
		cand("taxpayers", "tax_compliance", 0.2),
	}

	tests := []struct {
		name     string
		reply    string
		wantIdx  int
		wantType SelectionType
		wantOK   bool
	}{
		{name: "first one", reply: "the first one", wantIdx: 0, wantType: SelectionOrdinal, wantOK: true},
		{name: "digit", reply: "2", wantIdx: 1, wantType: SelectionOrdinal, wantOK: true},
		{name: "hash number", reply: "#3", wantIdx: 2, wantType: SelectionOrdinal, wantOK: true},
		{name: "suffixed number", reply: "2nd please", wantIdx: 1, wantType: SelectionOrdinal, wantOK: true},
		{name: "arabic digit", reply: "٢", wantIdx: 1, wantType: SelectionOrdinal, wantOK: true},
		{name: "arabic ordinal", reply: "الخيار الثاني", wantIdx: 1, wantType: SelectionOrdinal, wantOK: true},
		{name: "arabic first", reply: "الأول", wantIdx: 0, wantType: SelectionOrdinal, wantOK: true},
		{name: "last", reply: "the last one", wantIdx: 2, wantType: SelectionOrdinal, wantOK: true},
		{name: "bare one", reply: "one", wantIdx: 0, wantType: SelectionOrdinal, wantOK: true},
		{name: "table name", reply: "items", wantIdx: 1, wantType: SelectionName, wantOK: true},
		{name: "keyword", reply: "the taxpayer one please", wantIdx: 2, wantType: SelectionName, wantOK: true},
		{name: "arabic table name", reply: "الفواتير", wantIdx: 0, wantType: SelectionName, wantOK: true},
		{name: "out of range", reply: "4"},
		{name: "two ordinals", reply: "first or second"},
		{name: "ordinal inside a question", reply: "the first quarter revenue"},
		{name: "shared domain name", reply: "tax compliance"},
		{name: "confirmation needs a single option", reply: "yes"},
		{name: "empty", reply: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, ok := ParseSelection(tt.reply, offered, tx)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantIdx, sel.Index)
			assert.Equal(t, tt.wantType, sel.Type)
			assert.Equal(t, offered[tt.wantIdx], sel.Candidate)
		})
	}
}

func TestParseSelectionConfirm(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	single := []store.Candidate{cand("invoices", "tax_compliance", 0.5)}
	for _, reply := range []string{"yes", "ok sure", "نعم"} {
		sel, ok := ParseSelection(reply, single, tx)
		require.True(t, ok, reply)
		assert.Equal(t, SelectionConfirm, sel.Type)
		assert.Equal(t, single[0], sel.Candidate)
	}

	_, ok := ParseSelection("yes", nil, tx)
	assert.False(t, ok)
}
