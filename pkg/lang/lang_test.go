package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, English, Detect("Show me all invoices"))
	assert.Equal(t, Arabic, Detect("أظهر لي جميع الفواتير"))
	assert.Equal(t, Arabic, Detect("VAT في دبي"))
	assert.Equal(t, English, Detect(""))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{in: "en", want: English},
		{in: "en-US", want: English},
		{in: "ar", want: Arabic},
		{in: "ar-AE", want: Arabic},
		{in: "fr", wantErr: true},
		{in: "not a tag", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "what s the total vat", Normalize("  What's the TOTAL   VAT?? "))
	assert.Equal(t, "الاول", Normalize("الأوّل"))
	assert.Equal(t, "رقم 2", Normalize("رقم ٢"))
	assert.Equal(t, "", Normalize(" ?! "))
}

func TestTextHas(t *testing.T) {
	tests := []struct {
		name  string
		query string
		term  string
		want  bool
	}{
		{name: "exact word", query: "Show invoice totals", term: "invoice", want: true},
		{name: "plural s", query: "Show invoices", term: "invoice", want: true},
		{name: "plural es", query: "sales taxes", term: "tax", want: true},
		{name: "no prefix bleed", query: "list taxpayers", term: "tax", want: false},
		{name: "multi word", query: "revenue over time please", term: "over time", want: true},
		{name: "multi word split", query: "over the time", term: "over time", want: false},
		{name: "arabic clitic", query: "ما هو توزيع الفواتير", term: Normalize("فواتير"), want: true},
		{name: "arabic hamza folded", query: "إيرادات دبي", term: Normalize("ايرادات"), want: true},
		{name: "arabic no infix match", query: "ما هو الإجمالي", term: Normalize("مالي"), want: false},
		{name: "arabic multi word", query: "نسبة ضريبة القيمة المضافة", term: Normalize("ضريبة القيمة المضافة"), want: true},
		{name: "arabic suffix", query: "عدد السجلات", term: Normalize("سجل"), want: true},
		{name: "empty term", query: "anything", term: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prepare(tt.query).Has(tt.term))
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Total VAT is 12,305 AED.", English))
	assert.False(t, Matches("إجمالي الضريبة هو 12,305 درهم", English))
	assert.True(t, Matches("إجمالي ضريبة VAT هو 12,305 درهم إماراتي", Arabic))
	assert.False(t, Matches("The total VAT collected is 12,305 AED.", Arabic))
	assert.True(t, Matches("12,305", Arabic))
}
