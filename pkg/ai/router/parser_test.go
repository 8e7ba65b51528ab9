package router

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		prompt        string
		wantTable     string
		wantDomain    string
		wantClean     string
		wantDirective bool
	}{
		{
			name:      "no directive",
			prompt:    "What is the total VAT collected in Dubai?",
			wantClean: "What is the total VAT collected in Dubai?",
		},
		{
			name:          "table directive",
			prompt:        "/table:Items top products by sales",
			wantTable:     "items",
			wantClean:     "top products by sales",
			wantDirective: true,
		},
		{
			name:          "domain directive",
			prompt:        "/domain:fraud_detection anything unusual?",
			wantDomain:    "fraud_detection",
			wantClean:     "anything unusual?",
			wantDirective: true,
		},
		{
			name:          "both directives in any order",
			prompt:        "  /domain:revenue_analysis /table:invoices monthly totals",
			wantTable:     "invoices",
			wantDomain:    "revenue_analysis",
			wantClean:     "monthly totals",
			wantDirective: true,
		},
		{
			name:          "directive without prompt",
			prompt:        "/table:taxpayers",
			wantTable:     "taxpayers",
			wantClean:     "",
			wantDirective: true,
		},
		{
			name:          "repeated directive is left in the prompt",
			prompt:        "/table:items /table:invoices totals",
			wantTable:     "items",
			wantClean:     "/table:invoices totals",
			wantDirective: true,
		},
		{
			name:      "directive must lead",
			prompt:    "show /table:items",
			wantClean: "show /table:items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.prompt)

			if got.TableID != tt.wantTable {
				t.Errorf("TableID = %q, want %q", got.TableID, tt.wantTable)
			}
			if got.DomainID != tt.wantDomain {
				t.Errorf("DomainID = %q, want %q", got.DomainID, tt.wantDomain)
			}
			if got.CleanPrompt != tt.wantClean {
				t.Errorf("CleanPrompt = %q, want %q", got.CleanPrompt, tt.wantClean)
			}
			if got.HasDirective() != tt.wantDirective {
				t.Errorf("HasDirective = %v, want %v", got.HasDirective(), tt.wantDirective)
			}
			if got.OriginalPrompt != tt.prompt {
				t.Errorf("OriginalPrompt = %q, want %q", got.OriginalPrompt, tt.prompt)
			}
		})
	}
}

func TestParsedPromptIsEmpty(t *testing.T) {
	if !Parse("/table:items   ").IsEmpty() {
		t.Error("directive-only prompt should be empty")
	}
	if Parse("/table:items totals").IsEmpty() {
		t.Error("prompt with text should not be empty")
	}
}
