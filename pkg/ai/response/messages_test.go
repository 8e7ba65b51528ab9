package response

import (
	"strings"
	"testing"

	"einvoice-assistant-be/pkg/ai/scope"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClarification(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	candidates := []store.Candidate{
		{TableID: "invoices", DomainID: "tax_compliance"},
		{TableID: "items", DomainID: "tax_compliance"},
	}

	en := Clarification(tx, lang.English, candidates, 0)
	assert.Contains(t, en, "1. Invoices: Tax Compliance")
	assert.Contains(t, en, "2. Items: Tax Compliance")
	assert.True(t, strings.HasPrefix(en, "Your question"))

	retry := Clarification(tx, lang.English, candidates, 1)
	assert.True(t, strings.HasPrefix(retry, "Sorry"))

	ar := Clarification(tx, lang.Arabic, candidates, 0)
	assert.Contains(t, ar, "1. الفواتير: الامتثال الضريبي")
	assert.True(t, lang.Matches(ar, lang.Arabic))

	single := Clarification(tx, lang.English, candidates[:1], 0)
	assert.Contains(t, single, "did you mean this?")
}

func TestOutOfScope(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	e := scope.NewEnforcer(tx)

	noMatch := e.Enforce(nil).(scope.OutOfScope)
	msg := OutOfScope(tx, lang.English, noMatch)
	assert.Contains(t, msg, "I can only provide information related to e-invoicing")
	assert.Contains(t, msg, "Tax Compliance, Fraud Detection, Revenue Analysis, Geographic Distribution")

	c := store.Candidate{TableID: "audit_logs", DomainID: "revenue_analysis"}
	rejected := e.Enforce(&c).(scope.OutOfScope)
	msg = OutOfScope(tx, lang.English, rejected)
	assert.Equal(t, "The Audit Logs data does not cover Revenue Analysis. For Audit Logs I can help with: Fraud Detection, Tax Compliance.", msg)

	arMsg := OutOfScope(tx, lang.Arabic, rejected)
	assert.Contains(t, arMsg, "سجلات التدقيق")
	assert.Contains(t, arMsg, "كشف الاحتيال، الامتثال الضريبي")

	unknown := store.Candidate{TableID: "ledgers"}
	msg = OutOfScope(tx, lang.English, e.Enforce(&unknown).(scope.OutOfScope))
	assert.Contains(t, msg, `"ledgers"`)
	assert.Contains(t, msg, "Invoices, Items, Taxpayers, Audit Logs")
}

func TestFallback(t *testing.T) {
	reasons := []llm.FailureReason{llm.ReasonTimeout, llm.ReasonAuth, llm.ReasonQuota, llm.ReasonMalformed, llm.ReasonUnavailable}
	seen := map[string]bool{}
	for _, r := range reasons {
		en := Fallback(lang.English, r)
		assert.True(t, strings.HasPrefix(en, "Sorry"), r)
		assert.Equal(t, en, Fallback(lang.English, r), "fallback must be deterministic")
		assert.True(t, lang.Matches(Fallback(lang.Arabic, r), lang.Arabic), r)
		seen[en] = true
	}
	assert.Len(t, seen, len(reasons))
	assert.Equal(t, Fallback(lang.English, llm.ReasonUnavailable), Fallback(lang.English, "weird"))
}

func TestWelcomeAndExamples(t *testing.T) {
	assert.Contains(t, Welcome(lang.English), "e-invoice assistant")
	assert.True(t, lang.Matches(Welcome(lang.Arabic), lang.Arabic))

	ex := Examples(lang.Arabic)
	require.Len(t, ex, 5)
	ex[0] = "mutated"
	assert.NotEqual(t, "mutated", Examples(lang.Arabic)[0])
	assert.Equal(t, Examples(lang.English), Examples(""))
}
