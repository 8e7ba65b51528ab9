package scope

import (
	"testing"

	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTaxonomy = `
version: 1
default_table: ledger
domains:
  - id: audit
    names: {en: Audit}
    keywords: {en: [audit]}
  - id: cash
    names: {en: Cash}
    keywords: {en: [cash]}
tables:
  - id: ledger
    names: {en: Ledger}
    default_domain: cash
    domains: [cash]
    keywords: {en: [ledger]}
  - id: journal
    names: {en: Journal}
    default_domain: audit
    domains: [audit, cash]
    keywords: {en: [journal]}
`

func TestEnforceRejectsEveryUnpermittedPair(t *testing.T) {
	def, err := taxonomy.Default()
	require.NoError(t, err)
	small, err := taxonomy.Parse([]byte(smallTaxonomy))
	require.NoError(t, err)

	for _, tx := range []*taxonomy.Taxonomy{def, small} {
		e := NewEnforcer(tx)
		domains := []string{"made_up"}
		for _, d := range tx.Domains() {
			domains = append(domains, d.ID)
		}
		for _, table := range tx.Tables() {
			for _, domain := range domains {
				c := store.Candidate{TableID: table.ID, DomainID: domain, Confidence: 1}
				v := e.Enforce(&c)
				if tx.Permits(table.ID, domain) {
					assert.Equal(t, Allowed{Candidate: c}, v, "%s/%s", table.ID, domain)
					continue
				}
				oos, ok := v.(OutOfScope)
				require.True(t, ok, "%s/%s should be out of scope", table.ID, domain)
				assert.Equal(t, ReasonDomainNotPermitted, oos.Reason)
				assert.Equal(t, tx.PermittedDomains(table.ID), oos.Supported)
				assert.Equal(t, c, *oos.Candidate)
			}
		}
	}
}

func TestEnforceNoMatch(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	oos, ok := NewEnforcer(tx).Enforce(nil).(OutOfScope)
	require.True(t, ok)
	assert.Equal(t, ReasonNoMatch, oos.Reason)
	assert.Nil(t, oos.Candidate)
	assert.Len(t, oos.Supported, 4)
}

func TestEnforceUnknownTable(t *testing.T) {
	tx, err := taxonomy.Default()
	require.NoError(t, err)

	c := store.Candidate{TableID: "ledgers", DomainID: "tax_compliance"}
	oos, ok := NewEnforcer(tx).Enforce(&c).(OutOfScope)
	require.True(t, ok)
	assert.Equal(t, ReasonUnknownTable, oos.Reason)
	assert.Equal(t, "ledgers", oos.Candidate.TableID)
}
