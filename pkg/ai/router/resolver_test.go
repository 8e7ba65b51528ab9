package router

import (
	"testing"
	"time"

	"einvoice-assistant-be/pkg/ai/classifier"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	cls := classifier.New(tx, classifier.DefaultConfig())
	return NewResolver(tx, cls, DefaultConfig()).WithClock(func() time.Time { return fixedNow })
}

func cand(table, domain string, conf float64) store.Candidate {
	return store.Candidate{TableID: table, DomainID: domain, Confidence: conf}
}

func TestResolve(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name       string
		candidates []store.Candidate
		wantKind   string
		wantTop    string
		wantCount  int
	}{
		{name: "empty", wantKind: "nomatch"},
		{
			name:       "single confident",
			candidates: []store.Candidate{cand("invoices", "revenue_analysis", 0.7)},
			wantKind:   "proceed",
			wantTop:    "invoices",
		},
		{
			name:       "clear margin",
			candidates: []store.Candidate{cand("taxpayers", "fraud_detection", 0.85), cand("taxpayers", "geographic_distribution", 0.65)},
			wantKind:   "proceed",
			wantTop:    "taxpayers",
		},
		{
			name:       "margin exactly met",
			candidates: []store.Candidate{cand("invoices", "tax_compliance", 0.7), cand("invoices", "geographic_distribution", 0.6)},
			wantKind:   "proceed",
			wantTop:    "invoices",
		},
		{
			name:       "tie",
			candidates: []store.Candidate{cand("invoices", "tax_compliance", 0.6), cand("items", "tax_compliance", 0.6)},
			wantKind:   "clarify",
			wantCount:  2,
		},
		{
			name:       "margin too small",
			candidates: []store.Candidate{cand("invoices", "revenue_analysis", 0.7), cand("taxpayers", "geographic_distribution", 0.65)},
			wantKind:   "clarify",
			wantCount:  2,
		},
		{
			name:       "at threshold is not above it",
			candidates: []store.Candidate{cand("invoices", "tax_compliance", 0.5)},
			wantKind:   "clarify",
			wantCount:  1,
		},
		{
			name: "clarify keeps top n distinct",
			candidates: []store.Candidate{
				cand("invoices", "tax_compliance", 0.2),
				cand("invoices", "tax_compliance", 0.2),
				cand("items", "tax_compliance", 0.2),
				cand("taxpayers", "tax_compliance", 0.2),
				cand("audit_logs", "fraud_detection", 0.2),
			},
			wantKind:  "clarify",
			wantCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch d := r.Resolve("q", tt.candidates).(type) {
			case NoMatch:
				assert.Equal(t, "nomatch", tt.wantKind)
			case Proceed:
				require.Equal(t, "proceed", tt.wantKind)
				assert.Equal(t, tt.candidates[0], d.Candidate)
				assert.Equal(t, tt.wantTop, d.Candidate.TableID)
				assert.Equal(t, ViaClassifier, d.Via)
			case Clarify:
				require.Equal(t, "clarify", tt.wantKind)
				assert.Len(t, d.Candidates, tt.wantCount)
				assert.Equal(t, tt.candidates[0], d.Candidates[0])
			default:
				t.Fatalf("unexpected decision %T", d)
			}
		})
	}
}

func TestRouteScenarios(t *testing.T) {
	r := newResolver(t)

	t.Run("revenue by month proceeds", func(t *testing.T) {
		d, ok := r.Route("What is the total revenue by month for 2023?", &store.ChatSession{}).(Proceed)
		require.True(t, ok)
		assert.Equal(t, store.Route{TableID: "invoices", DomainID: "revenue_analysis"}, d.Candidate.Route())
		assert.Greater(t, d.Candidate.Confidence, r.Config().Threshold)
	})

	t.Run("fraud by emirate proceeds", func(t *testing.T) {
		d, ok := r.Route("Which emirate has the highest fraud rate?", &store.ChatSession{}).(Proceed)
		require.True(t, ok)
		assert.Equal(t, "fraud_detection", d.Candidate.DomainID)
		assert.Contains(t, []string{"taxpayers", "audit_logs"}, d.Candidate.TableID)
	})

	t.Run("joke has no match", func(t *testing.T) {
		_, ok := r.Route("Tell me a joke", &store.ChatSession{}).(NoMatch)
		assert.True(t, ok)
	})
}

func TestRouteSubjectlessFollowUp(t *testing.T) {
	r := newResolver(t)
	session := &store.ChatSession{ActiveTable: "invoices", ActiveDomain: "revenue_analysis"}

	for _, q := range []string{"and for 2022?", "only Q3", "و لعام 2022؟", "same for last month"} {
		t.Run(q, func(t *testing.T) {
			d, ok := r.Route(q, session).(Proceed)
			require.True(t, ok, "got %T", r.Route(q, session))
			assert.Equal(t, store.Route{TableID: "invoices", DomainID: "revenue_analysis"}, d.Candidate.Route())
		})
	}
}

func TestClarificationLoop(t *testing.T) {
	r := newResolver(t)
	session := &store.ChatSession{}

	clarify, ok := r.Route("Show me the data", session).(Clarify)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(clarify.Candidates), 2)
	assert.Equal(t, "Show me the data", clarify.Query)

	pending := clarify.State(fixedNow)
	session.PendingClarification = pending

	t.Run("ordinal selection", func(t *testing.T) {
		d, ok := r.Route("the first one", session).(Proceed)
		require.True(t, ok)
		assert.Equal(t, clarify.Candidates[0], d.Candidate)
		assert.Equal(t, "Show me the data", d.Query)
		assert.Equal(t, ViaSelection, d.Via)
	})

	t.Run("name selection", func(t *testing.T) {
		d, ok := r.Route("taxpayers", session).(Proceed)
		require.True(t, ok)
		assert.Equal(t, "taxpayers", d.Candidate.TableID)
		assert.Equal(t, ViaSelection, d.Via)
	})

	t.Run("new confident question wins", func(t *testing.T) {
		d, ok := r.Route("What is the total revenue by month?", session).(Proceed)
		require.True(t, ok)
		assert.Equal(t, "revenue_analysis", d.Candidate.DomainID)
		assert.Equal(t, "What is the total revenue by month?", d.Query)
		assert.Equal(t, ViaClassifier, d.Via)
	})

	t.Run("unmatched reply asks again then falls back", func(t *testing.T) {
		again, ok := r.Route("hmm not sure", session).(Clarify)
		require.True(t, ok)
		assert.Equal(t, 1, again.Attempts)
		assert.Equal(t, clarify.Candidates, again.Candidates)

		next := &store.ChatSession{PendingClarification: again.State(fixedNow)}
		d, ok := r.Route("hmm not sure", next).(Proceed)
		require.True(t, ok)
		assert.Equal(t, clarify.Candidates[0], d.Candidate)
		assert.Equal(t, "Show me the data", d.Query)
		assert.Equal(t, ViaFallback, d.Via)
	})

	t.Run("expired clarification is ignored", func(t *testing.T) {
		stale := &store.ChatSession{PendingClarification: clarify.State(fixedNow.Add(-11 * time.Minute))}
		assert.True(t, r.Expired(stale.PendingClarification))
		_, ok := r.Route("the first one", stale).(NoMatch)
		assert.True(t, ok)
	})
}

func TestRouteDirectives(t *testing.T) {
	r := newResolver(t)

	d, ok := r.Route("/table:items", &store.ChatSession{}).(Proceed)
	require.True(t, ok)
	assert.Equal(t, store.Route{TableID: "items", DomainID: "tax_compliance"}, d.Candidate.Route())
	assert.Equal(t, ViaDirective, d.Via)
	assert.Empty(t, d.Query)

	d, ok = r.Route("/table:items revenue per product", &store.ChatSession{}).(Proceed)
	require.True(t, ok)
	assert.Equal(t, store.Route{TableID: "items", DomainID: "revenue_analysis"}, d.Candidate.Route())
	assert.Equal(t, "revenue per product", d.Query)

	d, ok = r.Route("/table:ledgers totals", &store.ChatSession{}).(Proceed)
	require.True(t, ok)
	assert.Equal(t, "ledgers", d.Candidate.TableID)
	assert.Empty(t, d.Candidate.DomainID)

	d, ok = r.Route("/domain:fraud_detection", &store.ChatSession{}).(Proceed)
	require.True(t, ok)
	assert.Equal(t, store.Route{TableID: "invoices", DomainID: "fraud_detection"}, d.Candidate.Route())
}
