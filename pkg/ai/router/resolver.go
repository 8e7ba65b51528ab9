package router

import (
	"time"

	"einvoice-assistant-be/pkg/ai/classifier"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

// Config holds the ambiguity thresholds. None of them is fixed by the
// product, so they are read from the environment.
type Config struct {
	// Threshold the top confidence must exceed.
	Threshold float64
	// Margin the top confidence must lead the runner-up by.
	Margin float64
	// TopN candidates offered in a clarifying question.
	TopN int
	// MaxAttempts unmatched replies before falling back to the top candidate.
	MaxAttempts int
	// TTL after which a pending clarification is forgotten.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Threshold:   0.5,
		Margin:      0.1,
		TopN:        3,
		MaxAttempts: 2,
		TTL:         10 * time.Minute,
	}
}

// Floating point slack for the margin comparison.
const epsilon = 1e-9

// Resolver turns classifier output into a Decision, consulting the pending
// clarification of the session first.
type Resolver struct {
	cfg        Config
	taxonomy   *taxonomy.Taxonomy
	classifier *classifier.Classifier
	now        func() time.Time
}

func NewResolver(tx *taxonomy.Taxonomy, cls *classifier.Classifier, cfg Config) *Resolver {
	if cfg.TopN < 2 {
		cfg.TopN = 2
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Resolver{cfg: cfg, taxonomy: tx, classifier: cls, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve applies the threshold and margin policy to ranked candidates.
// A single candidate leads an absent runner-up by its whole confidence.
func (r *Resolver) Resolve(query string, candidates []store.Candidate) Decision {
	if len(candidates) == 0 {
		return NoMatch{Query: query}
	}
	top := candidates[0]
	second := 0.0
	if len(candidates) > 1 {
		second = candidates[1].Confidence
	}
	diff := top.Confidence - second
	if top.Confidence > r.cfg.Threshold && diff > 0 && diff+epsilon >= r.cfg.Margin {
		return Proceed{Candidate: top, Query: query, Via: ViaClassifier}
	}
	return Clarify{Query: query, Candidates: r.distinct(candidates)}
}

func (r *Resolver) distinct(candidates []store.Candidate) []store.Candidate {
	seen := make(map[store.Route]bool, len(candidates))
	out := make([]store.Candidate, 0, r.cfg.TopN)
	for _, c := range candidates {
		if seen[c.Route()] {
			continue
		}
		seen[c.Route()] = true
		out = append(out, c)
		if len(out) == r.cfg.TopN {
			break
		}
	}
	return out
}

// Route decides what to do with a user turn. With a live pending
// clarification the reply is first matched against the offered candidates;
// otherwise the text is classified from scratch.
func (r *Resolver) Route(text string, session *store.ChatSession) Decision {
	if pending := session.PendingClarification; pending != nil && !r.Expired(pending) {
		return r.continueClarification(text, session, pending)
	}
	return r.fresh(text, session)
}

// Expired reports whether a pending clarification outlived the TTL.
func (r *Resolver) Expired(p *store.ClarificationState) bool {
	return r.cfg.TTL > 0 && r.now().Sub(p.AskedAt) > r.cfg.TTL
}

func (r *Resolver) continueClarification(text string, session *store.ChatSession, pending *store.ClarificationState) Decision {
	if sel, ok := ParseSelection(text, pending.Candidates, r.taxonomy); ok {
		return Proceed{Candidate: sel.Candidate, Query: pending.OriginalQuery, Via: ViaSelection}
	}

	// A confident new question means the user moved on.
	if d, ok := r.fresh(text, session).(Proceed); ok {
		return d
	}

	attempts := pending.Attempts + 1
	if attempts >= r.cfg.MaxAttempts {
		return Proceed{Candidate: pending.Candidates[0], Query: pending.OriginalQuery, Via: ViaFallback}
	}
	return Clarify{
		Query:      pending.OriginalQuery,
		Candidates: append([]store.Candidate(nil), pending.Candidates...),
		Attempts:   attempts,
	}
}

func (r *Resolver) fresh(text string, session *store.ChatSession) Decision {
	parsed := Parse(text)
	ctx := classifier.ContextOf(session)
	if parsed.TableID != "" {
		ctx.Filters.TableID = parsed.TableID
	}
	if parsed.DomainID != "" {
		ctx.Filters.DomainID = parsed.DomainID
	}

	if !r.known(parsed) {
		return Proceed{Candidate: r.directed(parsed), Query: parsed.CleanPrompt, Via: ViaDirective}
	}
	candidates := r.classifier.Classify(parsed.CleanPrompt, ctx)
	if len(candidates) == 0 && parsed.HasDirective() {
		return Proceed{Candidate: r.directed(parsed), Query: parsed.CleanPrompt, Via: ViaDirective}
	}
	return r.Resolve(parsed.CleanPrompt, candidates)
}

func (r *Resolver) known(p *ParsedPrompt) bool {
	if _, ok := r.taxonomy.Table(p.TableID); p.TableID != "" && !ok {
		return false
	}
	if _, ok := r.taxonomy.Domain(p.DomainID); p.DomainID != "" && !ok {
		return false
	}
	return true
}

// directed builds the candidate an explicit directive names. Unknown ids
// pass through for scope enforcement to reject.
func (r *Resolver) directed(p *ParsedPrompt) store.Candidate {
	cand := store.Candidate{TableID: p.TableID, DomainID: p.DomainID, Confidence: 1}
	if cand.TableID == "" {
		cand.TableID, _ = r.taxonomy.DefaultTableFor(cand.DomainID)
	}
	if cand.DomainID == "" {
		if t, ok := r.taxonomy.Table(cand.TableID); ok {
			cand.DomainID = t.DefaultDomain
		}
	}
	return cand
}
