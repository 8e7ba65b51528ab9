// Package classifier maps a free-text query onto ranked (table, domain)
// candidates using the weighted vocabulary of the taxonomy.
//
// Scoring is deterministic: confidence = Base + TableWeight·T + DomainWeight·D,
// where T and D are the capped sums of matched term weights. When only one
// side has evidence, the other side is implied from the session context or
// the taxonomy defaults and contributes nothing.
package classifier

import (
	"math"
	"regexp"
	"slices"
	"sort"

	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

const (
	Base         = 0.3
	TableWeight  = 0.3
	DomainWeight = 0.4

	// GenericConfidence is given to every table when the query only says
	// "data"/"records"; it sits below any sane threshold to force a question.
	GenericConfidence = 0.2

	// MaxEllipticalTokens bounds a subject-less follow-up such as
	// "and for 2022?".
	MaxEllipticalTokens = 6
)

var yearPattern = regexp.MustCompile(`^(19|20)[0-9]{2}$`)

// Config holds the tunable context carry-over parameters.
type Config struct {
	FollowUpConfidence float64
	FollowUpBoost      float64
}

func DefaultConfig() Config {
	return Config{FollowUpConfidence: 0.6, FollowUpBoost: 0.1}
}

type Classifier struct {
	taxonomy *taxonomy.Taxonomy
	cfg      Config
}

func New(tx *taxonomy.Taxonomy, cfg Config) *Classifier {
	return &Classifier{taxonomy: tx, cfg: cfg}
}

// Context is the slice of session state the classifier reads.
type Context struct {
	Active  *store.Route
	Filters store.Filters
}

// ContextOf extracts the classifier input from a session.
func ContextOf(s *store.ChatSession) Context {
	c := Context{Filters: s.Filters}
	if r, ok := s.ActiveRoute(); ok {
		c.Active = &r
	}
	return c
}

type evidence struct {
	weight float64
	terms  []string
}

func (e *evidence) add(term taxonomy.Term) {
	e.weight += term.Weight
	e.terms = appendUnique(e.terms, term.Text)
}

func appendUnique(dst []string, terms ...string) []string {
	for _, t := range terms {
		if !slices.Contains(dst, t) {
			dst = append(dst, t)
		}
	}
	return dst
}

func (e *evidence) score() float64 {
	if e == nil {
		return 0
	}
	return math.Min(1, e.weight)
}

// Classify returns candidates ordered by confidence, highest first. An empty
// result means no match.
func (c *Classifier) Classify(query string, ctx Context) []store.Candidate {
	text := lang.Prepare(query)
	if text.Empty() {
		return nil
	}

	tables := make(map[string]*evidence)
	for _, t := range c.taxonomy.Tables() {
		collect(text, t.ID, t.Vocabulary(), tables)
	}
	domains := make(map[string]*evidence)
	for _, d := range c.taxonomy.Domains() {
		collect(text, d.ID, d.Vocabulary(), domains)
	}

	// Off-topic words only veto a query that names nothing in the taxonomy.
	if len(tables) == 0 && len(domains) == 0 {
		if _, ok := text.HasAny(c.taxonomy.OutOfDomain()); ok {
			return nil
		}
	}

	generic, hasGeneric := text.HasAny(c.taxonomy.Generic())
	_, followUpMarker := text.HasAny(c.taxonomy.FollowUp())
	followUp := ctx.Active != nil &&
		(followUpMarker || (len(tables) == 0 && len(domains) == 0 && !hasGeneric && c.elliptical(text)))

	if len(tables) == 0 && len(domains) == 0 && !followUp && !hasGeneric {
		return nil
	}

	c.pin(ctx.Filters, tables, domains)

	var out []store.Candidate
	switch {
	case len(tables) > 0 || len(domains) > 0:
		out = c.score(tables, domains, ctx.Active, followUp, c.pinned(ctx.Filters))
	case followUp:
		out = []store.Candidate{{
			TableID:    ctx.Active.TableID,
			DomainID:   ctx.Active.DomainID,
			Confidence: c.cfg.FollowUpConfidence,
		}}
	default:
		out = c.generic(generic)
	}

	if followUp {
		for i := range out {
			if out[i].Route() == *ctx.Active {
				out[i].Confidence = math.Min(1, out[i].Confidence+c.cfg.FollowUpBoost)
			}
		}
	}
	for i := range out {
		out[i].Confidence = round4(out[i].Confidence)
	}
	c.sort(out, ctx.Active)
	return out
}

// elliptical reports whether a short query only narrows the period of the
// previous question, like "only Q3" or "و لعام 2022".
func (c *Classifier) elliptical(text lang.Text) bool {
	if len(text.Tokens) > MaxEllipticalTokens {
		return false
	}
	if _, ok := text.HasAny(c.taxonomy.Qualifiers()); ok {
		return true
	}
	return slices.ContainsFunc(text.Tokens, yearPattern.MatchString)
}

func collect(text lang.Text, id string, vocab []taxonomy.Term, into map[string]*evidence) {
	for _, term := range vocab {
		if !text.Has(term.Text) {
			continue
		}
		e, ok := into[id]
		if !ok {
			e = &evidence{}
			into[id] = e
		}
		e.add(term)
	}
}

// pin replaces evidence with the UI filter selection. Filters narrow a query
// that already carries some signal; they never invent one.
func (c *Classifier) pin(f store.Filters, tables, domains map[string]*evidence) {
	if _, ok := c.taxonomy.Table(f.TableID); ok {
		prev := tables[f.TableID]
		for id := range tables {
			delete(tables, id)
		}
		e := &evidence{weight: 1}
		if prev != nil {
			e.terms = prev.terms
		}
		tables[f.TableID] = e
	}
	if _, ok := c.taxonomy.Domain(f.DomainID); ok {
		prev := domains[f.DomainID]
		for id := range domains {
			delete(domains, id)
		}
		e := &evidence{weight: 1}
		if prev != nil {
			e.terms = prev.terms
		}
		domains[f.DomainID] = e
	}
}

func (c *Classifier) score(tables, domains map[string]*evidence, active *store.Route, followUp, tablePinned bool) []store.Candidate {
	var out []store.Candidate
	add := func(tableID, domainID string) {
		t, d := tables[tableID], domains[domainID]
		conf := Base + TableWeight*t.score() + DomainWeight*d.score()
		var terms []string
		if t != nil {
			terms = appendUnique(terms, t.terms...)
		}
		if d != nil {
			terms = appendUnique(terms, d.terms...)
		}
		out = append(out, store.Candidate{
			TableID:      tableID,
			DomainID:     domainID,
			Confidence:   conf,
			MatchedTerms: terms,
		})
	}

	switch {
	case len(tables) > 0 && len(domains) > 0:
		var rejected [][2]string
		for _, t := range c.taxonomy.Tables() {
			if tables[t.ID] == nil {
				continue
			}
			for _, d := range c.taxonomy.Domains() {
				if domains[d.ID] == nil {
					continue
				}
				if t.Permits(d.ID) {
					add(t.ID, d.ID)
				} else {
					rejected = append(rejected, [2]string{t.ID, d.ID})
				}
			}
		}
		// A domain none of the named tables supports is redirected to its
		// usual table, unless the user pinned the table with a filter.
		if !tablePinned {
			for _, d := range c.taxonomy.Domains() {
				if domains[d.ID] == nil || covered(tables, d.ID, c.taxonomy) {
					continue
				}
				if id, ok := c.taxonomy.DefaultTableFor(d.ID); ok {
					add(id, d.ID)
				}
			}
		}
		// Only disallowed pairings matched: hand them on so scope
		// enforcement can explain what the table does support.
		if len(out) == 0 {
			for _, r := range rejected {
				add(r[0], r[1])
			}
		}

	case len(domains) > 0:
		for _, d := range c.taxonomy.Domains() {
			if domains[d.ID] == nil {
				continue
			}
			add(c.impliedTable(d.ID, active, followUp), d.ID)
		}

	default:
		for _, t := range c.taxonomy.Tables() {
			if tables[t.ID] == nil {
				continue
			}
			add(t.ID, c.impliedDomain(t, active, followUp))
		}
	}
	return dedupe(out)
}

func covered(tables map[string]*evidence, domainID string, tx *taxonomy.Taxonomy) bool {
	for id := range tables {
		if tx.Permits(id, domainID) {
			return true
		}
	}
	return false
}

func (c *Classifier) pinned(f store.Filters) bool {
	_, ok := c.taxonomy.Table(f.TableID)
	return ok
}

func (c *Classifier) impliedTable(domainID string, active *store.Route, followUp bool) string {
	if followUp && c.taxonomy.Permits(active.TableID, domainID) {
		return active.TableID
	}
	if id, ok := c.taxonomy.DefaultTableFor(domainID); ok {
		return id
	}
	return c.taxonomy.DefaultTable
}

func (c *Classifier) impliedDomain(t *taxonomy.Table, active *store.Route, followUp bool) string {
	if followUp && t.Permits(active.DomainID) {
		return active.DomainID
	}
	return t.DefaultDomain
}

func (c *Classifier) generic(term string) []store.Candidate {
	tables := c.taxonomy.Tables()
	out := make([]store.Candidate, 0, len(tables))
	for _, t := range tables {
		out = append(out, store.Candidate{
			TableID:      t.ID,
			DomainID:     t.DefaultDomain,
			Confidence:   GenericConfidence,
			MatchedTerms: []string{term},
		})
	}
	return out
}

func dedupe(in []store.Candidate) []store.Candidate {
	seen := make(map[store.Route]int, len(in))
	out := in[:0]
	for _, cand := range in {
		if i, dup := seen[cand.Route()]; dup {
			if cand.Confidence > out[i].Confidence {
				out[i] = cand
			}
			continue
		}
		seen[cand.Route()] = len(out)
		out = append(out, cand)
	}
	return out
}

// sort orders by confidence, then closeness to the active context, then the
// table's default domain, then declaration order.
func (c *Classifier) sort(out []store.Candidate, active *store.Route) {
	rank := func(cand store.Candidate) int {
		if active == nil {
			return 2
		}
		switch {
		case cand.Route() == *active:
			return 0
		case cand.TableID == active.TableID || cand.DomainID == active.DomainID:
			return 1
		}
		return 2
	}
	isDefault := func(cand store.Candidate) int {
		if t, ok := c.taxonomy.Table(cand.TableID); ok && t.DefaultDomain == cand.DomainID {
			return 0
		}
		return 1
	}
	tableIdx := func(cand store.Candidate) int {
		if t, ok := c.taxonomy.Table(cand.TableID); ok {
			return t.Index()
		}
		return math.MaxInt
	}
	domainIdx := func(cand store.Candidate) int {
		if d, ok := c.taxonomy.Domain(cand.DomainID); ok {
			return d.Index()
		}
		return math.MaxInt
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if da, db := isDefault(a), isDefault(b); da != db {
			return da < db
		}
		if ta, tb := tableIdx(a), tableIdx(b); ta != tb {
			return ta < tb
		}
		return domainIdx(a) < domainIdx(b)
	})
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
