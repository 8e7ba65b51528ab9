// Package taxonomy is the static table → permitted-domains mapping together
// with the bilingual vocabulary, descriptions and chart column hints the
// routing components need. A Taxonomy is immutable once loaded and may be
// shared between goroutines without locking.
package taxonomy

import (
	"strings"

	"einvoice-assistant-be/pkg/lang"
)

const (
	KeywordWeight = 1.0
	HintWeight    = 0.5
)

// Text is a display string in both languages.
type Text struct {
	EN string `yaml:"en" json:"en"`
	AR string `yaml:"ar" json:"ar"`
}

// In returns the text for code, falling back to English.
func (t Text) In(code lang.Code) string {
	if code == lang.Arabic && t.AR != "" {
		return t.AR
	}
	return t.EN
}

// Terms is a bilingual list.
type Terms struct {
	EN []string `yaml:"en" json:"en"`
	AR []string `yaml:"ar" json:"ar"`
}

func (t Terms) In(code lang.Code) []string {
	if code == lang.Arabic && len(t.AR) > 0 {
		return t.AR
	}
	return t.EN
}

func (t Terms) All() []string {
	out := make([]string, 0, len(t.EN)+len(t.AR))
	out = append(out, t.EN...)
	return append(out, t.AR...)
}

// Term is a normalized vocabulary entry.
type Term struct {
	Text   string
	Weight float64
}

// Measure says how a chart value is aggregated. An empty Column with
// Agg "count" counts rows.
type Measure struct {
	Column string `yaml:"column" json:"column"`
	Agg    string `yaml:"agg" json:"agg"`
	Label  Text   `yaml:"label" json:"label"`
}

// Columns are chart hints for one table. Categories and Values are keyed by
// domain id, with "default" as the fallback key.
type Columns struct {
	Time       string             `yaml:"time" json:"time"`
	Region     string             `yaml:"region" json:"region"`
	Categories map[string]string  `yaml:"categories" json:"categories"`
	Values     map[string]Measure `yaml:"values" json:"values"`
}

// CategoryFor returns the grouping column used for domainID.
func (c Columns) CategoryFor(domainID string) string {
	if col, ok := c.Categories[domainID]; ok {
		return col
	}
	return c.Categories["default"]
}

// ValueFor returns the measure used for domainID.
func (c Columns) ValueFor(domainID string) (Measure, bool) {
	if m, ok := c.Values[domainID]; ok {
		return m, true
	}
	m, ok := c.Values["default"]
	return m, ok
}

type Domain struct {
	ID          string `yaml:"id"`
	Names       Text   `yaml:"names"`
	Keywords    Terms  `yaml:"keywords"`
	Hints       Terms  `yaml:"hints"`
	Constraints Terms  `yaml:"constraints"`

	index int
	vocab []Term
}

// Index is the declaration position, used for stable tie-breaking.
func (d *Domain) Index() int { return d.index }

// Vocabulary returns the normalized, de-duplicated weighted terms.
func (d *Domain) Vocabulary() []Term { return d.vocab }

type Table struct {
	ID            string   `yaml:"id"`
	Names         Text     `yaml:"names"`
	Description   Text     `yaml:"description"`
	File          string   `yaml:"file"`
	DefaultDomain string   `yaml:"default_domain"`
	Domains       []string `yaml:"domains"`
	Keywords      Terms    `yaml:"keywords"`
	Hints         Terms    `yaml:"hints"`
	Columns       Columns  `yaml:"columns"`

	index     int
	vocab     []Term
	permitted map[string]struct{}
}

func (t *Table) Index() int { return t.index }

func (t *Table) Vocabulary() []Term { return t.vocab }

// Permits reports whether domainID may be answered from this table.
func (t *Table) Permits(domainID string) bool {
	_, ok := t.permitted[domainID]
	return ok
}

type Taxonomy struct {
	Version            int      `yaml:"version"`
	DefaultTable       string   `yaml:"default_table"`
	GenericTerms       Terms    `yaml:"generic_terms"`
	FollowUpMarkers    Terms    `yaml:"follow_up_markers"`
	FollowUpQualifiers Terms    `yaml:"follow_up_qualifiers"`
	OutOfDomainTopics  Terms    `yaml:"out_of_domain_topics"`
	DomainList         []Domain `yaml:"domains"`
	TableList          []Table  `yaml:"tables"`

	tables      map[string]*Table
	domains     map[string]*Domain
	generic     []string
	followUp    []string
	qualifiers  []string
	outOfDomain []string
}

// Tables returns the tables in declaration order.
func (tx *Taxonomy) Tables() []*Table {
	out := make([]*Table, len(tx.TableList))
	for i := range tx.TableList {
		out[i] = &tx.TableList[i]
	}
	return out
}

// Domains returns the domains in declaration order.
func (tx *Taxonomy) Domains() []*Domain {
	out := make([]*Domain, len(tx.DomainList))
	for i := range tx.DomainList {
		out[i] = &tx.DomainList[i]
	}
	return out
}

func (tx *Taxonomy) Table(id string) (*Table, bool) {
	t, ok := tx.tables[id]
	return t, ok
}

func (tx *Taxonomy) Domain(id string) (*Domain, bool) {
	d, ok := tx.domains[id]
	return d, ok
}

// Permits is the membership test domainID ∈ taxonomy[tableID].
func (tx *Taxonomy) Permits(tableID, domainID string) bool {
	t, ok := tx.tables[tableID]
	if !ok {
		return false
	}
	return t.Permits(domainID)
}

// PermittedDomains lists the domains of tableID in declaration order.
func (tx *Taxonomy) PermittedDomains(tableID string) []string {
	t, ok := tx.tables[tableID]
	if !ok {
		return nil
	}
	return append([]string(nil), t.Domains...)
}

// DefaultTableFor picks the implicit table for a domain mentioned without a
// table: the default table when it permits the domain, else the first
// declared table that does. ok is false when no table permits it.
func (tx *Taxonomy) DefaultTableFor(domainID string) (string, bool) {
	if tx.Permits(tx.DefaultTable, domainID) {
		return tx.DefaultTable, true
	}
	for i := range tx.TableList {
		if tx.TableList[i].Permits(domainID) {
			return tx.TableList[i].ID, true
		}
	}
	return "", false
}

// Generic returns normalized "show me the data" style words.
func (tx *Taxonomy) Generic() []string { return tx.generic }

// FollowUp returns normalized pronoun/continuation markers.
func (tx *Taxonomy) FollowUp() []string { return tx.followUp }

// Qualifiers returns normalized period words ("Q3", "last month") that narrow
// an earlier question without naming a subject.
func (tx *Taxonomy) Qualifiers() []string { return tx.qualifiers }

// OutOfDomain returns normalized topics the assistant never answers.
func (tx *Taxonomy) OutOfDomain() []string { return tx.outOfDomain }

// TableName and DomainName return display names, or the id when unknown.
func (tx *Taxonomy) TableName(id string, code lang.Code) string {
	if t, ok := tx.tables[id]; ok {
		return t.Names.In(code)
	}
	return id
}

func (tx *Taxonomy) DomainName(id string, code lang.Code) string {
	if d, ok := tx.domains[id]; ok {
		return d.Names.In(code)
	}
	return id
}

// index builds lookup maps and normalized vocabularies. Called once by the
// loader after validation.
func (tx *Taxonomy) index() {
	tx.tables = make(map[string]*Table, len(tx.TableList))
	tx.domains = make(map[string]*Domain, len(tx.DomainList))

	for i := range tx.DomainList {
		d := &tx.DomainList[i]
		d.index = i
		d.vocab = buildVocabulary(d.Keywords, d.Hints)
		tx.domains[d.ID] = d
	}
	for i := range tx.TableList {
		t := &tx.TableList[i]
		t.index = i
		t.vocab = buildVocabulary(t.Keywords, t.Hints)
		t.permitted = make(map[string]struct{}, len(t.Domains))
		for _, d := range t.Domains {
			t.permitted[d] = struct{}{}
		}
		tx.tables[t.ID] = t
	}

	tx.generic = normalizeAll(tx.GenericTerms.All())
	tx.followUp = normalizeAll(tx.FollowUpMarkers.All())
	tx.qualifiers = normalizeAll(tx.FollowUpQualifiers.All())
	tx.outOfDomain = normalizeAll(tx.OutOfDomainTopics.All())
}

func buildVocabulary(keywords, hints Terms) []Term {
	seen := make(map[string]struct{})
	var out []Term
	add := func(terms []string, weight float64) {
		for _, raw := range terms {
			n := lang.Normalize(raw)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, Term{Text: n, Weight: weight})
		}
	}
	add(keywords.All(), KeywordWeight)
	add(hints.All(), HintWeight)
	return out
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := lang.Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Aliases returns every normalized name a user might type to pick a table:
// both display names and the id with underscores as spaces.
func (t *Table) Aliases() []string {
	return normalizeAll([]string{t.Names.EN, t.Names.AR, strings.ReplaceAll(t.ID, "_", " ")})
}

// Aliases returns every normalized name a user might type to pick a domain.
func (d *Domain) Aliases() []string {
	return normalizeAll([]string{d.Names.EN, d.Names.AR, strings.ReplaceAll(d.ID, "_", " ")})
}
