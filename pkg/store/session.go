package store

import (
	"time"

	"einvoice-assistant-be/pkg/lang"
)

// Role of the author of a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TurnKind tells the presentation layer how a turn came about.
type TurnKind string

const (
	KindQuestion      TurnKind = "question"
	KindAnswer        TurnKind = "answer"
	KindClarification TurnKind = "clarification"
	KindOutOfScope    TurnKind = "out_of_scope"
	KindNoMatch       TurnKind = "no_match"
	KindFallback      TurnKind = "fallback"
	KindWelcome       TurnKind = "welcome"
)

// Route is a resolved (table, domain) pair.
type Route struct {
	TableID  string `json:"table_id"`
	DomainID string `json:"domain_id"`
}

// Candidate is a scored guess mapping a query to a table/domain pair.
type Candidate struct {
	TableID      string   `json:"table_id"`
	DomainID     string   `json:"domain_id"`
	Confidence   float64  `json:"confidence"`
	MatchedTerms []string `json:"matched_terms"`
}

func (c Candidate) Route() Route {
	return Route{TableID: c.TableID, DomainID: c.DomainID}
}

// ChatTurn is immutable once appended to a session.
type ChatTurn struct {
	ID        string             `json:"id"`
	Role      Role               `json:"role"`
	Kind      TurnKind           `json:"kind"`
	Text      string             `json:"text"`
	Language  lang.Code          `json:"language"`
	Timestamp time.Time          `json:"timestamp"`
	Route     *Route             `json:"route,omitempty"`
	Chart     *VisualizationSpec `json:"attached_chart,omitempty"`
}

// ClarificationState is the "waiting room": candidates offered to the user
// while the routing of OriginalQuery is undecided.
type ClarificationState struct {
	OriginalQuery string      `json:"original_query"`
	Candidates    []Candidate `json:"candidates"`
	AskedAt       time.Time   `json:"asked_at"`
	Attempts      int         `json:"attempts"`
}

// ModelConfig is set only through explicit user configuration.
type ModelConfig struct {
	ModelName   string  `json:"model_name"`
	Temperature float64 `json:"temperature"`
	APIKey      string  `json:"-"`
}

// Filters narrow routing to a table and/or domain picked in the UI.
type Filters struct {
	TableID  string `json:"table_id,omitempty"`
	DomainID string `json:"domain_id,omitempty"`
}

// ChatSession is owned by exactly one conversation.
type ChatSession struct {
	ID                   string              `json:"id"`
	Turns                []ChatTurn          `json:"turns"`
	Language             lang.Code           `json:"language"`
	ActiveTable          string              `json:"active_table,omitempty"`
	ActiveDomain         string              `json:"active_domain,omitempty"`
	PendingClarification *ClarificationState `json:"pending_clarification,omitempty"`
	ModelConfig          ModelConfig         `json:"model_config"`
	Filters              Filters             `json:"filters"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// ActiveRoute returns the context carried over from the last answered turn.
func (s *ChatSession) ActiveRoute() (Route, bool) {
	if s.ActiveTable == "" || s.ActiveDomain == "" {
		return Route{}, false
	}
	return Route{TableID: s.ActiveTable, DomainID: s.ActiveDomain}, true
}

// Clone returns a deep copy. Turns are immutable, so sharing their chart
// pointers is safe.
func (s *ChatSession) Clone() *ChatSession {
	c := *s
	c.Turns = append([]ChatTurn(nil), s.Turns...)
	if s.PendingClarification != nil {
		p := *s.PendingClarification
		p.Candidates = append([]Candidate(nil), p.Candidates...)
		c.PendingClarification = &p
	}
	return &c
}
