package router

import (
	"time"

	"einvoice-assistant-be/pkg/store"
)

// Decision is the routing outcome for one user turn. It is one of Proceed,
// Clarify or NoMatch; callers switch on the concrete type.
type Decision interface {
	decision()
}

// Proceed routes Query to Candidate.
type Proceed struct {
	Candidate store.Candidate
	// Query is the question to answer. After a clarification it is the
	// original question, not the user's selection reply.
	Query string
	Via   Via
}

// Via records how a Proceed was reached.
type Via string

const (
	ViaClassifier Via = "classifier"
	ViaDirective  Via = "directive"
	ViaSelection  Via = "selection"
	ViaFallback   Via = "fallback"
)

// Clarify asks the user to pick among Candidates before Query is answered.
type Clarify struct {
	Query      string
	Candidates []store.Candidate
	// Attempts counts selection replies that matched nothing.
	Attempts int
}

// NoMatch means nothing in the query relates to the supported data.
type NoMatch struct {
	Query string
}

func (Proceed) decision() {}
func (Clarify) decision() {}
func (NoMatch) decision() {}

// State converts a Clarify into the pending state stored on the session.
func (c Clarify) State(askedAt time.Time) *store.ClarificationState {
	return &store.ClarificationState{
		OriginalQuery: c.Query,
		Candidates:    append([]store.Candidate(nil), c.Candidates...),
		AskedAt:       askedAt,
		Attempts:      c.Attempts,
	}
}
