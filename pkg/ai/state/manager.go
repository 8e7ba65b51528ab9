// Package state is the single writer of chat sessions. Routing code stages
// turns on a Tx and commits them in one step; configuration actions go
// through the Manager methods.
package state

import (
	"context"
	"errors"
	"time"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"

	"github.com/google/uuid"
)

const module = "state"

var ErrTxDone = errors.New("transaction already committed or discarded")

// Manager handles session state transitions
type Manager struct {
	logger logger.ILogger
	now    func() time.Time
}

// NewManager creates a new state manager
func NewManager(l logger.ILogger) *Manager {
	return &Manager{logger: l, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Now() time.Time {
	return m.now()
}

// NewSession starts a conversation with a welcome turn.
func (m *Manager) NewSession(id string, code lang.Code, cfg store.ModelConfig) *store.ChatSession {
	now := m.now()
	s := &store.ChatSession{
		ID:          id,
		Language:    code.OrDefault(),
		ModelConfig: cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Turns = []store.ChatTurn{m.welcome(s.Language)}
	return s
}

func (m *Manager) welcome(code lang.Code) store.ChatTurn {
	return store.ChatTurn{
		ID:        uuid.NewString(),
		Role:      store.RoleAssistant,
		Kind:      store.KindWelcome,
		Text:      response.Welcome(code),
		Language:  code,
		Timestamp: m.now(),
	}
}

// SetLanguage switches the session language. A conversation that holds only
// the greeting gets the greeting in the new language.
func (m *Manager) SetLanguage(s *store.ChatSession, code lang.Code) {
	code = code.OrDefault()
	s.Language = code
	if len(s.Turns) == 1 && s.Turns[0].Kind == store.KindWelcome {
		s.Turns = []store.ChatTurn{m.welcome(code)}
	}
	s.UpdatedAt = m.now()
	m.logger.Info(module, "Language changed", map[string]interface{}{"session_id": s.ID, "language": code})
}

func (m *Manager) SetModelConfig(s *store.ChatSession, cfg store.ModelConfig) {
	s.ModelConfig = cfg
	s.UpdatedAt = m.now()
	m.logger.Info(module, "Model configuration changed", map[string]interface{}{
		"session_id":  s.ID,
		"model":       cfg.ModelName,
		"temperature": cfg.Temperature,
		"has_api_key": cfg.APIKey != "",
	})
}

func (m *Manager) SetFilters(s *store.ChatSession, f store.Filters) {
	s.Filters = f
	s.UpdatedAt = m.now()
	m.logger.Info(module, "Filters changed", map[string]interface{}{"session_id": s.ID, "table": f.TableID, "domain": f.DomainID})
}

// Reset clears the conversation and its routing context. Language and model
// configuration are user settings and survive.
func (m *Manager) Reset(s *store.ChatSession) {
	s.Turns = []store.ChatTurn{m.welcome(s.Language)}
	s.ActiveTable = ""
	s.ActiveDomain = ""
	s.PendingClarification = nil
	s.Filters = store.Filters{}
	s.UpdatedAt = m.now()
	m.logger.Info(module, "Session reset", map[string]interface{}{"session_id": s.ID})
}

// Begin stages routing mutations for one turn.
func (m *Manager) Begin(s *store.ChatSession) *Tx {
	return &Tx{m: m, session: s}
}

// Tx collects the turns and clarification change of one user turn. Nothing
// reaches the session before Commit.
type Tx struct {
	m       *Manager
	session *store.ChatSession

	turns         []store.ChatTurn
	clarification *store.ClarificationState
	setPending    bool
	done          bool
}

// AppendTurn stages a turn. ID and timestamp are filled when empty.
func (tx *Tx) AppendTurn(turn store.ChatTurn) store.ChatTurn {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = tx.m.now()
	}
	if turn.Language == "" {
		turn.Language = tx.session.Language
	}
	tx.turns = append(tx.turns, turn)
	return turn
}

// SetClarification stages the pending clarification; nil clears it.
func (tx *Tx) SetClarification(c *store.ClarificationState) {
	tx.clarification = c
	tx.setPending = true
}

// Turns returns the staged turns.
func (tx *Tx) Turns() []store.ChatTurn {
	return append([]store.ChatTurn(nil), tx.turns...)
}

// Commit applies every staged change, or none when ctx is already done.
// The active table and domain follow the last answer turn that carries a
// route; clarifications, refusals and fallbacks never move them.
func (tx *Tx) Commit(ctx context.Context) ([]store.ChatTurn, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		tx.Discard()
		return nil, err
	}
	tx.done = true

	s := tx.session
	s.Turns = append(s.Turns, tx.turns...)
	for _, t := range tx.turns {
		if t.Kind == store.KindAnswer && t.Route != nil {
			s.ActiveTable = t.Route.TableID
			s.ActiveDomain = t.Route.DomainID
		}
	}
	if tx.setPending {
		s.PendingClarification = tx.clarification
	}
	s.UpdatedAt = tx.m.now()

	tx.m.logger.Debug(module, "Turn committed", map[string]interface{}{
		"session_id":    s.ID,
		"turns":         len(tx.turns),
		"active_table":  s.ActiveTable,
		"active_domain": s.ActiveDomain,
		"pending":       s.PendingClarification != nil,
	})
	return tx.Turns(), nil
}

// Discard drops the staged changes.
func (tx *Tx) Discard() {
	tx.done = true
	tx.turns = nil
	tx.clarification = nil
	tx.setPending = false
}
