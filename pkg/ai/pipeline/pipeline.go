// Package pipeline runs one user turn end to end: routing, scope checks,
// answering, chart selection and the session commit.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/ai/answer"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/ai/router"
	"einvoice-assistant-be/pkg/ai/scope"
	"einvoice-assistant-be/pkg/ai/state"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
	"einvoice-assistant-be/pkg/viz"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "pipeline"

var ErrEmptyQuery = errors.New("query is empty")

// Outcome is how a turn ended, as shown to the presentation layer.
type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeClarify    Outcome = "clarify"
	OutcomeOutOfScope Outcome = "out_of_scope"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeFallback   Outcome = "fallback"
)

// TurnResult is what a submitted query produced. Turns holds the committed
// user and assistant turns.
type TurnResult struct {
	Reply         string
	Chart         *store.VisualizationSpec
	Clarification *store.ClarificationState
	Outcome       Outcome
	Route         *store.Route
	Via           router.Via
	Turns         []store.ChatTurn
}

type Pipeline struct {
	taxonomy *taxonomy.Taxonomy
	resolver *router.Resolver
	enforcer *scope.Enforcer
	answerer *answer.Orchestrator
	charts   *viz.Selector
	state    *state.Manager
	logger   logger.ILogger
	tracer   trace.Tracer
}

func New(
	tx *taxonomy.Taxonomy,
	resolver *router.Resolver,
	enforcer *scope.Enforcer,
	answerer *answer.Orchestrator,
	charts *viz.Selector,
	sm *state.Manager,
	l logger.ILogger,
) *Pipeline {
	return &Pipeline{
		taxonomy: tx,
		resolver: resolver,
		enforcer: enforcer,
		answerer: answerer,
		charts:   charts,
		state:    sm,
		logger:   l,
		tracer:   otel.Tracer(module),
	}
}

// Submit answers text within session s. The caller must hold the session
// exclusively for the duration of the call. Every change is committed at the
// end in one step; on error s is left as it was.
func (p *Pipeline) Submit(ctx context.Context, s *store.ChatSession, text string) (*TurnResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.submit", trace.WithAttributes(attribute.String("session.id", s.ID)))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	tx := p.state.Begin(s)
	tx.AppendTurn(store.ChatTurn{Role: store.RoleUser, Kind: store.KindQuestion, Text: text})

	result, err := p.route(ctx, tx, s, text)
	if err != nil {
		tx.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	committed, err := tx.Commit(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	result.Turns = committed
	span.SetAttributes(attribute.String("turn.outcome", string(result.Outcome)))

	fields := map[string]interface{}{"session_id": s.ID, "outcome": result.Outcome}
	if result.Route != nil {
		fields["table"] = result.Route.TableID
		fields["domain"] = result.Route.DomainID
		fields["via"] = result.Via
	}
	p.logger.Info(module, "Turn completed", fields)
	return result, nil
}

func (p *Pipeline) route(ctx context.Context, tx *state.Tx, s *store.ChatSession, text string) (*TurnResult, error) {
	code := s.Language.OrDefault()

	switch d := p.resolver.Route(text, s).(type) {
	case router.Clarify:
		pending := d.State(p.state.Now())
		tx.SetClarification(pending)
		reply := response.Clarification(p.taxonomy, code, d.Candidates, d.Attempts)
		tx.AppendTurn(store.ChatTurn{Role: store.RoleAssistant, Kind: store.KindClarification, Text: reply})
		return &TurnResult{Reply: reply, Clarification: pending, Outcome: OutcomeClarify}, nil

	case router.NoMatch:
		tx.SetClarification(nil)
		v := p.enforcer.Enforce(nil).(scope.OutOfScope)
		reply := response.OutOfScope(p.taxonomy, code, v)
		tx.AppendTurn(store.ChatTurn{Role: store.RoleAssistant, Kind: store.KindNoMatch, Text: reply})
		return &TurnResult{Reply: reply, Outcome: OutcomeNoMatch}, nil

	case router.Proceed:
		tx.SetClarification(nil)
		return p.proceed(ctx, tx, s, d)

	default:
		return nil, errors.New("unknown routing decision")
	}
}

func (p *Pipeline) proceed(ctx context.Context, tx *state.Tx, s *store.ChatSession, d router.Proceed) (*TurnResult, error) {
	code := s.Language.OrDefault()
	route := d.Candidate.Route()

	if v, ok := p.enforcer.Enforce(&d.Candidate).(scope.OutOfScope); ok {
		reply := response.OutOfScope(p.taxonomy, code, v)
		tx.AppendTurn(store.ChatTurn{Role: store.RoleAssistant, Kind: store.KindOutOfScope, Text: reply})
		return &TurnResult{Reply: reply, Outcome: OutcomeOutOfScope, Route: &route, Via: d.Via}, nil
	}

	query := d.Query
	if query == "" {
		query = response.Overview(p.taxonomy, code, d.Candidate.TableID)
	}

	turn, err := p.answerer.Answer(ctx, query, d.Candidate, s)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{Route: &route, Via: d.Via, Outcome: OutcomeFallback}
	if turn.Kind == store.KindAnswer {
		result.Outcome = OutcomeAnswered
		turn.Chart = p.charts.Select(ctx, query, d.Candidate, code)
		result.Chart = turn.Chart
	}
	tx.AppendTurn(turn)
	result.Reply = turn.Text
	return result, nil
}
