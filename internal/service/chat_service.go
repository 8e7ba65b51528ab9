package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"einvoice-assistant-be/internal/dto"
	"einvoice-assistant-be/internal/mapper"
	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/internal/repository/memory"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/ai/state"
	"einvoice-assistant-be/pkg/events"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"github.com/google/uuid"
)

var (
	ErrSessionBusy   = errors.New("session is busy with another query")
	ErrUnknownFilter = errors.New("unknown table or domain filter")
)

type IChatService interface {
	CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Submit(ctx context.Context, sessionID string, req *dto.QueryRequest) (*dto.QueryResponse, error)
	SetLanguage(ctx context.Context, sessionID string, req *dto.SetLanguageRequest) (*dto.SessionResponse, error)
	Configure(ctx context.Context, sessionID string, req *dto.ConfigureRequest) (*dto.SessionResponse, error)
	SetFilters(ctx context.Context, sessionID string, req *dto.SetFiltersRequest) (*dto.SessionResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Delete(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) (*dto.HistoryResponse, error)
	Taxonomy(code lang.Code) *dto.TaxonomyResponse
	Examples(code lang.Code) []string
}

// SnapshotStore persists committed sessions across restarts.
type SnapshotStore interface {
	Save(ctx context.Context, s *store.ChatSession) error
	Load(ctx context.Context, sessionID string) (*store.ChatSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// TurnNotifier pushes committed turns to live listeners of a session.
type TurnNotifier interface {
	SendToSession(sessionID string, messageType string, payload interface{})
}

type ChatServiceConfig struct {
	DefaultLanguage lang.Code
	DefaultModel    store.ModelConfig
	LockWait        time.Duration
}

type chatService struct {
	taxonomy  *taxonomy.Taxonomy
	pipeline  *pipeline.Pipeline
	state     *state.Manager
	sessions  *memory.SessionRepository
	snapshots SnapshotStore
	publisher IPublisherService
	notifier  TurnNotifier
	mapper    *mapper.ChatMapper
	cfg       ChatServiceConfig
	logger    logger.ILogger
}

// NewChatService wires the session lifecycle around the turn pipeline.
// snapshots, publisher and notifier may be nil.
func NewChatService(
	tx *taxonomy.Taxonomy,
	p *pipeline.Pipeline,
	sm *state.Manager,
	sessions *memory.SessionRepository,
	snapshots SnapshotStore,
	publisher IPublisherService,
	notifier TurnNotifier,
	cfg ChatServiceConfig,
	l logger.ILogger,
) IChatService {
	if cfg.LockWait <= 0 {
		cfg.LockWait = 45 * time.Second
	}
	return &chatService{
		taxonomy:  tx,
		pipeline:  p,
		state:     sm,
		sessions:  sessions,
		snapshots: snapshots,
		publisher: publisher,
		notifier:  notifier,
		mapper:    mapper.NewChatMapper(tx),
		cfg:       cfg,
		logger:    l,
	}
}

func (s *chatService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	code := s.cfg.DefaultLanguage.OrDefault()
	if req.Language != "" {
		parsed, err := lang.Parse(req.Language)
		if err != nil {
			return nil, err
		}
		code = parsed
	}

	model := s.cfg.DefaultModel
	if req.ModelName != "" {
		model.ModelName = req.ModelName
	}
	if req.Temperature != nil {
		model.Temperature = *req.Temperature
	}

	session := s.state.NewSession(uuid.NewString(), code, model)
	if err := s.sessions.Add(session); err != nil {
		return nil, err
	}
	s.persist(ctx, session)
	return s.mapper.SessionToResponse(session, true), nil
}

func (s *chatService) Submit(ctx context.Context, sessionID string, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	session, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	result, err := s.pipeline.Submit(ctx, session, req.Text)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, session)

	res := s.mapper.ResultToResponse(session.ID, session.Language.OrDefault(), result)
	s.announce(ctx, session, result, time.Since(start))
	if s.notifier != nil {
		s.notifier.SendToSession(session.ID, "turn", res)
	}
	return res, nil
}

func (s *chatService) SetLanguage(ctx context.Context, sessionID string, req *dto.SetLanguageRequest) (*dto.SessionResponse, error) {
	code, err := lang.Parse(req.Language)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, func(session *store.ChatSession) {
		s.state.SetLanguage(session, code)
	})
}

func (s *chatService) Configure(ctx context.Context, sessionID string, req *dto.ConfigureRequest) (*dto.SessionResponse, error) {
	return s.update(ctx, sessionID, func(session *store.ChatSession) {
		s.state.SetModelConfig(session, store.ModelConfig{
			ModelName:   req.ModelName,
			Temperature: req.Temperature,
			APIKey:      req.APIKey,
		})
	})
}

func (s *chatService) SetFilters(ctx context.Context, sessionID string, req *dto.SetFiltersRequest) (*dto.SessionResponse, error) {
	if req.Table != "" {
		if _, ok := s.taxonomy.Table(req.Table); !ok {
			return nil, fmt.Errorf("%w: table %q", ErrUnknownFilter, req.Table)
		}
	}
	if req.Domain != "" {
		if _, ok := s.taxonomy.Domain(req.Domain); !ok {
			return nil, fmt.Errorf("%w: domain %q", ErrUnknownFilter, req.Domain)
		}
	}
	return s.update(ctx, sessionID, func(session *store.ChatSession) {
		s.state.SetFilters(session, store.Filters{TableID: req.Table, DomainID: req.Domain})
	})
}

func (s *chatService) Reset(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	return s.update(ctx, sessionID, func(session *store.ChatSession) {
		s.state.Reset(session)
	})
}

func (s *chatService) Delete(ctx context.Context, sessionID string) error {
	_, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	s.sessions.Delete(sessionID)
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("CHAT", "Failed to delete session snapshot", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
	}
	s.logger.Info("CHAT", "Session deleted", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *chatService) History(ctx context.Context, sessionID string) (*dto.HistoryResponse, error) {
	session, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	return &dto.HistoryResponse{SessionId: session.ID, Turns: s.mapper.TurnsToDTO(session.Turns)}, nil
}

func (s *chatService) Taxonomy(code lang.Code) *dto.TaxonomyResponse {
	return s.mapper.TaxonomyToResponse(code.OrDefault())
}

func (s *chatService) Examples(code lang.Code) []string {
	return response.Examples(code.OrDefault())
}

// update applies a configuration change under the session lock and persists
// the result.
func (s *chatService) update(ctx context.Context, sessionID string, apply func(*store.ChatSession)) (*dto.SessionResponse, error) {
	session, release, err := s.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	apply(session)
	s.persist(ctx, session)
	return s.mapper.SessionToResponse(session, false), nil
}

// acquire takes the session lock, restoring the session from its snapshot
// when the arena no longer holds it.
func (s *chatService) acquire(ctx context.Context, sessionID string) (*store.ChatSession, func(), error) {
	if !s.sessions.Has(sessionID) {
		s.restore(ctx, sessionID)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()

	session, release, err := s.sessions.Acquire(waitCtx, sessionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil, ErrSessionBusy
		}
		return nil, nil, err
	}
	return session, release, nil
}

func (s *chatService) restore(ctx context.Context, sessionID string) {
	if s.snapshots == nil {
		return
	}
	session, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return
	}
	if err := s.sessions.Add(session); err == nil {
		s.logger.Info("CHAT", "Session restored from snapshot", map[string]interface{}{"session_id": sessionID})
	}
}

func (s *chatService) persist(ctx context.Context, session *store.ChatSession) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, session); err != nil {
		s.logger.Warn("CHAT", "Failed to save session snapshot", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
	}
}

func (s *chatService) announce(ctx context.Context, session *store.ChatSession, result *pipeline.TurnResult, took time.Duration) {
	if s.publisher == nil {
		return
	}
	e := events.TurnCommitted{
		SessionID:  session.ID,
		Outcome:    string(result.Outcome),
		Via:        string(result.Via),
		Language:   string(session.Language.OrDefault()),
		DurationMs: took.Milliseconds(),
		At:         s.state.Now(),
	}
	if result.Route != nil {
		e.TableID = result.Route.TableID
		e.DomainID = result.Route.DomainID
	}
	if result.Chart != nil {
		e.ChartKind = string(result.Chart.ChartFamily)
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("CHAT", "Failed to publish turn event", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
	}
}
