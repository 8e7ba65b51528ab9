package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"einvoice-assistant-be/internal/dto"
	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/internal/repository/memory"
	"einvoice-assistant-be/pkg/ai/answer"
	"einvoice-assistant-be/pkg/ai/classifier"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/ai/router"
	"einvoice-assistant-be/pkg/ai/scope"
	"einvoice-assistant-be/pkg/ai/state"
	"einvoice-assistant-be/pkg/datastore"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/llm/factory"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
	"einvoice-assistant-be/pkg/viz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSnapshots keeps deep copies, like a real external store would.
type mapSnapshots struct {
	mu   sync.Mutex
	data map[string]*store.ChatSession
}

func (m *mapSnapshots) Save(_ context.Context, s *store.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = s.Clone()
	return nil
}

func (m *mapSnapshots) Load(_ context.Context, id string) (*store.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, memory.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *mapSnapshots) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []string
}

func (r *recordingNotifier) SendToSession(sessionID, messageType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, sessionID+":"+messageType)
}

func newChatService(t *testing.T, snapshots SnapshotStore, notifier TurnNotifier) IChatService {
	t.Helper()
	l := logger.NewNopLogger()
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	ds, err := datastore.Open(context.Background(), l)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	require.NoError(t, ds.Load(context.Background(), tx, t.TempDir(), 5))

	sm := state.NewManager(l)
	resolver := router.NewResolver(tx, classifier.New(tx, classifier.DefaultConfig()), router.DefaultConfig())
	orch := answer.NewOrchestrator(tx, answer.NewFactorySource(factory.ProviderCanned), ds, answer.DefaultConfig(), l)
	p := pipeline.New(tx, resolver, scope.NewEnforcer(tx), orch, viz.NewSelector(tx, ds, l), sm, l)

	return NewChatService(tx, p, sm, memory.NewSessionRepository(time.Hour, time.Hour), snapshots, nil, notifier,
		ChatServiceConfig{DefaultLanguage: lang.English, DefaultModel: store.ModelConfig{ModelName: "canned"}}, l)
}

func TestSessionRestoredFromSnapshot(t *testing.T) {
	snapshots := &mapSnapshots{data: map[string]*store.ChatSession{}}
	first := newChatService(t, snapshots, nil)

	created, err := first.CreateSession(context.Background(), &dto.CreateSessionRequest{Language: "ar"})
	require.NoError(t, err)
	_, err = first.Submit(context.Background(), created.Id, &dto.QueryRequest{Text: "What is the total revenue by month for 2023?"})
	require.NoError(t, err)

	// a fresh instance sharing only the snapshot store
	second := newChatService(t, snapshots, nil)
	history, err := second.History(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Len(t, history.Turns, 3)

	require.NoError(t, second.Delete(context.Background(), created.Id))
	_, err = second.History(context.Background(), created.Id)
	assert.ErrorIs(t, err, memory.ErrSessionNotFound)
}

func TestSubmitNotifiesListeners(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newChatService(t, nil, notifier)

	created, err := svc.CreateSession(context.Background(), &dto.CreateSessionRequest{})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), created.Id, &dto.QueryRequest{Text: "Tell me a joke"})
	require.NoError(t, err)
	assert.Equal(t, []string{created.Id + ":turn"}, notifier.sends)
}

func TestFailedSubmitKeepsSession(t *testing.T) {
	svc := newChatService(t, nil, nil)
	created, err := svc.CreateSession(context.Background(), &dto.CreateSessionRequest{})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), created.Id, &dto.QueryRequest{Text: "  "})
	assert.ErrorIs(t, err, pipeline.ErrEmptyQuery)

	history, err := svc.History(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Len(t, history.Turns, 1)
}
