package memory

import (
	"context"
	"errors"
	"time"

	"einvoice-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// entry pairs a session with a one-slot lock. Whoever holds the slot owns the
// session until release.
type entry struct {
	session *store.ChatSession
	slot    chan struct{}
}

// SessionRepository is the in-process session arena. Entries expire after
// ttl without access.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Add stores a session that is not yet in the arena.
func (r *SessionRepository) Add(session *store.ChatSession) error {
	e := &entry{session: session, slot: make(chan struct{}, 1)}
	if err := r.cache.Add(session.ID, e, cache.DefaultExpiration); err != nil {
		return ErrSessionExists
	}
	return nil
}

// Acquire waits for exclusive use of the session. The returned release must
// be called exactly once. Waiting stops when ctx is done.
func (r *SessionRepository) Acquire(ctx context.Context, sessionID string) (*store.ChatSession, func(), error) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil, ErrSessionNotFound
	}
	e := x.(*entry)

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	// sliding expiry
	r.cache.Set(sessionID, e, cache.DefaultExpiration)
	return e.session, func() { <-e.slot }, nil
}

func (r *SessionRepository) Has(sessionID string) bool {
	_, found := r.cache.Get(sessionID)
	return found
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
