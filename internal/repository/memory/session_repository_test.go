package memory

import (
	"context"
	"testing"
	"time"

	"einvoice-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndAcquire(t *testing.T) {
	r := NewSessionRepository(time.Minute, time.Minute)
	s := &store.ChatSession{ID: "s1"}
	require.NoError(t, r.Add(s))
	assert.ErrorIs(t, r.Add(&store.ChatSession{ID: "s1"}), ErrSessionExists)

	got, release, err := r.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	assert.Same(t, s, got)
	release()

	_, _, err = r.Acquire(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAcquireIsExclusive(t *testing.T) {
	r := NewSessionRepository(time.Minute, time.Minute)
	require.NoError(t, r.Add(&store.ChatSession{ID: "s1"}))

	_, release, err := r.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = r.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		_, rel, err := r.Acquire(context.Background(), "s1")
		if err == nil {
			rel()
		}
		close(acquired)
	}()

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after release")
	}
}

func TestDelete(t *testing.T) {
	r := NewSessionRepository(time.Minute, time.Minute)
	require.NoError(t, r.Add(&store.ChatSession{ID: "s1"}))
	assert.True(t, r.Has("s1"))
	assert.Equal(t, 1, r.Count())

	r.Delete("s1")
	assert.False(t, r.Has("s1"))
}
