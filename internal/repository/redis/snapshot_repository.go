package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"einvoice-assistant-be/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

const keyPrefix = "chat:session:"

// SnapshotRepository persists committed sessions as JSON so a restarted
// instance can pick a conversation up again. API keys are never written.
type SnapshotRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSnapshotRepository(client *goredis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{client: client, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SnapshotRepository) Save(ctx context.Context, s *store.ChatSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context, sessionID string) (*store.ChatSession, error) {
	data, err := r.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var s store.ChatSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &s, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, key(sessionID)).Err()
}
