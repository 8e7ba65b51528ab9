package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// TypeTurnCommitted is emitted once per committed chat turn.
const TypeTurnCommitted = "chat.turn.committed"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.turn.committed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// envelope is the wire form shared by the in-process bus and NATS, so the
// type and time survive the hop.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Marshal encodes e with its type and timestamp.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Data: e.Payload()})
}

// Unmarshal decodes an envelope written by Marshal.
func Unmarshal(data []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event has no type")
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// TurnCommitted describes a committed turn without its text.
type TurnCommitted struct {
	SessionID  string
	Outcome    string
	TableID    string
	DomainID   string
	Via        string
	Language   string
	ChartKind  string
	DurationMs int64
	At         time.Time
}

func (t TurnCommitted) EventType() string { return TypeTurnCommitted }

func (t TurnCommitted) Timestamp() time.Time { return t.At }

func (t TurnCommitted) Payload() map[string]interface{} {
	data := map[string]interface{}{
		"session_id":  t.SessionID,
		"outcome":     t.Outcome,
		"language":    t.Language,
		"duration_ms": t.DurationMs,
	}
	if t.TableID != "" {
		data["table"] = t.TableID
		data["domain"] = t.DomainID
		data["via"] = t.Via
	}
	if t.ChartKind != "" {
		data["chart"] = t.ChartKind
	}
	return data
}
