package nats

import (
	"testing"

	"einvoice-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.chat.turn.committed", Subject(events.TypeTurnCommitted))
	assert.Equal(t, "events.>", Subject(">"))
}
