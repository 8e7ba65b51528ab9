package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnCommittedEnvelope(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := TurnCommitted{
		SessionID: "s1",
		Outcome:   "answered",
		TableID:   "invoices",
		DomainID:  "revenue_analysis",
		Via:       "classifier",
		Language:  "en",
		ChartKind: "time_series",
		At:        at,
	}

	data, err := Marshal(e)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, TypeTurnCommitted, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "invoices", got.Payload()["table"])
	assert.Equal(t, "time_series", got.Payload()["chart"])
}

func TestTurnCommittedWithoutRoute(t *testing.T) {
	p := TurnCommitted{SessionID: "s1", Outcome: "no_match", Language: "ar"}.Payload()
	assert.NotContains(t, p, "table")
	assert.NotContains(t, p, "chart")
	assert.Equal(t, "no_match", p["outcome"])
}

func TestUnmarshalRejectsUntyped(t *testing.T) {
	_, err := Unmarshal([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}
