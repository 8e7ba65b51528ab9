package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   FailureReason
	}{
		{http.StatusUnauthorized, "", ReasonAuth},
		{http.StatusForbidden, "", ReasonAuth},
		{http.StatusTooManyRequests, "", ReasonQuota},
		{http.StatusGatewayTimeout, "", ReasonTimeout},
		{http.StatusBadRequest, "unknown field", ReasonMalformed},
		{http.StatusBadRequest, "Incorrect API key provided", ReasonAuth},
		{http.StatusInternalServerError, "rate limit reached", ReasonQuota},
		{http.StatusServiceUnavailable, "overloaded", ReasonUnavailable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.status, tt.body), func(t *testing.T) {
			err := FromStatus("test", tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, ReasonOf(err))
			assert.Contains(t, err.Error(), "test")
		})
	}
}

func TestFailDeadlineIsTimeout(t *testing.T) {
	err := Fail("test", ReasonUnavailable, fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.Equal(t, ReasonTimeout, ReasonOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, ReasonTimeout, ReasonOf(context.DeadlineExceeded))
	assert.Equal(t, ReasonUnavailable, ReasonOf(errors.New("boom")))
}

func TestFromErrorKeepsFailure(t *testing.T) {
	orig := Fail("a", ReasonQuota, errors.New("x"))
	assert.Same(t, orig, FromError("b", orig))
	assert.Equal(t, ReasonAuth, ReasonOf(FromError("b", errors.New("authentication failed"))))
}

func TestApply(t *testing.T) {
	o := Apply(Options{Temperature: 0.7, Model: "m"}, WithTemperature(0.2), WithMetadata(MetaTable, "invoices"), WithMaxTokens(10))
	assert.Equal(t, 0.2, o.Temperature)
	assert.Equal(t, "m", o.Model)
	assert.Equal(t, 10, o.MaxTokens)
	assert.Equal(t, "invoices", o.Metadata[MetaTable])
}
