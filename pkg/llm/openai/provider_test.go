package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"einvoice-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 0.3, req.Temperature)
		assert.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Dubai leads."}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("sk-test", srv.URL, "gpt-test")
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "q"},
	}, llm.WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, "Dubai leads.", reply)
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		status int
		body   string
		want   llm.FailureReason
	}{
		{name: "missing key", key: "", want: llm.ReasonAuth},
		{name: "bad key", key: "k", status: http.StatusUnauthorized, body: `{"error":{"message":"Incorrect API key"}}`, want: llm.ReasonAuth},
		{name: "quota", key: "k", status: http.StatusTooManyRequests, body: `{}`, want: llm.ReasonQuota},
		{name: "no choices", key: "k", status: http.StatusOK, body: `{"choices":[]}`, want: llm.ReasonMalformed},
		{name: "error payload", key: "k", status: http.StatusOK, body: `{"error":{"message":"Rate limit exceeded"}}`, want: llm.ReasonQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewProvider(tt.key, srv.URL, "m").Generate(context.Background(), "q")
			require.Error(t, err)
			assert.Equal(t, tt.want, llm.ReasonOf(err))
		})
	}
}
