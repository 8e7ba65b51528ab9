package factory

import (
	"context"
	"testing"

	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/llm/canned"
	"einvoice-assistant-be/pkg/llm/ollama"
	"einvoice-assistant-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name, fallback       string
		wantProvider, wantModel string
	}{
		{"gemini:gemini-2.0-flash", "ollama", "gemini", "gemini-2.0-flash"},
		{"OpenAI:gpt-4o-mini", "ollama", "openai", "gpt-4o-mini"},
		{"llama3:8b", "ollama", "ollama", "llama3:8b"},
		{"canned", "openai", "canned", ""},
		{"", "canned", "canned", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := ParseModel(tt.name, tt.fallback)
			assert.Equal(t, tt.wantProvider, p)
			assert.Equal(t, tt.wantModel, m)
		})
	}
}

func TestNewLLMProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewLLMProvider(ctx, Spec{Provider: ProviderOllama, Model: "llama3"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)
	assert.Equal(t, "http://localhost:11434", p.(*ollama.OllamaProvider).BaseURL)

	p, err = NewLLMProvider(ctx, Spec{Provider: ProviderOpenAI, Model: "gpt", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)

	p, err = NewLLMProvider(ctx, Spec{})
	require.NoError(t, err)
	assert.IsType(t, &canned.Provider{}, p)

	_, err = NewLLMProvider(ctx, Spec{Provider: ProviderGemini})
	require.Error(t, err)
	assert.Equal(t, llm.ReasonAuth, llm.ReasonOf(err))

	_, err = NewLLMProvider(ctx, Spec{Provider: "bard"})
	assert.Error(t, err)
}
