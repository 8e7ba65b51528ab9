package factory

import (
	"context"
	"fmt"
	"strings"

	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/llm/canned"
	"einvoice-assistant-be/pkg/llm/gemini"
	"einvoice-assistant-be/pkg/llm/ollama"
	"einvoice-assistant-be/pkg/llm/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderCanned = "canned"
)

// Spec names a provider instance.
type Spec struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// ParseModel splits "provider:model" names as typed by users. A name without
// a known provider prefix keeps fallbackProvider.
func ParseModel(name, fallbackProvider string) (provider, model string) {
	if p, m, ok := strings.Cut(name, ":"); ok {
		switch strings.ToLower(p) {
		case ProviderOllama, ProviderOpenAI, ProviderGemini, ProviderCanned:
			return strings.ToLower(p), m
		}
	}
	if strings.EqualFold(name, ProviderCanned) {
		return ProviderCanned, ""
	}
	return fallbackProvider, name
}

func NewLLMProvider(ctx context.Context, spec Spec) (llm.LLMProvider, error) {
	switch spec.Provider {
	case ProviderOllama:
		baseURL := spec.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, spec.Model), nil
	case ProviderOpenAI:
		return openai.NewProvider(spec.APIKey, spec.BaseURL, spec.Model), nil
	case ProviderGemini:
		return gemini.NewProvider(ctx, spec.APIKey, spec.Model)
	case ProviderCanned, "":
		return canned.NewProvider()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", spec.Provider)
	}
}
