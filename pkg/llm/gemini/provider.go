// Package gemini adapts the Google GenAI SDK to llm.LLMProvider.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"einvoice-assistant-be/pkg/llm"

	"google.golang.org/genai"
)

const (
	providerName = "gemini"
	DefaultModel = "gemini-2.0-flash"
)

type Provider struct {
	client *genai.Client
	model  string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, llm.Fail(providerName, llm.ReasonAuth, fmt.Errorf("missing api key"))
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, llm.Fail(providerName, llm.ReasonUnavailable, fmt.Errorf("failed to create GenAI client: %w", err))
	}
	return &Provider{client: client, model: model}, nil
}

// Chat maps system messages to the system instruction and the rest to
// user/model contents.
func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7, MaxTokens: 1000}, options...)

	var system []string
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleAssistant, "model":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, opts.Model, contents, config)
	if err != nil {
		return "", classify(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", llm.Fail(providerName, llm.ReasonMalformed, fmt.Errorf("empty response"))
	}
	return text, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.FromStatus(providerName, apiErr.Code, []byte(apiErr.Message))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.Fail(providerName, llm.ReasonTimeout, err)
	}
	return llm.FromError(providerName, fmt.Errorf("GenAI generate failed: %w", err))
}
