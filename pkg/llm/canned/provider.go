// Package canned answers from a fixed table of texts keyed by table and
// domain. It needs no network and always returns the same text for the same
// route, which makes it the offline default.
package canned

import (
	"context"
	_ "embed"
	"fmt"

	"einvoice-assistant-be/pkg/llm"

	"gopkg.in/yaml.v3"
)

//go:embed answers.yaml
var answersDocument []byte

type localized struct {
	EN string `yaml:"en"`
	AR string `yaml:"ar"`
}

func (l localized) in(language string) string {
	if language == "ar" && l.AR != "" {
		return l.AR
	}
	return l.EN
}

type document struct {
	Default localized            `yaml:"default"`
	Answers map[string]localized `yaml:"answers"`
}

type Provider struct {
	doc document
}

var _ llm.LLMProvider = &Provider{}

func NewProvider() (*Provider, error) {
	var doc document
	if err := yaml.Unmarshal(answersDocument, &doc); err != nil {
		return nil, fmt.Errorf("decode canned answers: %w", err)
	}
	return &Provider{doc: doc}, nil
}

// Key is the lookup key for a route.
func Key(table, domain string) string {
	return table + "/" + domain
}

func (p *Provider) Chat(ctx context.Context, _ []llm.Message, options ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", llm.Fail("canned", llm.ReasonTimeout, err)
	}
	opts := llm.Apply(llm.Options{}, options...)
	meta := opts.Metadata
	language := meta[llm.MetaLanguage]
	if a, ok := p.doc.Answers[Key(meta[llm.MetaTable], meta[llm.MetaDomain])]; ok {
		return a.in(language), nil
	}
	return p.doc.Default.in(language), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
