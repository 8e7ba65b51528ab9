package bootstrap

import (
	"context"
	"fmt"

	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/ai/answer"
	"einvoice-assistant-be/pkg/ai/classifier"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/ai/router"
	"einvoice-assistant-be/pkg/ai/scope"
	"einvoice-assistant-be/pkg/ai/state"
	"einvoice-assistant-be/pkg/datastore"
	"einvoice-assistant-be/pkg/llm/factory"
	"einvoice-assistant-be/pkg/taxonomy"
	"einvoice-assistant-be/pkg/viz"
)

// Engine is the routing and answering core shared by the HTTP server and the
// console client.
type Engine struct {
	Taxonomy *taxonomy.Taxonomy
	Data     *datastore.Store
	State    *state.Manager
	Resolver *router.Resolver
	Pipeline *pipeline.Pipeline
}

// LoadTaxonomy reads the configured taxonomy file, or the built-in one.
func LoadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg.Data.TaxonomyPath != "" {
		return taxonomy.Load(cfg.Data.TaxonomyPath)
	}
	return taxonomy.Default()
}

// ProviderSpecs lists the per-provider defaults from configuration.
func ProviderSpecs(cfg *config.Config) []factory.Spec {
	specs := []factory.Spec{
		{Provider: factory.ProviderOllama, BaseURL: cfg.Ai.OllamaBaseURL},
		{Provider: factory.ProviderOpenAI, BaseURL: cfg.Ai.OpenAIBaseURL, APIKey: cfg.Ai.OpenAIAPIKey},
		{Provider: factory.ProviderGemini, APIKey: cfg.Ai.GeminiAPIKey},
		{Provider: factory.ProviderCanned},
	}
	for i := range specs {
		if specs[i].Provider == cfg.Ai.LLMProvider {
			specs[i].Model = cfg.Ai.LLMModel
		}
	}
	return specs
}

// NewEngine loads the taxonomy and data and wires the turn pipeline. A broken
// taxonomy or data store is fatal to startup.
func NewEngine(ctx context.Context, cfg *config.Config, l logger.ILogger) (*Engine, error) {
	tx, err := LoadTaxonomy(cfg)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	data, err := datastore.Open(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	if err := data.Load(ctx, tx, cfg.Data.Dir, cfg.Data.SyntheticSeed); err != nil {
		data.Close()
		return nil, fmt.Errorf("load data: %w", err)
	}

	cls := classifier.New(tx, classifier.Config{
		FollowUpConfidence: cfg.Routing.FollowUpConfidence,
		FollowUpBoost:      cfg.Routing.FollowUpBoost,
	})
	resolver := router.NewResolver(tx, cls, router.Config{
		Threshold:   cfg.Routing.Threshold,
		Margin:      cfg.Routing.Margin,
		TopN:        cfg.Routing.TopN,
		MaxAttempts: cfg.Routing.MaxAttempts,
		TTL:         cfg.Routing.ClarificationTTL,
	})

	sm := state.NewManager(l)
	orchestrator := answer.NewOrchestrator(tx,
		answer.NewFactorySource(cfg.Ai.LLMProvider, ProviderSpecs(cfg)...),
		data,
		answer.Config{
			Timeout:       cfg.Ai.Timeout,
			HistoryWindow: cfg.Ai.HistoryWindow,
			SampleRows:    cfg.Ai.SampleRows,
			MaxTokens:     cfg.Ai.MaxTokens,
		}, l)

	p := pipeline.New(tx, resolver, scope.NewEnforcer(tx), orchestrator, viz.NewSelector(tx, data, l), sm, l)

	l.Info("BOOTSTRAP", "Engine ready", map[string]interface{}{
		"tables":   len(tx.Tables()),
		"domains":  len(tx.Domains()),
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})
	return &Engine{Taxonomy: tx, Data: data, State: sm, Resolver: resolver, Pipeline: p}, nil
}

func (e *Engine) Close() error {
	return e.Data.Close()
}
