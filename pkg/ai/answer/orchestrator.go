// Package answer turns a routed question into an assistant turn: it builds
// the prompt, calls the generation backend under a deadline, checks the reply
// language and degrades to a localized apology when the backend fails.
package answer

import (
	"context"
	"time"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/ai/response"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const module = "answer"

type Config struct {
	Timeout       time.Duration
	HistoryWindow int
	SampleRows    int
	MaxTokens     int
}

func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second, HistoryWindow: 6, SampleRows: 5, MaxTokens: 1000}
}

// Sampler returns the first rows of a table.
type Sampler interface {
	Sample(ctx context.Context, table string, n int) ([]map[string]any, error)
}

type Orchestrator struct {
	tx        *taxonomy.Taxonomy
	providers ProviderSource
	data      Sampler
	cfg       Config
	logger    logger.ILogger
}

func NewOrchestrator(tx *taxonomy.Taxonomy, providers ProviderSource, data Sampler, cfg Config, l logger.ILogger) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Orchestrator{tx: tx, providers: providers, data: data, cfg: cfg, logger: l}
}

// Answer produces the assistant turn for query routed to c. Backend failures
// yield a fallback turn and a nil error. The error is non-nil only when ctx
// itself was cancelled, in which case the turn must not be committed.
func (o *Orchestrator) Answer(ctx context.Context, query string, c store.Candidate, s *store.ChatSession) (store.ChatTurn, error) {
	code := s.Language.OrDefault()
	route := c.Route()

	reply, err := o.generate(ctx, query, c, s, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return store.ChatTurn{}, ctxErr
		}
		reason := llm.ReasonOf(err)
		o.logger.Warn(module, "Generation failed, answering with fallback", map[string]interface{}{
			"session_id": s.ID,
			"table":      c.TableID,
			"domain":     c.DomainID,
			"reason":     reason,
			"error":      err.Error(),
		})
		return store.ChatTurn{
			Role:     store.RoleAssistant,
			Kind:     store.KindFallback,
			Text:     response.Fallback(code, reason),
			Language: code,
		}, nil
	}

	return store.ChatTurn{
		Role:     store.RoleAssistant,
		Kind:     store.KindAnswer,
		Text:     reply,
		Language: code,
		Route:    &route,
	}, nil
}

func (o *Orchestrator) generate(ctx context.Context, query string, c store.Candidate, s *store.ChatSession, code lang.Code) (string, error) {
	provider, err := o.providers.Provider(ctx, s.ModelConfig)
	if err != nil {
		return "", err
	}

	messages := o.prompt(ctx, query, c, s, code)
	opts := []llm.Option{
		llm.WithTemperature(s.ModelConfig.Temperature),
		llm.WithMaxTokens(o.cfg.MaxTokens),
		llm.WithMetadata(llm.MetaTable, c.TableID),
		llm.WithMetadata(llm.MetaDomain, c.DomainID),
		llm.WithMetadata(llm.MetaLanguage, string(code)),
	}

	reply, err := o.call(ctx, provider, messages, opts, 1)
	if err != nil {
		return "", err
	}
	if lang.Matches(reply, code) {
		return reply, nil
	}

	o.logger.Info(module, "Reply in wrong language, retrying", map[string]interface{}{"session_id": s.ID, "language": code})
	retry := append(messages,
		llm.Message{Role: llm.RoleAssistant, Content: reply},
		llm.Message{Role: llm.RoleUser, Content: response.RetryLanguage(code)},
	)
	second, err := o.call(ctx, provider, retry, opts, 2)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		o.logger.Warn(module, "Language retry failed, keeping first reply", map[string]interface{}{"session_id": s.ID, "error": err.Error()})
		return reply, nil
	}
	if !lang.Matches(second, code) {
		o.logger.Warn(module, "Reply still in wrong language, accepting it", map[string]interface{}{"session_id": s.ID, "language": code})
	}
	return second, nil
}

// call runs one generation under its own deadline.
func (o *Orchestrator) call(ctx context.Context, p llm.LLMProvider, messages []llm.Message, opts []llm.Option, attempt int) (string, error) {
	ctx, span := otel.Tracer(module).Start(ctx, "answer.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("attempt", attempt), attribute.Int("messages", len(messages)))

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := p.Chat(ctx, messages, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(llm.ReasonOf(err)))
		return "", err
	}
	if reply == "" {
		err := llm.Fail("answer", llm.ReasonMalformed, nil)
		span.SetStatus(codes.Error, string(llm.ReasonMalformed))
		return "", err
	}
	o.logger.Debug(module, "Generation finished", map[string]interface{}{
		"attempt":     attempt,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return reply, nil
}

func (o *Orchestrator) prompt(ctx context.Context, query string, c store.Candidate, s *store.ChatSession, code lang.Code) []llm.Message {
	b := &promptBuilder{
		tx:      o.tx,
		code:    code,
		history: History(s.Turns, o.cfg.HistoryWindow),
		query:   query,
	}
	if t, ok := o.tx.Table(c.TableID); ok {
		b.table = t
	}
	if d, ok := o.tx.Domain(c.DomainID); ok {
		b.domain = d
	}

	if o.data != nil && o.cfg.SampleRows > 0 {
		rows, err := o.data.Sample(ctx, c.TableID, o.cfg.SampleRows)
		if err != nil {
			o.logger.Warn(module, "Data sample unavailable", map[string]interface{}{"table": c.TableID, "error": err.Error()})
		}
		b.sample = rows
	}
	return b.build()
}
