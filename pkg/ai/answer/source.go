package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"einvoice-assistant-be/pkg/llm"
	"einvoice-assistant-be/pkg/llm/factory"
	"einvoice-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ProviderTTL is how long an unused provider stays cached.
const ProviderTTL = 30 * time.Minute

// ProviderSource hands out the generation backend for a session's model
// configuration.
type ProviderSource interface {
	Provider(ctx context.Context, cfg store.ModelConfig) (llm.LLMProvider, error)
}

// FactorySource builds providers through the factory and reuses them per
// (provider, model, key) until they sit unused for ProviderTTL.
type FactorySource struct {
	fallback string
	specs    map[string]factory.Spec

	mu    sync.Mutex
	cache *cache.Cache
}

// NewFactorySource takes per-provider defaults (base URL, model, key) and the
// provider used when a model name carries no provider prefix.
func NewFactorySource(fallback string, specs ...factory.Spec) *FactorySource {
	m := make(map[string]factory.Spec, len(specs))
	for _, s := range specs {
		m[s.Provider] = s
	}
	return &FactorySource{
		fallback: fallback,
		specs:    m,
		cache:    cache.New(ProviderTTL, ProviderTTL/2),
	}
}

func (f *FactorySource) Provider(ctx context.Context, cfg store.ModelConfig) (llm.LLMProvider, error) {
	spec := f.resolve(cfg)
	key := cacheKey(spec)

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.cache.Get(key); ok {
		// refresh the expiry on use
		f.cache.SetDefault(key, p)
		return p.(llm.LLMProvider), nil
	}
	p, err := factory.NewLLMProvider(ctx, spec)
	if err != nil {
		return nil, err
	}
	f.cache.SetDefault(key, p)
	return p, nil
}

// Cached returns the number of live providers.
func (f *FactorySource) Cached() int {
	return f.cache.ItemCount()
}

func (f *FactorySource) resolve(cfg store.ModelConfig) factory.Spec {
	name, model := factory.ParseModel(cfg.ModelName, f.fallback)
	spec, ok := f.specs[name]
	if !ok {
		spec = factory.Spec{Provider: name}
	}
	if model != "" {
		spec.Model = model
	}
	if cfg.APIKey != "" {
		spec.APIKey = cfg.APIKey
	}
	return spec
}

// cacheKey hashes the spec so API keys are not kept as map keys.
func cacheKey(spec factory.Spec) string {
	sum := sha256.Sum256([]byte(spec.Provider + "\x00" + spec.Model + "\x00" + spec.BaseURL + "\x00" + spec.APIKey))
	return hex.EncodeToString(sum[:])
}
