package llm

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/proposal-builder/internal/cache"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL bounds how long a cached response is reused.
const DefaultCacheTTL = 24 * time.Hour

// CachedClient serves repeated prompts from a cache. Keys combine the
// request kind, the resolved model name and a hash of the prompt, so a
// model change never returns a stale answer. Cache failures are logged
// and the request goes to the inner client.
type CachedClient struct {
	inner  Client
	store  cache.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedClient wraps inner with store. A non-positive ttl uses DefaultCacheTTL.
func NewCachedClient(inner Client, store cache.Client, ttl time.Duration, logger zerolog.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{inner: inner, store: store, ttl: ttl, logger: logger}
}

// GenerateContent implements Client
func (c *CachedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.cached(ctx, "text", prompt, tier, c.inner.GenerateContent)
}

// GenerateJSON implements Client
func (c *CachedClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.cached(ctx, "json", prompt, tier, c.inner.GenerateJSON)
}

// GetModel implements Client
func (c *CachedClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close closes the inner client and the cache.
func (c *CachedClient) Close() error {
	return errors.Join(c.inner.Close(), c.store.Close())
}

type generateFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)

func (c *CachedClient) cached(ctx context.Context, kind, prompt string, tier ModelTier, generate generateFunc) (string, error) {
	key := cache.HashKey(prompt, "llm", kind, c.inner.GetModel(tier))

	value, err := c.store.Get(ctx, key)
	if err == nil {
		c.logger.Debug().Str("key", key).Msg("LLM cache hit")
		return string(value), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn().Err(err).Msg("LLM cache read failed")
	}

	text, err := generate(ctx, prompt, tier)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("LLM cache write failed")
	}
	return text, nil
}
