package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock
}

func TestTokenBucket(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bucket := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		allowed, _, _ := bucket.take(start)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, remaining, full := bucket.take(start)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.Equal(t, start.Add(3*time.Second), full)

	allowed, _, _ = bucket.take(start.Add(1100 * time.Millisecond))
	assert.True(t, allowed, "one token refilled")
}

func TestLimiter_EndpointLimits(t *testing.T) {
	l, clock := newTestLimiter(t, DefaultConfig())

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("10.0.0.1", "/generate", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 20, info.Limit)
	}

	allowed, info := l.Allow("10.0.0.1", "/generate", "POST")
	assert.False(t, allowed)
	assert.Greater(t, info.RetryAfter, time.Duration(0))

	allowed, _ = l.Allow("10.0.0.2", "/generate", "POST")
	assert.True(t, allowed, "clients have separate buckets")

	clock.Advance(3*time.Minute + time.Second)
	allowed, _ = l.Allow("10.0.0.1", "/generate", "POST")
	assert.True(t, allowed, "20/hour refills one token every three minutes")
}

func TestLimiter_SpecialCases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Whitelist = map[string]bool{"127.0.0.1": true}
	cfg.Blacklist = map[string]bool{"6.6.6.6": true}
	l, _ := newTestLimiter(t, cfg)

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("127.0.0.1", "/generate", "POST")
		assert.True(t, allowed)
	}

	allowed, _ := l.Allow("6.6.6.6", "/health", "GET")
	assert.False(t, allowed)

	allowed, info := l.Allow("10.0.0.1", "/health", "GET")
	assert.True(t, allowed)
	assert.Zero(t, info.Limit)
	assert.Zero(t, l.Len(), "unlimited routes keep no buckets")
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false})
	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/generate", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, DefaultConfig())

	l.Allow("10.0.0.1", "/upload", "POST")
	l.Allow("10.0.0.2", "/status/x.pdf", "GET")
	require.Equal(t, 2, l.Len())

	clock.Advance(30 * time.Minute)
	l.Allow("10.0.0.2", "/status/x.pdf", "GET")
	clock.Advance(45 * time.Minute)
	l.Cleanup()

	assert.Equal(t, 1, l.Len())
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name      string
		path      string
		method    string
		wantPath  string
		wantNil   bool
		wantLimit int
	}{
		{name: "exact", path: "/generate", method: "POST", wantPath: "/generate", wantLimit: 20},
		{name: "exact beats prefix", path: "/generate/stream", method: "POST", wantPath: "/generate/stream", wantLimit: 20},
		{name: "prefix", path: "/download/proposal_rfp.pdf", method: "GET", wantPath: "/download/", wantLimit: 300},
		{name: "method mismatch", path: "/generate", method: "GET", wantNil: true},
		{name: "no match", path: "/other", method: "GET", wantNil: true},
		{name: "health", path: "/health", method: "GET", wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", "1.1.1.1, 2.2.2.2")
	t.Setenv("RATE_LIMIT_GENERATE_PER_HOUR", "5")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["1.1.1.1"])
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	assert.Equal(t, 5, MatchEndpoint("/generate", "POST", cfg.EndpointConfigs).Limit)
	assert.Equal(t, 5, MatchEndpoint("/generate/stream", "POST", cfg.EndpointConfigs).Limit)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
