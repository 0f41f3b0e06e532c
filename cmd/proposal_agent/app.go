package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/proposal-builder/internal/cache"
	"github.com/jonathan/proposal-builder/internal/config"
	"github.com/jonathan/proposal-builder/internal/llm"
	"github.com/jonathan/proposal-builder/internal/observability"
	"github.com/jonathan/proposal-builder/internal/pipeline"
	"github.com/jonathan/proposal-builder/internal/pricing"
	"github.com/jonathan/proposal-builder/internal/rendering"
)

// memoryCacheEntries bounds the in-process response cache.
const memoryCacheEntries = 512

// envDefaults returns the configuration taken from environment variables.
// Flags and the config file take priority over these.
func envDefaults() config.Config {
	return config.Config{
		Font:        os.Getenv("PROPOSAL_FONT"),
		Logo:        envOr("PROPOSAL_LOGO", "logo.png"),
		Chart:       envOr("PROPOSAL_CHART", "chart.png"),
		Profile:     os.Getenv("COMPANY_PROFILE"),
		Provider:    envOr("LLM_PROVIDER", string(llm.ProviderGemini)),
		Model:       os.Getenv("LLM_MODEL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfigFile loads and validates the JSON config at path. An empty path
// yields an empty Config.
func loadConfigFile(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

// newLogger builds the CLI logger. Verbose lowers the level to debug unless
// LOG_LEVEL says otherwise.
func newLogger(verbose bool) zerolog.Logger {
	cfg := observability.LogConfigFromEnv("proposal_agent")
	if cfg.Level == "" {
		cfg.Level = "warn"
		if verbose {
			cfg.Level = "debug"
		}
	}
	return observability.NewLogger(cfg)
}

// apiKeyFor returns explicit, or the provider's API key environment variable.
func apiKeyFor(provider llm.Provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if provider == llm.ProviderOpenAI {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv("GEMINI_API_KEY")
}

// llmConfig resolves the provider, model override and endpoint.
func llmConfig(cfg config.Config) *llm.Config {
	llmCfg := llm.ConfigForProvider(cfg.Provider)
	if cfg.Model != "" {
		llmCfg = llmCfg.WithAllModels(cfg.Model)
	}
	if llmCfg.Provider == llm.ProviderOpenAI {
		llmCfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return llmCfg
}

// newLLMClient builds the model client: provider client, retries, then a
// response cache in Redis or memory. Without an API key it returns nil and
// every model stage takes its fallback path.
func newLLMClient(ctx context.Context, cfg config.Config, logger zerolog.Logger) (llm.Client, error) {
	llmCfg := llmConfig(cfg)
	apiKey := apiKeyFor(llmCfg.Provider, cfg.APIKey)
	if apiKey == "" {
		logger.Warn().Str("provider", string(llmCfg.Provider)).
			Msg("No API key configured, proposals will use fallback content")
		return nil, nil
	}

	inner, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var client llm.Client = llm.NewRetryingClient(inner, nil, logger)
	return llm.NewCachedClient(client, newCache(ctx, cfg.RedisAddr, logger), 0, logger), nil
}

// newCache connects to Redis when addr is set and falls back to memory.
func newCache(ctx context.Context, addr string, logger zerolog.Logger) cache.Client {
	if addr != "" {
		redisCache, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err == nil {
			return redisCache
		}
		logger.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, caching responses in memory")
	}
	return cache.NewMemoryClient(memoryCacheEntries)
}

// newEstimator applies the configured rate and productivity over the defaults.
func newEstimator(cfg config.Config) *pricing.Estimator {
	estimator := pricing.NewEstimator()
	if cfg.RatePerHour > 0 {
		estimator.RatePerHour = cfg.RatePerHour
	}
	if cfg.ProductivityFactor > 0 {
		estimator.ProductivityFactor = cfg.ProductivityFactor
	}
	return estimator
}

// newOrchestrator wires the pipeline for cfg.
func newOrchestrator(cfg config.Config, client llm.Client, logger zerolog.Logger) (*pipeline.Orchestrator, error) {
	profile, err := config.LoadCompanyProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Client:    client,
		Profile:   profile,
		Estimator: newEstimator(cfg),
		Workers:   cfg.Workers,
		Renderer: rendering.NewRenderer(rendering.Options{
			FontPath:  cfg.Font,
			LogoPath:  cfg.Logo,
			ChartPath: cfg.Chart,
		}),
		Logger: &logger,
	}), nil
}

// defaultOutputPath names the proposal after its input: rfp.pdf -> proposal_rfp.pdf.
func defaultOutputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
	return filepath.Join(filepath.Dir(input), "proposal_"+base)
}
