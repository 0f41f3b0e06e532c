package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// RetryingClient wraps a Client and retries transient provider failures
// with exponential backoff.
type RetryingClient struct {
	inner  Client
	config *RetryConfig
	logger zerolog.Logger
}

// NewRetryingClient wraps inner. A nil config uses DefaultRetryConfig.
func NewRetryingClient(inner Client, config *RetryConfig, logger zerolog.Logger) *RetryingClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryingClient{inner: inner, config: config, logger: logger}
}

// GenerateContent implements Client
func (c *RetryingClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.do(ctx, func() (string, error) {
		return c.inner.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON implements Client
func (c *RetryingClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.do(ctx, func() (string, error) {
		return c.inner.GenerateJSON(ctx, prompt, tier)
	})
}

// GetModel implements Client
func (c *RetryingClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close implements Client
func (c *RetryingClient) Close() error {
	return c.inner.Close()
}

func (c *RetryingClient) do(ctx context.Context, call func() (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := call()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", err
		}

		// Don't wait after last attempt
		if attempt == c.config.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, c.config)
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", c.config.MaxRetries).
			Dur("backoff", backoff).
			Msg("LLM request failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	return "", fmt.Errorf("request failed after %d retries: %w", c.config.MaxRetries, lastErr)
}

// shouldRetry determines if an HTTP status is retryable
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isRetryable classifies provider errors. Errors that carry no status code
// (connection resets, timeouts inside the transport) are treated as transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return shouldRetry(oaiErr.StatusCode)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return shouldRetry(gErr.Code)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return shouldRetry(statusErr.StatusCode)
	}
	return true
}

// StatusError carries an HTTP status from a provider that does not expose its own error type.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// calculateBackoff calculates exponential backoff duration
func calculateBackoff(attempt int, config *RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}
