package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/proposal-builder/internal/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

// MockLLMClient is a mock implementation of Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	calls               int
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.calls++
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	m.calls++
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockLLMClient) GetModel(tier ModelTier) string {
	return "mock-" + string(tier)
}

func (m *MockLLMClient) Close() error {
	return nil
}

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultOpenAIConfig(), "")
	assert.Error(t, err)

	_, err = NewClient(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestNewClient_OpenAI(t *testing.T) {
	config := DefaultOpenAIConfig()
	config.BaseURL = "https://api.groq.com/openai/v1"

	client, err := NewClient(context.Background(), config, "test-key")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
	assert.Equal(t, "gpt-4o", client.GetModel(TierAdvanced))
	assert.NoError(t, client.Close())
}

func TestRetryingClient_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	mock := &MockLLMClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			attempts++
			if attempts < 3 {
				return "", &StatusError{StatusCode: 503, Message: "overloaded"}
			}
			return `{"ok":true}`, nil
		},
	}

	client := NewRetryingClient(mock, fastRetry(), zerolog.Nop())
	got, err := client.GenerateJSON(context.Background(), "p", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)
	assert.Equal(t, 3, attempts)
}

func TestRetryingClient_GivesUp(t *testing.T) {
	mock := &MockLLMClient{
		GenerateContentFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return "", errors.New("connection reset")
		},
	}

	client := NewRetryingClient(mock, fastRetry(), zerolog.Nop())
	_, err := client.GenerateContent(context.Background(), "p", TierAdvanced)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, mock.calls)
}

func TestRetryingClient_NonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad request status", &StatusError{StatusCode: 400, Message: "bad"}},
		{"google not found", &googleapi.Error{Code: 404}},
		{"empty response", ErrEmptyResponse},
		{"canceled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockLLMClient{
				GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
					return "", tt.err
				},
			}
			client := NewRetryingClient(mock, fastRetry(), zerolog.Nop())
			_, err := client.GenerateJSON(context.Background(), "p", TierStandard)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, mock.calls)
		})
	}
}

func TestRetryingClient_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &MockLLMClient{}
	client := NewRetryingClient(mock, fastRetry(), zerolog.Nop())
	_, err := client.GenerateContent(ctx, "p", TierLite)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.calls)
}

func TestCalculateBackoff(t *testing.T) {
	config := &RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, calculateBackoff(0, config))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, config))
	assert.Equal(t, 4*time.Second, calculateBackoff(2, config))
	assert.Equal(t, 5*time.Second, calculateBackoff(3, config))
}

func TestCachedClient(t *testing.T) {
	store := cache.NewMemoryClient(10)
	mock := &MockLLMClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return `{"prompt":"` + prompt + `"}`, nil
		},
	}
	client := NewCachedClient(mock, store, time.Minute, zerolog.Nop())
	defer func() { _ = client.Close() }()
	ctx := context.Background()

	first, err := client.GenerateJSON(ctx, "a", TierStandard)
	require.NoError(t, err)
	second, err := client.GenerateJSON(ctx, "a", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.calls)

	_, err = client.GenerateJSON(ctx, "b", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.calls)

	// A text request with the same prompt is a different entry
	_, err = client.GenerateContent(ctx, "a", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, 3, mock.calls)
}

func TestCachedClient_ErrorsAreNotCached(t *testing.T) {
	store := cache.NewMemoryClient(10)
	defer func() { _ = store.Close() }()

	fail := true
	mock := &MockLLMClient{
		GenerateContentFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			if fail {
				return "", errors.New("boom")
			}
			return "ok", nil
		},
	}
	client := NewCachedClient(mock, store, 0, zerolog.Nop())

	_, err := client.GenerateContent(context.Background(), "p", TierAdvanced)
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())

	fail = false
	got, err := client.GenerateContent(context.Background(), "p", TierAdvanced)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
