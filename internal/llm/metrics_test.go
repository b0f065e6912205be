package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	result *Completion
	err    error
}

func (s *stubProvider) Complete(context.Context, *CompletionRequest) (*Completion, error) {
	return s.result, s.err
}
func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return true }

func TestMetricsProviderCountsCallsAndTokens(t *testing.T) {
	stub := &stubProvider{name: "openai", result: &Completion{InputTokens: 100, OutputTokens: 50}}
	m := NewMetricsProvider(stub, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := m.Complete(context.Background(), &CompletionRequest{})
		require.NoError(t, err)
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap["total_calls"])
	assert.Equal(t, int64(0), snap["total_errors"])
	assert.Equal(t, int64(300), snap["total_input_tokens"])
	assert.Equal(t, int64(150), snap["total_output_tokens"])
	assert.InDelta(t, 3*Cost("openai", 100, 50), snap["estimated_cost_usd"].(float64), 1e-9)
}

func TestMetricsProviderCountsErrors(t *testing.T) {
	stub := &stubProvider{name: "grok", err: errors.New("boom")}
	m := NewMetricsProvider(stub, zerolog.Nop())

	_, err := m.Complete(context.Background(), &CompletionRequest{})
	assert.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap["total_calls"])
	assert.Equal(t, int64(1), snap["total_errors"])
}

func TestMetricsProviderReset(t *testing.T) {
	stub := &stubProvider{name: "gemini", result: &Completion{InputTokens: 10, OutputTokens: 10}}
	m := NewMetricsProvider(stub, zerolog.Nop())

	_, _ = m.Complete(context.Background(), &CompletionRequest{})
	m.Reset()

	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap["total_calls"])
	assert.Equal(t, int64(0), snap["total_input_tokens"])
	assert.Zero(t, snap["estimated_cost_usd"].(float64))
	assert.Equal(t, int64(0), snap["min_latency_ms"].(int64))
}

func TestRegistryAggregatesAcrossProviders(t *testing.T) {
	a := NewMetricsProvider(&stubProvider{name: "reg-test-a", result: &Completion{InputTokens: 5, OutputTokens: 5}}, zerolog.Nop())
	b := NewMetricsProvider(&stubProvider{name: "reg-test-b", result: &Completion{InputTokens: 7, OutputTokens: 3}}, zerolog.Nop())
	RegisterMetricsProvider(a)
	RegisterMetricsProvider(b)
	defer ResetAllMetrics()

	_, _ = a.Complete(context.Background(), &CompletionRequest{})
	_, _ = b.Complete(context.Background(), &CompletionRequest{})

	all := GetAllMetrics()
	assert.Contains(t, all, "reg-test-a")
	assert.Contains(t, all, "reg-test-b")

	summary := GetMetricsSummary()
	assert.GreaterOrEqual(t, summary["total_calls"].(int64), int64(2))
	assert.GreaterOrEqual(t, summary["total_input_tokens"].(int64), int64(12))
}

func TestFactoryUnknownBackend(t *testing.T) {
	_, err := NewProviderByName("mystery", nil, zerolog.Nop())

	var unknownErr *UnknownModelError
	require.ErrorAs(t, err, &unknownErr)
}

func TestFactoryBuildsAndWrapsKnownBackends(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini", "grok", "groq", "deepseek", "openrouter", "ollama"} {
		p, err := NewProviderByName(name, &ProviderConfig{APIKey: "k"}, zerolog.Nop())
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
		_, isWrapped := p.(*MetricsProvider)
		assert.True(t, isWrapped, "%s should carry metrics", name)
	}
	ResetAllMetrics()
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	assert.Equal(t, "gsk-test", APIKeyFromEnv("groq"))
	assert.Empty(t, APIKeyFromEnv("ollama"))
}
