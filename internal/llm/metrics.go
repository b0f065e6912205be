package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// MetricsProvider wraps an LLM provider with call counting, latency and
// cost tracking. Every provider built by the factory is wrapped.
type MetricsProvider struct {
	provider Provider
	name     string
	log      zerolog.Logger

	// Atomic counters
	totalCalls        int64
	totalErrors       int64
	totalInputTokens  int64
	totalOutputTokens int64

	// Protected by mutex
	mu               sync.RWMutex
	totalLatency     time.Duration
	minLatency       time.Duration
	maxLatency       time.Duration
	estimatedCostUSD float64
}

// NewMetricsProvider wraps a provider with metrics collection.
func NewMetricsProvider(provider Provider, log zerolog.Logger) *MetricsProvider {
	return &MetricsProvider{
		provider:   provider,
		name:       provider.Name(),
		log:        log.With().Str("provider", provider.Name()).Logger(),
		minLatency: time.Hour, // replaced on first call
	}
}

// Complete implements Provider with metrics.
func (m *MetricsProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	start := time.Now()

	resp, err := m.provider.Complete(ctx, req)
	latency := time.Since(start)

	atomic.AddInt64(&m.totalCalls, 1)
	if err != nil {
		atomic.AddInt64(&m.totalErrors, 1)
		m.log.Debug().Err(err).Dur("latency", latency).Msg("completion failed")
		return nil, err
	}

	atomic.AddInt64(&m.totalInputTokens, int64(resp.InputTokens))
	atomic.AddInt64(&m.totalOutputTokens, int64(resp.OutputTokens))

	m.mu.Lock()
	m.totalLatency += latency
	if latency < m.minLatency {
		m.minLatency = latency
	}
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	m.estimatedCostUSD += Cost(m.name, resp.InputTokens, resp.OutputTokens)
	m.mu.Unlock()

	m.log.Debug().
		Dur("latency", latency).
		Dur("ttft", resp.TTFT).
		Int("output_tokens", resp.OutputTokens).
		Msg("completion ok")

	return resp, nil
}

// Name returns the wrapped provider's identifier.
func (m *MetricsProvider) Name() string {
	return m.provider.Name()
}

// Available returns the wrapped provider's availability.
func (m *MetricsProvider) Available() bool {
	return m.provider.Available()
}

// Snapshot returns the current metrics as a flat map.
func (m *MetricsProvider) Snapshot() map[string]interface{} {
	calls := atomic.LoadInt64(&m.totalCalls)

	m.mu.RLock()
	defer m.mu.RUnlock()

	avgLatency := time.Duration(0)
	if calls > 0 {
		avgLatency = m.totalLatency / time.Duration(calls)
	}
	minLatency := m.minLatency
	if minLatency == time.Hour {
		minLatency = 0
	}

	return map[string]interface{}{
		"total_calls":         calls,
		"total_errors":        atomic.LoadInt64(&m.totalErrors),
		"total_input_tokens":  atomic.LoadInt64(&m.totalInputTokens),
		"total_output_tokens": atomic.LoadInt64(&m.totalOutputTokens),
		"avg_latency_ms":      avgLatency.Milliseconds(),
		"min_latency_ms":      minLatency.Milliseconds(),
		"max_latency_ms":      m.maxLatency.Milliseconds(),
		"estimated_cost_usd":  m.estimatedCostUSD,
	}
}

// Reset zeroes all counters.
func (m *MetricsProvider) Reset() {
	atomic.StoreInt64(&m.totalCalls, 0)
	atomic.StoreInt64(&m.totalErrors, 0)
	atomic.StoreInt64(&m.totalInputTokens, 0)
	atomic.StoreInt64(&m.totalOutputTokens, 0)

	m.mu.Lock()
	m.totalLatency = 0
	m.minLatency = time.Hour
	m.maxLatency = 0
	m.estimatedCostUSD = 0
	m.mu.Unlock()
}
