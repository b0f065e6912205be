package llm

import "sync"

// MetricsRegistry tracks all MetricsProvider instances for aggregated
// reporting. The factory registers every provider it builds.
type MetricsRegistry struct {
	mu        sync.RWMutex
	providers map[string]*MetricsProvider
}

var globalRegistry = &MetricsRegistry{
	providers: make(map[string]*MetricsProvider),
}

// RegisterMetricsProvider adds a provider to the global registry.
func RegisterMetricsProvider(p *MetricsProvider) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.providers[p.Name()] = p
}

// GetAllMetrics returns per-provider metrics snapshots.
func GetAllMetrics() map[string]interface{} {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make(map[string]interface{}, len(globalRegistry.providers))
	for name, p := range globalRegistry.providers {
		result[name] = p.Snapshot()
	}
	return result
}

// GetMetricsSummary returns aggregate counters across all providers.
func GetMetricsSummary() map[string]interface{} {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	var calls, errors, inputTokens, outputTokens int64
	var cost float64

	for _, p := range globalRegistry.providers {
		snap := p.Snapshot()
		calls += snap["total_calls"].(int64)
		errors += snap["total_errors"].(int64)
		inputTokens += snap["total_input_tokens"].(int64)
		outputTokens += snap["total_output_tokens"].(int64)
		cost += snap["estimated_cost_usd"].(float64)
	}

	return map[string]interface{}{
		"total_calls":         calls,
		"total_errors":        errors,
		"total_input_tokens":  inputTokens,
		"total_output_tokens": outputTokens,
		"estimated_cost_usd":  cost,
	}
}

// ResetAllMetrics zeroes every registered provider's counters.
func ResetAllMetrics() {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, p := range globalRegistry.providers {
		p.Reset()
	}
}
