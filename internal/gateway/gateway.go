// Package gateway is the single point of dispatch for every higher-level
// feature. It maps opaque logical model identifiers to a backend adapter
// plus a backend-native model name; no other component is aware of
// adapter kinds.
package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// ModelMapping pairs an adapter kind with that backend's native model name.
type ModelMapping struct {
	AdapterKind string
	NativeModel string
}

// modelTable is the static table mapping every supported logical model
// identifier to its adapter. This is the single place new backends are
// added. Unknown identifiers hard-fail: silently routing to a wrong
// backend would corrupt cost and ranking comparisons.
var modelTable = map[string]ModelMapping{
	"gpt-4o":           {AdapterKind: "openai", NativeModel: "gpt-4o"},
	"gpt-4o-mini":      {AdapterKind: "openai", NativeModel: "gpt-4o-mini"},
	"claude-sonnet-4":  {AdapterKind: "anthropic", NativeModel: "claude-sonnet-4-20250514"},
	"claude-haiku-3.5": {AdapterKind: "anthropic", NativeModel: "claude-3-5-haiku-20241022"},
	"gemini-2.0-flash": {AdapterKind: "gemini", NativeModel: "gemini-2.0-flash"},
	"gemini-1.5-pro":   {AdapterKind: "gemini", NativeModel: "gemini-1.5-pro"},
	"grok-3":           {AdapterKind: "grok", NativeModel: "grok-3"},
	"llama-3.3-70b":    {AdapterKind: "groq", NativeModel: "llama-3.3-70b-versatile"},
	"deepseek-chat":    {AdapterKind: "deepseek", NativeModel: "deepseek-chat"},
	"qwen-2.5-72b":     {AdapterKind: "openrouter", NativeModel: "qwen/qwen-2.5-72b-instruct"},
	"llama3-local":     {AdapterKind: "ollama", NativeModel: "llama3"},
}

// Resolve returns the mapping for a logical model identifier.
func Resolve(modelID string) (ModelMapping, error) {
	mapping, ok := modelTable[modelID]
	if !ok {
		return ModelMapping{}, &llm.UnknownModelError{ModelID: modelID}
	}
	return mapping, nil
}

// SupportedModels returns every logical model identifier in the table.
func SupportedModels() []string {
	ids := make([]string, 0, len(modelTable))
	for id := range modelTable {
		ids = append(ids, id)
	}
	return ids
}

// Gateway dispatches completion requests through the model table.
// Adapters share no mutable state; the table and provider set are
// read-only at request time.
type Gateway struct {
	providers map[string]llm.Provider
	log       zerolog.Logger
}

// New builds a Gateway with one provider instance per adapter kind.
// configs may carry per-backend overrides (endpoint, key, timeouts);
// missing entries fall back to defaults plus environment keys.
func New(configs map[string]*llm.ProviderConfig, log zerolog.Logger) (*Gateway, error) {
	kinds := map[string]bool{}
	for _, m := range modelTable {
		kinds[m.AdapterKind] = true
	}

	providers := make(map[string]llm.Provider, len(kinds))
	for kind := range kinds {
		provider, err := llm.NewProviderByName(kind, configs[kind], log)
		if err != nil {
			return nil, err
		}
		providers[kind] = provider
	}

	return &Gateway{providers: providers, log: log.With().Str("component", "gateway").Logger()}, nil
}

// NewWithProviders builds a Gateway over pre-built providers, keyed by
// adapter kind. Used by tests to substitute fakes.
func NewWithProviders(providers map[string]llm.Provider, log zerolog.Logger) *Gateway {
	return &Gateway{providers: providers, log: log}
}

// DispatchOption customizes a single dispatch.
type DispatchOption func(*llm.CompletionRequest)

// WithMaxTokens limits response length.
func WithMaxTokens(n int) DispatchOption {
	return func(r *llm.CompletionRequest) { r.MaxTokens = n }
}

// WithTimeout bounds the call.
func WithTimeout(d time.Duration) DispatchOption {
	return func(r *llm.CompletionRequest) { r.Timeout = d }
}

// WithSystemPrompt sets backend behavior.
func WithSystemPrompt(s string) DispatchOption {
	return func(r *llm.CompletionRequest) { r.SystemPrompt = s }
}

// WithOnDelta observes content deltas as they arrive.
func WithOnDelta(f func(string)) DispatchOption {
	return func(r *llm.CompletionRequest) { r.OnDelta = f }
}

// Dispatch resolves a logical model identifier and invokes its adapter.
func (g *Gateway) Dispatch(ctx context.Context, modelID string, messages []llm.Message, opts ...DispatchOption) (*llm.Completion, error) {
	mapping, err := Resolve(modelID)
	if err != nil {
		return nil, err
	}

	provider, ok := g.providers[mapping.AdapterKind]
	if !ok {
		return nil, &llm.UnknownModelError{ModelID: modelID}
	}

	req := &llm.CompletionRequest{
		Model:    mapping.NativeModel,
		Messages: messages,
	}
	for _, opt := range opts {
		opt(req)
	}

	g.log.Debug().Str("model", modelID).Str("adapter", mapping.AdapterKind).Msg("dispatch")
	return provider.Complete(ctx, req)
}

// Available reports which adapter kinds are configured and usable.
func (g *Gateway) Available() map[string]bool {
	out := make(map[string]bool, len(g.providers))
	for kind, p := range g.providers {
		out[kind] = p.Available()
	}
	return out
}
