// Package llm normalizes the wire protocols of the supported LLM backends
// into a single streaming completion contract. Each adapter owns its own
// chunk-format knowledge; callers never branch on backend identity.
package llm

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Security limits to prevent unbounded memory usage
const (
	// MaxErrorBodySize limits how much error response body we read (1MB)
	MaxErrorBodySize = 1 * 1024 * 1024

	// MaxStreamedResponseSize limits total streamed response size (50MB)
	MaxStreamedResponseSize = 50 * 1024 * 1024
)

// readLimitedBody reads up to maxBytes from r, returning the bytes read.
// Used for error responses to prevent unbounded memory allocation.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Provider is the uniform completion contract every backend adapter satisfies.
type Provider interface {
	// Complete opens one streaming request and returns the accumulated result.
	// OnDelta, if set on the request, observes each content delta as it arrives.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)

	// Name returns the backend identifier.
	Name() string

	// Available returns true if the provider is configured (credentials present).
	Available() bool
}

// Message is one conversation turn. Insertion order is turn order.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// CompletionRequest describes one adapter invocation.
type CompletionRequest struct {
	// Model is the backend-native model name. Empty uses the provider default.
	Model string `json:"model"`

	// SystemPrompt sets backend behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages in the conversation.
	Messages []Message `json:"messages"`

	// MaxTokens limits response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `json:"temperature,omitempty"`

	// Timeout bounds the whole call. Zero uses the provider default.
	Timeout time.Duration `json:"-"`

	// OnDelta, if non-nil, is called with each content delta in arrival order.
	OnDelta func(delta string) `json:"-"`
}

// Completion is the uniform result of one adapter invocation.
// It is never mutated after creation.
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model"`

	// Token counts. Estimates (ceil(len/4)) unless ExactUsage is true, in
	// which case the backend's reported usage won.
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	ExactUsage   bool `json:"exact_usage"`

	// TTFT is wall-clock time from dispatch to the first content-bearing delta.
	TTFT time.Duration `json:"ttft"`

	// Total is wall-clock time from dispatch to stream end.
	Total time.Duration `json:"total"`

	// TokensPerSecond is OutputTokens over the total call duration.
	TokensPerSecond float64 `json:"tokens_per_second"`
}

// EstimateTokens approximates the token count of s as ceil(len/4).
// This is a documented approximation, not a guarantee; downstream cost
// math must treat it as such.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

// estimateMessages sums the token estimate over a conversation.
func estimateMessages(system string, msgs []Message) int {
	total := EstimateTokens(system)
	for _, m := range msgs {
		total += EstimateTokens(m.Content)
	}
	return total
}

// ProviderConfig contains configuration for an LLM provider.
type ProviderConfig struct {
	// Name identifies the backend (anthropic, openai, gemini, ...).
	Name string

	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication.
	APIKey string

	// Model is the default model to use.
	Model string

	// MaxTokens default for responses.
	MaxTokens int

	// Temperature default.
	Temperature float64

	// Timeout for API calls.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a provider.
func DefaultConfig(name string) *ProviderConfig {
	cfg := &ProviderConfig{
		Name:        name,
		MaxTokens:   4096,
		Temperature: 0.7,
		Timeout:     2 * time.Minute,
	}

	switch name {
	case "openai":
		cfg.Endpoint = "https://api.openai.com/v1"
		cfg.Model = "gpt-4o"
	case "anthropic":
		cfg.Endpoint = "https://api.anthropic.com"
		cfg.Model = "claude-sonnet-4-20250514"
	case "gemini":
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
		cfg.Model = "gemini-2.0-flash"
	case "grok":
		cfg.Endpoint = "https://api.x.ai/v1"
		cfg.Model = "grok-3"
	case "groq":
		// Groq serves ultra-fast inference; short responses, short timeout.
		cfg.Endpoint = "https://api.groq.com/openai/v1"
		cfg.Model = "llama-3.3-70b-versatile"
		cfg.MaxTokens = 2048
		cfg.Timeout = 30 * time.Second
	case "deepseek":
		cfg.Endpoint = "https://api.deepseek.com/v1"
		cfg.Model = "deepseek-chat"
	case "openrouter":
		cfg.Endpoint = "https://openrouter.ai/api/v1"
		cfg.Model = "openai/gpt-4o"
	case "ollama":
		cfg.Endpoint = "http://127.0.0.1:11434"
		cfg.Model = "llama3"
	}

	return cfg
}

// baseProvider provides common functionality for HTTP-based LLM providers.
type baseProvider struct {
	config *ProviderConfig
	client *http.Client
}

// newBaseProvider creates a new base provider with defaults applied.
func newBaseProvider(cfg *ProviderConfig, providerName string) baseProvider {
	if cfg == nil {
		cfg = DefaultConfig(providerName)
	}

	defaults := DefaultConfig(providerName)
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	cfg.Name = providerName

	return baseProvider{
		config: cfg,
		// No Client.Timeout here: it covers the entire request lifecycle
		// including body reads, so it would fire mid-stream on long
		// generations. Deadlines come from the per-call context instead.
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.Timeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}
}

// Name returns the provider identifier.
func (b *baseProvider) Name() string {
	return b.config.Name
}

// Available checks if the API key is configured.
func (b *baseProvider) Available() bool {
	return b.config.APIKey != ""
}

// callTimeout resolves the effective deadline for a request.
func (b *baseProvider) callTimeout(req *CompletionRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return b.config.Timeout
}
