package llm

import "context"

// GroqProvider implements the Provider interface for Groq.
// Groq provides ultra-fast inference behind an OpenAI-compatible API,
// which makes it the natural backend for the ultra-fast route.
type GroqProvider struct {
	baseProvider
}

// NewGroqProvider creates a new Groq provider.
func NewGroqProvider(cfg *ProviderConfig) *GroqProvider {
	return &GroqProvider{
		baseProvider: newBaseProvider(cfg, "groq"),
	}
}

// Complete streams a chat completion from Groq.
func (p *GroqProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
	return p.completeOpenAICompatible(ctx, req, headers, true)
}
