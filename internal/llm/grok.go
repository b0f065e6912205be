package llm

import "context"

// GrokProvider implements the Provider interface for xAI Grok.
// The xAI API speaks the OpenAI chat-completions dialect.
type GrokProvider struct {
	baseProvider
}

// NewGrokProvider creates a new Grok provider.
func NewGrokProvider(cfg *ProviderConfig) *GrokProvider {
	return &GrokProvider{
		baseProvider: newBaseProvider(cfg, "grok"),
	}
}

// Complete streams a chat completion from Grok.
func (p *GrokProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
	return p.completeOpenAICompatible(ctx, req, headers, true)
}
