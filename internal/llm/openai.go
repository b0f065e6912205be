package llm

import "context"

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	baseProvider
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg *ProviderConfig) *OpenAIProvider {
	return &OpenAIProvider{
		baseProvider: newBaseProvider(cfg, "openai"),
	}
}

// Complete streams a chat completion from OpenAI. OpenAI honors
// stream_options.include_usage, so token counts are exact.
func (p *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
	return p.completeOpenAICompatible(ctx, req, headers, true)
}
