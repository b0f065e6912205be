package llm

import "context"

// DeepSeekProvider implements the Provider interface for DeepSeek.
// DeepSeek's API is OpenAI-compatible but does not reliably emit the
// terminal usage frame, so token counts fall back to estimates.
type DeepSeekProvider struct {
	baseProvider
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(cfg *ProviderConfig) *DeepSeekProvider {
	return &DeepSeekProvider{
		baseProvider: newBaseProvider(cfg, "deepseek"),
	}
}

// Complete streams a chat completion from DeepSeek.
func (p *DeepSeekProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}
	return p.completeOpenAICompatible(ctx, req, headers, false)
}
