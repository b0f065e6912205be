package llm

import "context"

// OpenRouterProvider implements the Provider interface for OpenRouter,
// an OpenAI-compatible aggregator that fronts many upstream models.
// Usage reporting varies by upstream, so token counts are estimated.
type OpenRouterProvider struct {
	baseProvider
}

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(cfg *ProviderConfig) *OpenRouterProvider {
	return &OpenRouterProvider{
		baseProvider: newBaseProvider(cfg, "openrouter"),
	}
}

// Complete streams a chat completion from OpenRouter.
func (p *OpenRouterProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
		// OpenRouter attribution headers; harmless elsewhere.
		"HTTP-Referer": "https://github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000",
		"X-Title":      "Ephor Wind Tunnel",
	}
	return p.completeOpenAICompatible(ctx, req, headers, false)
}
