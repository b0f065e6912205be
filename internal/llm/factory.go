package llm

import (
	"os"

	"github.com/rs/zerolog"
)

// apiKeyEnvVars maps backend names to their conventional environment
// variables, used when no key is present in configuration.
var apiKeyEnvVars = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"grok":       "XAI_API_KEY",
	"groq":       "GROQ_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// APIKeyFromEnv retrieves a backend's API key from its standard
// environment variable.
func APIKeyFromEnv(backend string) string {
	if envVar, ok := apiKeyEnvVars[backend]; ok {
		return os.Getenv(envVar)
	}
	return ""
}

// NewProviderByName creates a specific provider by backend name.
// Every provider is wrapped with metrics collection and registered
// globally. Unknown names fail with UnknownModelError rather than
// silently defaulting: routing to a wrong backend would corrupt cost
// and ranking comparisons.
func NewProviderByName(name string, cfg *ProviderConfig, log zerolog.Logger) (Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig(name)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = APIKeyFromEnv(name)
	}

	var provider Provider
	switch name {
	case "openai":
		provider = NewOpenAIProvider(cfg)
	case "anthropic":
		provider = NewAnthropicProvider(cfg)
	case "gemini":
		provider = NewGeminiProvider(cfg)
	case "grok":
		provider = NewGrokProvider(cfg)
	case "groq":
		provider = NewGroqProvider(cfg)
	case "deepseek":
		provider = NewDeepSeekProvider(cfg)
	case "openrouter":
		provider = NewOpenRouterProvider(cfg)
	case "ollama":
		provider = NewOllamaProvider(cfg)
	default:
		return nil, &UnknownModelError{ModelID: name}
	}

	metricsProvider := NewMetricsProvider(provider, log)
	RegisterMetricsProvider(metricsProvider)
	return metricsProvider, nil
}
