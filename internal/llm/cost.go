package llm

// CostRate defines USD cost per million tokens for a backend.
// Input and output costs differ for most cloud providers.
type CostRate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// CostRates maps backend names to their token costs (USD per million
// tokens). Local providers are free. These figures feed an estimate,
// not an invoice: most backends only report estimated token counts.
var CostRates = map[string]CostRate{
	"openai":     {2.50, 10.00},
	"anthropic":  {3.00, 15.00},
	"gemini":     {0.10, 0.40},
	"grok":       {3.00, 15.00},
	"groq":       {0.59, 0.79},
	"deepseek":   {0.27, 1.10},
	"openrouter": {1.00, 2.00}, // varies by upstream, using an average
	"ollama":     {0.0, 0.0},   // local, no cost
}

// BaselineBackend is the fixed reference backend used for the
// "cost avoided" comparison figure.
const BaselineBackend = "openai"

// GetCostRate returns the cost rate for a backend.
// Unknown backends get moderate cloud pricing.
func GetCostRate(backend string) CostRate {
	if rate, ok := CostRates[backend]; ok {
		return rate
	}
	return CostRate{1.0, 2.0}
}

// Cost computes the USD cost of a call given its token counts.
func Cost(backend string, inputTokens, outputTokens int) float64 {
	rate := GetCostRate(backend)
	return float64(inputTokens)/1e6*rate.InputPerMillion +
		float64(outputTokens)/1e6*rate.OutputPerMillion
}

// CostAvoided returns how much the same token volume would have cost on
// the baseline backend minus what it cost on the actual one. Negative
// when the actual backend is more expensive than the baseline.
func CostAvoided(backend string, inputTokens, outputTokens int) float64 {
	return Cost(BaselineBackend, inputTokens, outputTokens) - Cost(backend, inputTokens, outputTokens)
}
