package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostFormula(t *testing.T) {
	// openai: $2.50/M input, $10.00/M output
	got := Cost("openai", 1_000_000, 1_000_000)
	assert.InDelta(t, 12.50, got, 1e-9)

	got = Cost("openai", 1000, 500)
	assert.InDelta(t, 2.50*0.001+10.00*0.0005, got, 1e-9)
}

func TestCostLocalBackendIsFree(t *testing.T) {
	assert.Zero(t, Cost("ollama", 1_000_000, 1_000_000))
}

func TestCostUnknownBackendGetsModerateRate(t *testing.T) {
	rate := GetCostRate("nonexistent")
	assert.Equal(t, CostRate{1.0, 2.0}, rate)
	assert.InDelta(t, 1.0+2.0, Cost("nonexistent", 1_000_000, 1_000_000), 1e-9)
}

func TestCostAvoidedUsesBaseline(t *testing.T) {
	in, out := 10_000, 2_000

	baseline := Cost(BaselineBackend, in, out)
	actual := Cost("groq", in, out)
	assert.InDelta(t, baseline-actual, CostAvoided("groq", in, out), 1e-9)

	// Running the baseline itself avoids nothing.
	assert.InDelta(t, 0, CostAvoided(BaselineBackend, in, out), 1e-9)
}
