package council

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// chairmanTimeout is roughly double the per-backend budget: the
// synthesis sees every ranked answer plus the judge commentary, so it
// gets more room than a single completion.
const chairmanTimeout = 4 * time.Minute

// synthesize asks the chairman model for a final answer informed by the
// ranked results and judge reasoning. Synthesis is best-effort: any
// failure logs and returns the empty string, leaving the ranked results
// as the deliverable.
func (e *Engine) synthesize(ctx context.Context, question string, ranked []RankedEntry, judgments []JudgmentSummary) string {
	if e.chairman == "" {
		return ""
	}

	prompt := buildChairmanPrompt(question, ranked, judgments)
	messages := []llm.Message{{Role: "user", Content: prompt}}

	result, err := e.gw.Dispatch(ctx, e.chairman, messages,
		gateway.WithTimeout(chairmanTimeout),
		gateway.WithSystemPrompt("You are the chairman of a council of AI models. Synthesize the best possible final answer from the ranked responses, favoring the top-ranked ones."),
	)
	if err != nil {
		e.log.Warn().Err(err).Str("chairman", e.chairman).Msg("chairman synthesis failed")
		return ""
	}
	return result.Content
}

// buildChairmanPrompt shows the chairman the de-anonymized standings.
func buildChairmanPrompt(question string, ranked []RankedEntry, judgments []JudgmentSummary) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nRanked responses (best first):\n")
	for _, r := range ranked {
		fmt.Fprintf(&b, "\n#%d %s (average rank %.1f):\n%s\n", r.Place, r.ModelName, r.AverageRank, r.Content)
	}
	if len(judgments) > 0 {
		b.WriteString("\nJudge commentary:\n")
		for _, j := range judgments {
			if j.Failed || j.Reasoning == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", j.ModelName, j.Reasoning)
		}
	}
	b.WriteString("\nWrite the single best final answer to the question.")
	return b.String()
}
