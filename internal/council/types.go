// Package council fans one prompt out to a fixed roster of backends,
// runs a blind peer-review ranking over the answers, and optionally has
// a chairman backend synthesize a final cited answer.
package council

import (
	"context"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// BackendDescriptor is one fixed roster entry. Roster membership and
// order are configuration, not runtime state.
type BackendDescriptor struct {
	// ID identifies the backend within council output.
	ID string `json:"id" yaml:"id"`

	// DisplayName is the attribution shown in rankings.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// ModelID is the logical model identifier the gateway dispatches to.
	ModelID string `json:"model_id" yaml:"model_id"`
}

// DefaultRoster is the four-backend council used when configuration
// does not override it.
func DefaultRoster() []BackendDescriptor {
	return []BackendDescriptor{
		{ID: "openai", DisplayName: "GPT-4o", ModelID: "gpt-4o"},
		{ID: "anthropic", DisplayName: "Claude Sonnet 4", ModelID: "claude-sonnet-4"},
		{ID: "gemini", DisplayName: "Gemini 2.0 Flash", ModelID: "gemini-2.0-flash"},
		{ID: "grok", DisplayName: "Grok 3", ModelID: "grok-3"},
	}
}

// BackendResult is one slot of a settled fan-out batch. Exactly one of
// Result and Err is meaningful.
type BackendResult struct {
	BackendID string          `json:"backend_id"`
	Result    *llm.Completion `json:"result,omitempty"`
	Err       string          `json:"error,omitempty"`
}

// Failed reports whether this slot captured an error.
func (r BackendResult) Failed() bool {
	return r.Err != ""
}

// anonEntry is the transient bijection from roster position to a random
// permutation. Created fresh per ranking round, discarded after
// de-anonymization, never persisted.
type anonEntry struct {
	Label         string
	Content       string
	OriginalIndex int
}

// Judgment is one judge's ranking of the anonymized set. A failed judge
// still occupies a slot with a neutral ranking so the aggregate is never
// starved of data.
type Judgment struct {
	JudgeID   string `json:"judge_id"`
	Rankings  []int  `json:"rankings"` // one rank per label, label order
	Reasoning string `json:"reasoning"`
	Failed    bool   `json:"failed"`
}

// RankedEntry is one row of the sorted aggregate, 1-based placement.
type RankedEntry struct {
	Place         int     `json:"place"`
	BackendID     string  `json:"backend_id"`
	ModelName     string  `json:"model_name"`
	AverageRank   float64 `json:"average_rank"`
	IsOriginal    bool    `json:"is_original"`
	OriginalIndex int     `json:"-"`
	Content       string  `json:"content"`
}

// JudgmentSummary is the observable record of one judge's contribution.
type JudgmentSummary struct {
	ModelName string `json:"model_name"`
	Reasoning string `json:"reasoning"`
	Failed    bool   `json:"failed"`
}

// Outcome is the full result of a council round.
type Outcome struct {
	// Mode is "single" (one original benchmarked against fresh answers)
	// or "all" (a previously collected fan-out set ranked as-is).
	Mode string `json:"mode"`

	Results []RankedEntry `json:"results"`

	// OriginalPlacement is the 1-based placement of the designated
	// original entry. Zero in "all" mode.
	OriginalPlacement int `json:"original_placement,omitempty"`

	// BetterResponses lists the model names that beat the original.
	BetterResponses []string `json:"better_responses,omitempty"`

	// ChairmanSynthesis is the chairman's cited answer, empty when
	// synthesis failed or was skipped. Synthesis is an enhancement,
	// never a dependency of ranking.
	ChairmanSynthesis string `json:"chairman_synthesis,omitempty"`

	Judgments []JudgmentSummary `json:"judgments"`
}

// Recorder receives finalized council outcomes. Persistence is an
// external collaborator concern; the core never reads anything back.
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome *Outcome) error
}
