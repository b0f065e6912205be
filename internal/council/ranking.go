package council

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// rankLabels is the fixed alphabet for anonymized entries.
const rankLabels = "ABCDEFGH"

// Engine runs the blind peer-review protocol: anonymize a complete
// result set, have every roster backend rank it, de-anonymize, and
// aggregate. Self-judging is intentional: a backend ranking its own
// anonymized answer is not filtered out.
type Engine struct {
	gw       *gateway.Gateway
	orch     *Orchestrator
	roster   []BackendDescriptor
	chairman string
	rng      *rand.Rand
	rec      Recorder
	log      zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRand injects a seeded random source so tests can assert exact
// label assignment. Production uses a time-seeded source; randomization
// itself is never disabled.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

// WithChairman designates the logical model that synthesizes the final
// answer.
func WithChairman(modelID string) EngineOption {
	return func(e *Engine) { e.chairman = modelID }
}

// WithRecorder attaches an external persistence collaborator.
func WithRecorder(rec Recorder) EngineOption {
	return func(e *Engine) { e.rec = rec }
}

// NewEngine creates a ranking engine over the given roster.
func NewEngine(gw *gateway.Gateway, roster []BackendDescriptor, log zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if len(roster) < 2 || len(roster) > len(rankLabels) {
		return nil, fmt.Errorf("roster size %d out of range [2,%d]", len(roster), len(rankLabels))
	}

	e := &Engine{
		gw:       gw,
		orch:     NewOrchestrator(gw, log),
		roster:   roster,
		chairman: "claude-sonnet-4",
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log.With().Str("component", "ranking").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RankAll reuses a previously collected, complete fan-out result set.
// The set must have exactly one non-error entry per roster slot; a
// mismatched or incomplete set is a caller error.
func (e *Engine) RankAll(ctx context.Context, question string, results []BackendResult) (*Outcome, error) {
	contents, err := e.completeContents(results)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, question, contents, -1, "all")
}

// RankOriginal benchmarks one existing answer: the original occupies its
// authoring backend's roster slot and the remaining slots are freshly
// queried, producing a complete comparison set. After sorting, the
// outcome carries the original's 1-based placement and the entries that
// beat it.
func (e *Engine) RankOriginal(ctx context.Context, question, originalBackendID, originalContent string) (*Outcome, error) {
	originalIdx := -1
	for i, b := range e.roster {
		if b.ID == originalBackendID {
			originalIdx = i
			break
		}
	}
	if originalIdx < 0 {
		return nil, fmt.Errorf("original backend %q not in roster", originalBackendID)
	}

	fresh := make([]BackendDescriptor, 0, len(e.roster)-1)
	for i, b := range e.roster {
		if i != originalIdx {
			fresh = append(fresh, b)
		}
	}

	messages := []llm.Message{{Role: "user", Content: question}}
	freshResults := e.orch.RunAll(ctx, fresh, messages)

	contents := make([]string, len(e.roster))
	contents[originalIdx] = originalContent
	j := 0
	for i := range e.roster {
		if i == originalIdx {
			continue
		}
		fr := freshResults[j]
		j++
		if fr.Failed() {
			return nil, fmt.Errorf("comparison set incomplete: %s: %s", fr.BackendID, fr.Err)
		}
		contents[i] = fr.Result.Content
	}

	return e.run(ctx, question, contents, originalIdx, "single")
}

// completeContents validates a settled result set against the roster.
func (e *Engine) completeContents(results []BackendResult) ([]string, error) {
	if len(results) != len(e.roster) {
		return nil, fmt.Errorf("result set size %d does not match roster size %d", len(results), len(e.roster))
	}
	contents := make([]string, len(results))
	for i, r := range results {
		if r.Failed() {
			return nil, fmt.Errorf("result set incomplete: %s: %s", r.BackendID, r.Err)
		}
		contents[i] = r.Result.Content
	}
	return contents, nil
}

// run executes anonymize → judge → aggregate → sort → synthesize.
// contents is indexed by roster position; originalIdx is -1 in "all" mode.
func (e *Engine) run(ctx context.Context, question string, contents []string, originalIdx int, mode string) (*Outcome, error) {
	entries := e.anonymize(contents)
	judgments := e.judge(ctx, question, entries)
	ranked := e.aggregate(entries, contents, judgments, originalIdx)

	outcome := &Outcome{
		Mode:    mode,
		Results: ranked,
	}

	for _, j := range judgments {
		outcome.Judgments = append(outcome.Judgments, JudgmentSummary{
			ModelName: e.displayName(j.JudgeID),
			Reasoning: j.Reasoning,
			Failed:    j.Failed,
		})
	}

	if originalIdx >= 0 {
		for _, r := range ranked {
			if r.IsOriginal {
				outcome.OriginalPlacement = r.Place
				break
			}
		}
		for _, r := range ranked {
			if r.Place < outcome.OriginalPlacement {
				outcome.BetterResponses = append(outcome.BetterResponses, r.ModelName)
			}
		}
	}

	outcome.ChairmanSynthesis = e.synthesize(ctx, question, ranked, outcome.Judgments)

	if e.rec != nil {
		if err := e.rec.RecordOutcome(ctx, outcome); err != nil {
			e.log.Warn().Err(err).Msg("recorder failed")
		}
	}

	return outcome, nil
}

// anonymize produces a uniform random permutation of the entries and
// assigns labels in permutation order. The label→originalIndex map lives
// only for this round.
func (e *Engine) anonymize(contents []string) []anonEntry {
	perm := e.rng.Perm(len(contents))
	entries := make([]anonEntry, len(contents))
	for i, original := range perm {
		entries[i] = anonEntry{
			Label:         string(rankLabels[i]),
			Content:       contents[original],
			OriginalIndex: original,
		}
	}
	return entries
}

// judgeResponse is the strict JSON shape each judge must return.
type judgeResponse struct {
	Rankings  []int  `json:"rankings"`
	Reasoning string `json:"reasoning"`
}

// judge sends the identical ranking prompt to every roster backend.
// Any call failure or unparseable reply degrades to a neutral judgment;
// a broken judge must never shrink the aggregate, only blunt it.
func (e *Engine) judge(ctx context.Context, question string, entries []anonEntry) []Judgment {
	prompt := buildJudgePrompt(question, entries)
	messages := []llm.Message{{Role: "user", Content: prompt}}
	results := e.orch.RunAll(ctx, e.roster, messages)

	k := len(entries)
	judgments := make([]Judgment, len(results))
	for i, r := range results {
		if r.Failed() {
			e.log.Warn().Str("judge", r.BackendID).Str("reason", r.Err).Msg("judge call failed, using neutral ranking")
			judgments[i] = neutralJudgment(r.BackendID, k)
			continue
		}
		parsed, err := parseJudgeResponse(r.Result.Content, k)
		if err != nil {
			e.log.Warn().Str("judge", r.BackendID).Err(err).Msg("judge output unparseable, using neutral ranking")
			judgments[i] = neutralJudgment(r.BackendID, k)
			continue
		}
		judgments[i] = Judgment{
			JudgeID:   r.BackendID,
			Rankings:  parsed.Rankings,
			Reasoning: parsed.Reasoning,
		}
	}
	return judgments
}

// neutralJudgment gives every label the median rank with empty reasoning.
func neutralJudgment(judgeID string, k int) Judgment {
	median := int(math.Round(float64(k) / 2))
	rankings := make([]int, k)
	for i := range rankings {
		rankings[i] = median
	}
	return Judgment{JudgeID: judgeID, Rankings: rankings, Failed: true}
}

// buildJudgePrompt embeds the question and all labeled contents. The same
// prompt, unmodified, goes to every judge.
func buildJudgePrompt(question string, entries []anonEntry) string {
	var b strings.Builder
	b.WriteString("You are judging anonymous answers to a question. ")
	b.WriteString("Rank them from best (1) to worst (")
	fmt.Fprintf(&b, "%d", len(entries))
	b.WriteString(").\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "\nResponse %s:\n%s\n", entry.Label, entry.Content)
	}
	b.WriteString("\nReply with ONLY a JSON object of the form ")
	fmt.Fprintf(&b, `{"rankings": [...], "reasoning": "..."} where rankings has exactly %d integers, `, len(entries))
	b.WriteString("the i-th being the rank of the i-th response in label order (A first). ")
	b.WriteString("Every rank 1..")
	fmt.Fprintf(&b, "%d", len(entries))
	b.WriteString(" must appear exactly once.")
	return b.String()
}

// parseJudgeResponse extracts and validates the strict JSON judgment.
// The rankings must be a full permutation of 1..k.
func parseJudgeResponse(content string, k int) (*judgeResponse, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object found")
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode judgment: %w", err)
	}

	if len(resp.Rankings) != k {
		return nil, fmt.Errorf("rankings length %d, want %d", len(resp.Rankings), k)
	}
	seen := make([]bool, k+1)
	for _, rank := range resp.Rankings {
		if rank < 1 || rank > k || seen[rank] {
			return nil, fmt.Errorf("rankings %v is not a permutation of 1..%d", resp.Rankings, k)
		}
		seen[rank] = true
	}

	return &resp, nil
}

// extractJSONObject returns the outermost {...} span of s, tolerating
// markdown fences and prose around the object.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// aggregate de-anonymizes, computes each entry's mean rank across all
// judges (failed judges contribute their neutral rank), and sorts
// ascending. Ties break by original roster order via stable sort, never
// by re-randomizing.
func (e *Engine) aggregate(entries []anonEntry, contents []string, judgments []Judgment, originalIdx int) []RankedEntry {
	// labelPos[originalIndex] = position in label order
	labelPos := make([]int, len(entries))
	for pos, entry := range entries {
		labelPos[entry.OriginalIndex] = pos
	}

	ranked := make([]RankedEntry, len(entries))
	for i := range entries {
		pos := labelPos[i]
		sum := 0
		for _, j := range judgments {
			sum += j.Rankings[pos]
		}
		mean := float64(sum) / float64(len(judgments))
		ranked[i] = RankedEntry{
			BackendID:     e.roster[i].ID,
			ModelName:     e.roster[i].DisplayName,
			AverageRank:   math.Round(mean*10) / 10,
			IsOriginal:    i == originalIdx,
			OriginalIndex: i,
			Content:       contents[i],
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].AverageRank < ranked[b].AverageRank
	})
	for i := range ranked {
		ranked[i].Place = i + 1
	}
	return ranked
}

// displayName resolves a backend ID to its roster display name.
func (e *Engine) displayName(backendID string) string {
	for _, b := range e.roster {
		if b.ID == backendID {
			return b.DisplayName
		}
	}
	return backendID
}
