package council

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

type fakeProvider struct {
	name string
	fn   func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error)
}

func (f *fakeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	return f.fn(ctx, req)
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return true }

func isJudgePrompt(req *llm.CompletionRequest) bool {
	return len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "You are judging")
}

func isChairmanPrompt(req *llm.CompletionRequest) bool {
	return strings.Contains(req.SystemPrompt, "chairman")
}

// fakeGateway builds a gateway where every council adapter kind answers
// with the given per-kind function.
func fakeGateway(fns map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error)) *gateway.Gateway {
	providers := make(map[string]llm.Provider, len(fns))
	for kind, fn := range fns {
		providers[kind] = &fakeProvider{name: kind, fn: fn}
	}
	return gateway.NewWithProviders(providers, zerolog.Nop())
}

// canned returns a provider function that answers every judge prompt
// with the given rankings JSON and everything else with answer.
func canned(judgeJSON, answer string) func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	return func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
		if isJudgePrompt(req) {
			return &llm.Completion{Content: judgeJSON}, nil
		}
		return &llm.Completion{Content: answer}, nil
	}
}

func settledResults(contents map[string]string) []BackendResult {
	roster := DefaultRoster()
	results := make([]BackendResult, len(roster))
	for i, b := range roster {
		results[i] = BackendResult{BackendID: b.ID, Result: &llm.Completion{Content: contents[b.ID]}}
	}
	return results
}

func TestRunAllIsolatesFailures(t *testing.T) {
	timeoutErr := &llm.TimeoutError{Provider: "anthropic", Limit: 0}
	gw := fakeGateway(map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error){
		"openai":    canned("", "alpha"),
		"anthropic": func(context.Context, *llm.CompletionRequest) (*llm.Completion, error) { return nil, timeoutErr },
		"gemini":    canned("", "gamma"),
		"grok":      canned("", "delta"),
	})

	orch := NewOrchestrator(gw, zerolog.Nop())
	results := orch.RunAll(context.Background(), DefaultRoster(), []llm.Message{{Role: "user", Content: "q"}})

	require.Len(t, results, 4)
	assert.Equal(t, "openai", results[0].BackendID)
	assert.Equal(t, "alpha", results[0].Result.Content)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Err, "response took too long")
	assert.Nil(t, results[1].Result)
	assert.Equal(t, "gamma", results[2].Result.Content)
	assert.Equal(t, "delta", results[3].Result.Content)
}

func TestAnonymizeUsesInjectedRand(t *testing.T) {
	gw := fakeGateway(nil)
	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop(), WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)

	contents := []string{"zero", "one", "two", "three"}
	entries := e.anonymize(contents)

	expectedPerm := rand.New(rand.NewSource(7)).Perm(4)
	require.Len(t, entries, 4)
	seen := map[int]bool{}
	for i, entry := range entries {
		assert.Equal(t, string(rune('A'+i)), entry.Label)
		assert.Equal(t, expectedPerm[i], entry.OriginalIndex)
		assert.Equal(t, contents[expectedPerm[i]], entry.Content)
		seen[entry.OriginalIndex] = true
	}
	assert.Len(t, seen, 4, "every original index appears exactly once")
}

func TestParseJudgeResponse(t *testing.T) {
	valid, err := parseJudgeResponse(`{"rankings":[2,1,4,3],"reasoning":"b wins"}`, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 4, 3}, valid.Rankings)
	assert.Equal(t, "b wins", valid.Reasoning)

	fenced, err := parseJudgeResponse("Here you go:\n```json\n{\"rankings\":[1,2,3,4],\"reasoning\":\"\"}\n```", 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, fenced.Rankings)

	for name, content := range map[string]string{
		"no json":         "I think A is best.",
		"wrong length":    `{"rankings":[1,2,3],"reasoning":""}`,
		"duplicate rank":  `{"rankings":[1,1,3,4],"reasoning":""}`,
		"out of range":    `{"rankings":[0,2,3,4],"reasoning":""}`,
		"not even close":  "{broken",
	} {
		_, err := parseJudgeResponse(content, 4)
		assert.Error(t, err, name)
	}
}

func TestNeutralJudgment(t *testing.T) {
	j := neutralJudgment("grok", 4)
	assert.Equal(t, []int{2, 2, 2, 2}, j.Rankings)
	assert.True(t, j.Failed)
	assert.Empty(t, j.Reasoning)

	j5 := neutralJudgment("grok", 5)
	assert.Equal(t, []int{3, 3, 3, 3, 3}, j5.Rankings)
}

func TestAggregateMeanRoundingAndStableTies(t *testing.T) {
	gw := fakeGateway(nil)
	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop())
	require.NoError(t, err)

	contents := []string{"c0", "c1", "c2", "c3"}
	// Identity permutation keeps label position == roster index.
	entries := make([]anonEntry, 4)
	for i := range entries {
		entries[i] = anonEntry{Label: string(rune('A' + i)), Content: contents[i], OriginalIndex: i}
	}
	judgments := []Judgment{
		{JudgeID: "openai", Rankings: []int{1, 2, 3, 4}},
		{JudgeID: "anthropic", Rankings: []int{2, 1, 3, 4}},
		{JudgeID: "gemini", Rankings: []int{1, 2, 4, 3}},
	}

	ranked := e.aggregate(entries, contents, judgments, -1)

	// Means: 4/3=1.333→1.3, 5/3=1.667→1.7, 10/3→3.3, 11/3→3.7.
	require.Len(t, ranked, 4)
	assert.Equal(t, 1.3, ranked[0].AverageRank)
	assert.Equal(t, "openai", ranked[0].BackendID)
	assert.Equal(t, 1.7, ranked[1].AverageRank)
	assert.Equal(t, 3.3, ranked[2].AverageRank)
	assert.Equal(t, 3.7, ranked[3].AverageRank)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Place)
	}

	// Exact ties keep roster order.
	tied := []Judgment{{JudgeID: "openai", Rankings: []int{2, 2, 2, 2}}}
	rankedTied := e.aggregate(entries, contents, tied, -1)
	for i, r := range rankedTied {
		assert.Equal(t, DefaultRoster()[i].ID, r.BackendID)
		assert.Equal(t, 2.0, r.AverageRank)
	}
}

func TestRankAll(t *testing.T) {
	judgeJSON := `{"rankings":[2,1,4,3],"reasoning":"B is sharpest"}`
	gw := fakeGateway(map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error){
		"openai": canned(judgeJSON, "answer"),
		"anthropic": func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
			if isChairmanPrompt(req) {
				return &llm.Completion{Content: "final synthesis"}, nil
			}
			return &llm.Completion{Content: judgeJSON}, nil
		},
		"gemini": canned(judgeJSON, "answer"),
		"grok":   canned(judgeJSON, "answer"),
	})

	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop(), WithRand(rand.New(rand.NewSource(11))))
	require.NoError(t, err)

	results := settledResults(map[string]string{
		"openai": "from openai", "anthropic": "from anthropic",
		"gemini": "from gemini", "grok": "from grok",
	})
	outcome, err := e.RankAll(context.Background(), "pick the best greeting", results)
	require.NoError(t, err)

	assert.Equal(t, "all", outcome.Mode)
	assert.Equal(t, "final synthesis", outcome.ChairmanSynthesis)
	assert.Zero(t, outcome.OriginalPlacement)
	assert.Empty(t, outcome.BetterResponses)

	// Every judge agreed on label ranks [2,1,4,3]; reconstruct the
	// expected roster-indexed means from the engine's permutation.
	perm := rand.New(rand.NewSource(11)).Perm(4)
	labelRanks := []int{2, 1, 4, 3}
	want := make(map[string]float64)
	for pos, originalIdx := range perm {
		want[DefaultRoster()[originalIdx].ID] = float64(labelRanks[pos])
	}

	require.Len(t, outcome.Results, 4)
	for _, r := range outcome.Results {
		assert.Equal(t, want[r.BackendID], r.AverageRank)
		assert.False(t, r.IsOriginal)
	}
	assert.True(t, sort.SliceIsSorted(outcome.Results, func(a, b int) bool {
		return outcome.Results[a].AverageRank < outcome.Results[b].AverageRank
	}))

	require.Len(t, outcome.Judgments, 4)
	for _, j := range outcome.Judgments {
		assert.False(t, j.Failed)
		assert.Equal(t, "B is sharpest", j.Reasoning)
	}
}

func TestRankAllRejectsIncompleteSet(t *testing.T) {
	gw := fakeGateway(nil)
	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop())
	require.NoError(t, err)

	results := settledResults(map[string]string{
		"openai": "a", "anthropic": "b", "gemini": "c", "grok": "d",
	})
	results[2] = BackendResult{BackendID: "gemini", Err: "boom"}

	_, err = e.RankAll(context.Background(), "q", results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")

	_, err = e.RankAll(context.Background(), "q", results[:2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match roster")
}

func TestJudgeFailureDegradesToNeutral(t *testing.T) {
	judgeJSON := `{"rankings":[1,2,3,4],"reasoning":"label order"}`
	gw := fakeGateway(map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error){
		"openai":    canned(judgeJSON, "answer"),
		"anthropic": canned(judgeJSON, "answer"),
		"gemini":    canned("I refuse to produce JSON.", "answer"),
		"grok": func(context.Context, *llm.CompletionRequest) (*llm.Completion, error) {
			return nil, errors.New("connection reset")
		},
	})

	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop(),
		WithRand(rand.New(rand.NewSource(3))), WithChairman(""))
	require.NoError(t, err)

	results := settledResults(map[string]string{
		"openai": "a", "anthropic": "b", "gemini": "c", "grok": "d",
	})
	outcome, err := e.RankAll(context.Background(), "q", results)
	require.NoError(t, err)

	require.Len(t, outcome.Results, 4, "broken judges never shrink the aggregate")
	require.Len(t, outcome.Judgments, 4)
	failed := 0
	for _, j := range outcome.Judgments {
		if j.Failed {
			failed++
			assert.Empty(t, j.Reasoning)
		}
	}
	assert.Equal(t, 2, failed)
}

func TestRankOriginal(t *testing.T) {
	judgeJSON := `{"rankings":[1,2,3,4],"reasoning":"label order"}`
	var freshCalls []string
	gw := fakeGateway(map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error){
		"openai": func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
			if isJudgePrompt(req) {
				return &llm.Completion{Content: judgeJSON}, nil
			}
			freshCalls = append(freshCalls, "openai")
			return &llm.Completion{Content: "fresh openai"}, nil
		},
		"anthropic": canned(judgeJSON, "fresh anthropic"),
		"gemini": func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
			if isJudgePrompt(req) {
				return &llm.Completion{Content: judgeJSON}, nil
			}
			freshCalls = append(freshCalls, "gemini")
			return &llm.Completion{Content: "fresh gemini"}, nil
		},
		"grok": func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
			if isJudgePrompt(req) {
				return &llm.Completion{Content: judgeJSON}, nil
			}
			freshCalls = append(freshCalls, "grok")
			return &llm.Completion{Content: "fresh grok"}, nil
		},
	})

	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop(),
		WithRand(rand.New(rand.NewSource(5))), WithChairman(""))
	require.NoError(t, err)

	outcome, err := e.RankOriginal(context.Background(), "q", "anthropic", "my original answer")
	require.NoError(t, err)

	assert.Equal(t, "single", outcome.Mode)
	assert.ElementsMatch(t, []string{"openai", "gemini", "grok"}, freshCalls,
		"the original's slot is never re-queried")

	var original *RankedEntry
	for i := range outcome.Results {
		if outcome.Results[i].IsOriginal {
			original = &outcome.Results[i]
		}
	}
	require.NotNil(t, original)
	assert.Equal(t, "anthropic", original.BackendID)
	assert.Equal(t, "my original answer", original.Content)
	assert.Equal(t, original.Place, outcome.OriginalPlacement)
	assert.Len(t, outcome.BetterResponses, original.Place-1)
	for _, r := range outcome.Results {
		if r.Place < original.Place {
			assert.Contains(t, outcome.BetterResponses, r.ModelName)
		}
	}
}

func TestRankOriginalUnknownBackend(t *testing.T) {
	gw := fakeGateway(nil)
	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop())
	require.NoError(t, err)

	_, err = e.RankOriginal(context.Background(), "q", "mistral", "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in roster")
}

func TestChairmanFailureIsNonFatal(t *testing.T) {
	judgeJSON := `{"rankings":[1,2,3,4],"reasoning":""}`
	gw := fakeGateway(map[string]func(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error){
		"openai": canned(judgeJSON, "a"),
		"anthropic": func(_ context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
			if isChairmanPrompt(req) {
				return nil, errors.New("overloaded")
			}
			return &llm.Completion{Content: judgeJSON}, nil
		},
		"gemini": canned(judgeJSON, "c"),
		"grok":   canned(judgeJSON, "d"),
	})

	e, err := NewEngine(gw, DefaultRoster(), zerolog.Nop(), WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, err)

	results := settledResults(map[string]string{
		"openai": "a", "anthropic": "b", "gemini": "c", "grok": "d",
	})
	outcome, err := e.RankAll(context.Background(), "q", results)
	require.NoError(t, err)
	assert.Empty(t, outcome.ChairmanSynthesis)
	assert.Len(t, outcome.Results, 4)
}

func TestNewEngineRosterBounds(t *testing.T) {
	gw := fakeGateway(nil)

	_, err := NewEngine(gw, DefaultRoster()[:1], zerolog.Nop())
	assert.Error(t, err)

	big := make([]BackendDescriptor, 9)
	_, err = NewEngine(gw, big, zerolog.Nop())
	assert.Error(t, err)
}
