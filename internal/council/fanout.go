package council

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/gateway"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// Orchestrator issues one prompt to every roster backend concurrently.
type Orchestrator struct {
	gw  *gateway.Gateway
	log zerolog.Logger
}

// NewOrchestrator creates a fan-out orchestrator over the gateway.
func NewOrchestrator(gw *gateway.Gateway, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{gw: gw, log: log.With().Str("component", "fanout").Logger()}
}

// RunAll dispatches to every roster entry concurrently and waits for all
// of them to settle. The returned slice always has len(roster) entries in
// roster order; each backend's failure is captured in its own slot and
// never aborts or affects a sibling. No retries: callers needing retry
// re-invoke the whole orchestrator. Each call carries its own deadline;
// cancelling one never cancels siblings.
func (o *Orchestrator) RunAll(ctx context.Context, roster []BackendDescriptor, messages []llm.Message, opts ...gateway.DispatchOption) []BackendResult {
	results := make([]BackendResult, len(roster))

	var wg sync.WaitGroup
	for i, backend := range roster {
		wg.Add(1)
		go func(i int, backend BackendDescriptor) {
			defer wg.Done()
			completion, err := o.gw.Dispatch(ctx, backend.ModelID, messages, opts...)
			if err != nil {
				o.log.Warn().Str("backend", backend.ID).Err(err).Msg("backend failed")
				results[i] = BackendResult{BackendID: backend.ID, Err: err.Error()}
				return
			}
			results[i] = BackendResult{BackendID: backend.ID, Result: completion}
		}(i, backend)
	}
	wg.Wait()

	return results
}
