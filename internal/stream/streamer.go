package stream

import (
	"fmt"
	"time"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// assumedResponseTokens is the average answer length the progress
// heuristic divides by. Progress is advisory only: it is a guess, never
// a byte-exact prediction, and it is capped below 100% until the
// terminal event.
const assumedResponseTokens = 500

// progressCap keeps the heuristic from claiming completion early.
const progressCap = 0.99

// Streamer drives one request's delivery state machine over a Sink.
// Not safe for concurrent use: one producing goroutine per request.
type Streamer struct {
	sink     Sink
	start    time.Time
	tokens   int
	terminal bool
}

// NewStreamer opens a delivery stream; the clock for elapsed times
// starts here.
func NewStreamer(sink Sink) *Streamer {
	return &Streamer{sink: sink, start: time.Now()}
}

// Token emits one incremental delta. Calling Token after a terminal
// event is a programming error and fails loudly.
func (s *Streamer) Token(delta string) error {
	if s.terminal {
		return fmt.Errorf("stream already terminated")
	}
	s.tokens += llm.EstimateTokens(delta)
	return s.sink.WriteEvent(&Event{
		Type:       EventToken,
		Content:    delta,
		TokenCount: s.tokens,
		ElapsedMs:  time.Since(s.start).Milliseconds(),
		Progress:   s.Progress(),
	})
}

// Progress estimates how far along the response is, in [0, 0.99].
func (s *Streamer) Progress() float64 {
	p := float64(s.tokens) / float64(assumedResponseTokens)
	if p > progressCap {
		p = progressCap
	}
	return p
}

// Complete emits the terminal success event carrying the full
// accumulated content and final accounting, then seals the stream.
func (s *Streamer) Complete(result *llm.Completion, cost float64) error {
	if s.terminal {
		return fmt.Errorf("stream already terminated")
	}
	s.terminal = true
	return s.sink.WriteEvent(&Event{
		Type:         EventComplete,
		Content:      result.Content,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		LatencyMs:    time.Since(s.start).Milliseconds(),
		Cost:         cost,
	})
}

// Fail emits the terminal error event and seals the stream.
func (s *Streamer) Fail(err error) error {
	if s.terminal {
		return fmt.Errorf("stream already terminated")
	}
	s.terminal = true
	return s.sink.WriteEvent(&Event{
		Type:  EventError,
		Error: err.Error(),
	})
}

// Terminated reports whether a terminal event has been emitted.
func (s *Streamer) Terminated() bool { return s.terminal }
