// Package stream delivers incremental completion output to a single
// caller over a long-lived connection. Each active request is a small
// state machine: open, zero or more token emissions, then exactly one
// terminal event (complete or error). A stream that ends without a
// terminal event is a protocol violation on the caller's side of the
// contract.
package stream

// Event is one newline-delimited record on the wire. Type is always
// set; the remaining fields are populated per type.
type Event struct {
	Type string `json:"type"`

	// token: incremental delta plus running counters.
	Content    string  `json:"content,omitempty"`
	TokenCount int     `json:"tokenCount,omitempty"`
	ElapsedMs  int64   `json:"elapsed,omitempty"`
	Progress   float64 `json:"progress,omitempty"`

	// complete: final accumulated content and accounting.
	InputTokens  int     `json:"inputTokens,omitempty"`
	OutputTokens int     `json:"outputTokens,omitempty"`
	LatencyMs    int64   `json:"latency,omitempty"`
	Cost         float64 `json:"cost,omitempty"`

	// error: terminal failure.
	Error string `json:"error,omitempty"`
}

const (
	EventToken    = "token"
	EventComplete = "complete"
	EventError    = "error"
)

// Sink writes one event to the underlying transport. Implementations
// must be written to only by the single producing goroutine for the
// request; the sink itself does no locking.
type Sink interface {
	WriteEvent(ev *Event) error
}
