package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// streamEvent is the normalized unit every adapter's parse loop produces:
// a content delta, optionally the backend's exact usage from a terminal
// event, and a done marker. The orchestration layer never sees raw chunks.
type streamEvent struct {
	Delta string
	Usage *streamUsage
	Done  bool
}

// streamUsage carries exact token counts reported by a backend.
type streamUsage struct {
	InputTokens  int
	OutputTokens int
}

// nextFunc yields the next normalized event; io.EOF ends the stream cleanly.
type nextFunc func() (streamEvent, error)

// doStream issues the streaming POST and maps transport/HTTP failures into
// the error taxonomy. The caller owns resp.Body on success.
func (b *baseProvider) doStream(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProtocolError{Provider: b.config.Name, Detail: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Provider: b.config.Name, Limit: b.config.Timeout}
		}
		return nil, &BackendError{Provider: b.config.Name, Status: 0, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		resp.Body.Close()
		return nil, &BackendError{
			Provider: b.config.Name,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(bodyBytes)),
		}
	}

	return resp, nil
}

// collectStream drains a normalized event sequence into a Completion.
// The first content-bearing event timestamps TTFT. Exact usage from a
// terminal event wins over the character-length estimate.
func collectStream(ctx context.Context, provider string, timeout time.Duration, start time.Time, inputEstimate int, model string, onDelta func(string), next nextFunc) (*Completion, error) {
	var content strings.Builder
	var totalBytes int64
	var usage *streamUsage
	var ttft time.Duration
	sawFirst := false

	finish := func() (*Completion, error) {
		total := time.Since(start)
		c := &Completion{
			Content: content.String(),
			Model:   model,
			TTFT:    ttft,
			Total:   total,
		}
		if usage != nil {
			c.InputTokens = usage.InputTokens
			c.OutputTokens = usage.OutputTokens
			c.ExactUsage = true
		} else {
			c.InputTokens = inputEstimate
			c.OutputTokens = EstimateTokens(c.Content)
		}
		if secs := total.Seconds(); secs > 0 {
			c.TokensPerSecond = float64(c.OutputTokens) / secs
		}
		return c, nil
	}

	for {
		ev, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return finish()
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
				return nil, &TimeoutError{Provider: provider, Limit: timeout}
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			var pe *ProtocolError
			var be *BackendError
			if errors.As(err, &pe) || errors.As(err, &be) {
				return nil, err
			}
			return nil, &ProtocolError{Provider: provider, Detail: "decode stream", Err: err}
		}

		if ev.Delta != "" {
			if !sawFirst {
				sawFirst = true
				ttft = time.Since(start)
			}
			deltaLen := int64(len(ev.Delta))
			if totalBytes+deltaLen > MaxStreamedResponseSize {
				return nil, &ProtocolError{Provider: provider, Detail: "response size exceeded limit, possible runaway generation"}
			}
			totalBytes += deltaLen
			content.WriteString(ev.Delta)
			if onDelta != nil {
				onDelta(ev.Delta)
			}
		}

		if ev.Usage != nil {
			usage = ev.Usage
		}

		if ev.Done {
			return finish()
		}
	}
}
