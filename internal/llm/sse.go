package llm

import (
	"bufio"
	"bytes"
	"io"
)

// sseMaxLineSize bounds a single server-sent event line (1MB). Individual
// deltas are small; anything larger is a malformed stream.
const sseMaxLineSize = 1 * 1024 * 1024

// sseScanner reads server-sent event frames, yielding the event name (if
// any) and the data payload. Comment lines and keep-alives are skipped.
type sseScanner struct {
	scanner *bufio.Scanner
	event   string
}

func newSSEScanner(r io.Reader) *sseScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), sseMaxLineSize)
	return &sseScanner{scanner: sc}
}

// Next returns the next data-bearing frame. io.EOF signals a clean end.
func (s *sseScanner) Next() (event string, data []byte, err error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		switch {
		case len(line) == 0:
			// Frame boundary; event name resets per SSE semantics.
			s.event = ""
		case bytes.HasPrefix(line, []byte(":")):
			// Comment / keep-alive.
		case bytes.HasPrefix(line, []byte("event:")):
			s.event = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			payload := bytes.TrimSpace(line[len("data:"):])
			out := make([]byte, len(payload))
			copy(out, payload)
			return s.event, out, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", nil, err
	}
	return "", nil, io.EOF
}
