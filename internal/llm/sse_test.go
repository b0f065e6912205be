package llm

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEScannerDataFrames(t *testing.T) {
	input := "data: one\n\ndata: two\n\n"
	sse := newSSEScanner(strings.NewReader(input))

	_, data, err := sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	_, data, err = sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, _, err = sse.Next()
	assert.Equal(t, io.EOF, err)
}

func TestSSEScannerEventNames(t *testing.T) {
	input := "event: message_start\ndata: {\"a\":1}\n\nevent: message_stop\ndata: {}\n\n"
	sse := newSSEScanner(strings.NewReader(input))

	event, data, err := sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "message_start", event)
	assert.Equal(t, `{"a":1}`, string(data))

	event, _, err = sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "message_stop", event)
}

func TestSSEScannerEventResetsAtFrameBoundary(t *testing.T) {
	input := "event: named\ndata: first\n\ndata: second\n\n"
	sse := newSSEScanner(strings.NewReader(input))

	event, _, err := sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "named", event)

	event, _, err = sse.Next()
	require.NoError(t, err)
	assert.Empty(t, event, "event name does not leak across frames")
}

func TestSSEScannerSkipsComments(t *testing.T) {
	input := ": keep-alive\n\n: another\ndata: payload\n\n"
	sse := newSSEScanner(strings.NewReader(input))

	_, data, err := sse.Next()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
