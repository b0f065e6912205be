package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimUnderBudgetUnchanged(t *testing.T) {
	messages := []Message{
		{Role: "user", Content: "short"},
		{Role: "assistant", Content: "also short"},
	}

	trimmed, wasTrimmed := Trim(messages, 1000)
	assert.False(t, wasTrimmed)
	assert.Equal(t, messages, trimmed)
}

func TestTrimDropsOldestFirst(t *testing.T) {
	big := strings.Repeat("w ", 200) // ~100 tokens each
	messages := []Message{
		{Role: "user", Content: "oldest " + big},
		{Role: "assistant", Content: "middle " + big},
		{Role: "user", Content: "newest " + big},
	}

	trimmed, wasTrimmed := Trim(messages, 220)
	require.True(t, wasTrimmed)
	require.Len(t, trimmed, 2)
	assert.True(t, strings.HasPrefix(trimmed[0].Content, "middle"))
	assert.True(t, strings.HasPrefix(trimmed[1].Content, "newest"))
}

func TestTrimNeverDropsMostRecent(t *testing.T) {
	oversized := strings.Repeat("x", 4000) // ~1000 tokens, alone over budget
	messages := []Message{
		{Role: "user", Content: "first"},
		{Role: "user", Content: oversized},
	}

	trimmed, wasTrimmed := Trim(messages, 10)
	require.True(t, wasTrimmed)
	require.Len(t, trimmed, 1, "never returns an empty sequence")
	assert.Equal(t, oversized, trimmed[0].Content)
}

func TestTrimIsIdempotent(t *testing.T) {
	big := strings.Repeat("w ", 100)
	messages := []Message{
		{Role: "user", Content: big},
		{Role: "assistant", Content: big},
		{Role: "user", Content: big},
	}

	once, _ := Trim(messages, 120)
	twice, wasTrimmed := Trim(once, 120)
	assert.False(t, wasTrimmed, "trimming an already-trimmed sequence changes nothing")
	assert.Equal(t, once, twice)
}

func TestTrimSingleMessage(t *testing.T) {
	messages := []Message{{Role: "user", Content: strings.Repeat("x", 100)}}

	trimmed, wasTrimmed := Trim(messages, 1)
	assert.False(t, wasTrimmed)
	assert.Equal(t, messages, trimmed)
}
