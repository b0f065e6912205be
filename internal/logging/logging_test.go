package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewParsesLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
	}
	for in, want := range cases {
		if got := New(in, false).GetLevel(); got != want {
			t.Errorf("New(%q): expected level %s, got %s", in, want, got)
		}
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	if got := New("shouty", true).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}
