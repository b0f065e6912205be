package llm

import (
	"fmt"
	"time"
)

// ConfigError reports a missing credential or misconfigured provider.
// It fails fast and is never retried.
type ConfigError struct {
	Provider string
	Missing  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s not configured", e.Provider, e.Missing)
}

// TimeoutError reports that a call's deadline elapsed before completion.
// Its message is deliberately distinct from other failures so callers
// (and users) can tell a slow backend apart from a broken one.
type TimeoutError struct {
	Provider string
	Limit    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s response took too long (exceeded %s)", e.Provider, e.Limit)
}

// ProtocolError reports a backend stream that could not be parsed into any
// recognizable delta format.
type ProtocolError struct {
	Provider string
	Detail   string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s stream unparseable: %s: %v", e.Provider, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s stream unparseable: %s", e.Provider, e.Detail)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// BackendError wraps a failure the backend explicitly reported.
type BackendError struct {
	Provider string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Status, e.Message)
}

// UnknownModelError reports a logical model identifier with no adapter
// mapping. This is a programmer/config error and must never be silently
// substituted with a default backend.
type UnknownModelError struct {
	ModelID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model identifier %q", e.ModelID)
}
