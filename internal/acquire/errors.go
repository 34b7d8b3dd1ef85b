package acquire

import "errors"

// The orchestrator boundary classifies every component error into this
// taxonomy before it reaches a Result; nothing escapes unclassified.
var (
	// ErrTimeout marks a stage that ran out of its bounded time budget.
	ErrTimeout = errors.New("acquire: timed out")

	// ErrTerminal marks a classifier-determined non-retryable failure.
	ErrTerminal = errors.New("acquire: terminal failure")

	// ErrRetryExhausted marks a browser escalation that found no address
	// or whose retry download itself failed.
	ErrRetryExhausted = errors.New("acquire: retry exhausted")
)
