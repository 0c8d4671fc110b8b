package forge

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the hand-off protocol.
var (
	// ErrNoActiveAgent signals that a query was routed to a sub-agent
	// before one was built. Retryable: keep talking to the Builder.
	ErrNoActiveAgent = errors.New("forge: no active agent")

	// ErrInvalidState signals a broken session invariant (active
	// configuration without a live handle, or vice versa). This is a
	// programming defect, not bad input; do not retry.
	ErrInvalidState = errors.New("forge: invalid session state")

	// ErrRetriesExhausted is returned when structured output failed
	// validation on every allowed attempt.
	ErrRetriesExhausted = errors.New("forge: structured output retries exhausted")

	// ErrRequestLimit is returned when a turn would exceed the
	// configured request limit.
	ErrRequestLimit = errors.New("forge: request limit exceeded")

	// ErrTokenLimit is returned when a turn would exceed the
	// configured total token limit.
	ErrTokenLimit = errors.New("forge: total token limit exceeded")
)

// SchemaValidationError reports structured output that does not satisfy
// the declared schema. The Builder retries these a bounded number of
// times before giving up with ErrRetriesExhausted.
type SchemaValidationError struct {
	Format string // name of the output format that failed
	Reason string
	Err    error // underlying decode error, if any
}

func (e *SchemaValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("forge: output %q failed validation: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("forge: output %q failed validation: %s", e.Format, e.Reason)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// UnsupportedModelError reports a configuration naming a model outside
// the supported set. Deterministic: retrying without new user input
// will not change the outcome.
type UnsupportedModelError struct {
	Model     Model
	Supported []Model
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("forge: model %q is not in the supported set %v", e.Model, e.Supported)
}
