package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ─── Policy errors ──────────────────────────────────────────────────────────
// Raised by the policy engine itself; pure, no infrastructure dependency.

var (
	ErrNoArmsAvailable = errors.New("no active arms available to draw")
)

// ArmNotFoundError is returned whenever an operation names an arm id that
// does not exist (or was deleted) on the target policy.
type ArmNotFoundError struct {
	Arm ArmID
}

func (e *ArmNotFoundError) Error() string {
	return fmt.Sprintf("arm %d not found", e.Arm)
}

// SamplingError wraps a recoverable numeric hiccup inside a draw (e.g. a
// degenerate Beta parameter on one arm). The caller's draw still succeeds
// using the remaining candidates; this is surfaced only when it leaves no
// arm left to choose from.
type SamplingError struct {
	Arm    ArmID
	Reason string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling error on arm %d: %s", e.Arm, e.Reason)
}

// ─── Experiment errors ──────────────────────────────────────────────────────
// Raised by the experiment actor; wraps PolicyError.

var (
	// ErrNoPolicy indicates the actor was restarted and has not yet
	// reloaded its policy snapshot from the state store.
	ErrNoPolicy = errors.New("experiment has no policy loaded yet")
)

// ─── Repository errors ──────────────────────────────────────────────────────
// Raised by the repository; wraps ExperimentError.

var (
	ErrStorageUnavailable = errors.New("state store is unavailable")
)

// ExperimentNotFoundError is returned when a command targets an id with no
// registered experiment actor.
type ExperimentNotFoundError struct {
	ID uuid.UUID
}

func (e *ExperimentNotFoundError) Error() string {
	return fmt.Sprintf("experiment %s not found", e.ID)
}

// ExperimentUnavailableError is returned when an actor exists but its run
// loop has exited (stopped or crashed), so a command could not be delivered
// or its reply never arrived.
type ExperimentUnavailableError struct {
	ID uuid.UUID
}

func (e *ExperimentUnavailableError) Error() string {
	return fmt.Sprintf("experiment %s is unavailable", e.ID)
}

// ─── Persistence errors ─────────────────────────────────────────────────────
// Internal to the state store; logged but never surfaced as an actionable
// API response on their own.

// IoError wraps a filesystem failure encountered while loading or
// persisting the state-store catalog.
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error: %v", e.Cause) }
func (e *IoError) Unwrap() error { return e.Cause }

// SerializationError wraps a JSON marshal/unmarshal failure encountered
// while loading or persisting the state-store catalog.
type SerializationError struct {
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Cause)
}
func (e *SerializationError) Unwrap() error { return e.Cause }

// ─── API errors ─────────────────────────────────────────────────────────────
// Raised at the HTTP boundary; maps RepositoryError/PersistenceError (and a
// handful of adapter-only conditions) onto status codes.

var (
	ErrInvalidUUID = errors.New("invalid uuid")
)
