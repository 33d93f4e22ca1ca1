package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Class is the retry classification of a remote-call failure.
type Class int

const (
	ClassFatal Class = iota
	ClassTransient
)

// transient is implemented by remote-call errors that are expected to
// resolve with time (rate limits, temporary unavailability). Provider
// packages expose it so the pipeline never depends on their concrete
// error representations.
type transient interface {
	Transient() bool
}

// Classify maps a remote-call failure into Transient or Fatal. Deadline and
// cancellation errors are fatal: the stage's overall deadline is distinct
// from the retry budget and exceeding it must not trigger further attempts.
func Classify(err error) Class {
	if err == nil {
		return ClassFatal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassFatal
	}
	var tr transient
	if errors.As(err, &tr) {
		if tr.Transient() {
			return ClassTransient
		}
		return ClassFatal
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	return ClassFatal
}

// RetryError reports an exhausted retry budget, wrapping the last transient
// cause for diagnostics.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// ToolError reports a search call failure; fatal to the issuing stage.
type ToolError struct {
	Query string
	Err   error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// DependencyError reports a stage invoked without exactly its required
// upstream results. This is a caller contract violation, not a runtime
// condition, and is never absorbed.
type DependencyError struct {
	Role    Role
	Missing []Role
	Extra   []Role
}

func (e *DependencyError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %v", e.Extra))
	}
	return fmt.Sprintf("stage %s invoked with wrong upstream results: %s", e.Role, strings.Join(parts, ", "))
}

// StateError reports an operation requested against a run in the wrong
// lifecycle state.
type StateError struct {
	Op     string
	Status RunStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: run is %s", e.Op, e.Status)
}

// ErrUnknownRun indicates a run handle that was never issued.
var ErrUnknownRun = errors.New("unknown run")

// StageError carries the failing role alongside its cause when a run fails.
type StageError struct {
	Role Role
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Role, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
