// Package persistence provides standardized error types for snapshot access.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given ID.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrActionNotFound indicates an action definition was not found by the
	// given ID in either the modular registry or the legacy action table.
	ErrActionNotFound = errors.New("action not found")

	// ErrSnapshotUnreadable indicates the snapshot document could not be
	// loaded or decoded.
	ErrSnapshotUnreadable = errors.New("snapshot unreadable")
)

// SnapshotError wraps snapshot-related errors with the operation and source.
type SnapshotError struct {
	Op     string // Operation being performed (e.g. "Load", "Decode")
	Source string // Snapshot source (file path, etc.)
	Err    error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("%s failed for snapshot %s: %v", e.Op, e.Source, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

func (e *SnapshotError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsActionNotFound checks if an error indicates an action was not found.
func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}
