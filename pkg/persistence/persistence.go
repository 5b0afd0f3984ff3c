// Package persistence defines the snapshot accessor contract the workflow
// core reads definitions from, plus its standard error types.
package persistence

import (
	"context"

	"github.com/chatbtn/chatflow/pkg/models"
)

// Snapshot is a read-only view of the button store at one point in time.
// Every workflow run loads its definitions from a fresh snapshot, so
// concurrent runs never share mutable definition state.
type Snapshot interface {
	GetWorkflow(id string) (*models.WorkflowDefinition, bool)
	GetLegacyAction(id string) (*models.ActionDefinition, bool)
	GetModularAction(id string) (*models.ModularAction, bool)
}

// SnapshotStore produces fresh snapshots.
type SnapshotStore interface {
	Snapshot(ctx context.Context) (Snapshot, error)

	Close(ctx context.Context) error
}
