package persistence

import (
	"context"

	"github.com/chatbtn/chatflow/pkg/models"
)

// ModularLookup resolves modular actions by ID. *registry.ModularActionRegistry
// satisfies it.
type ModularLookup interface {
	Get(actionID string) (*models.ModularAction, bool)
}

// StaticSnapshot is an in-memory Snapshot. Lookups return deep copies of the
// stored definitions so callers can never mutate shared state.
type StaticSnapshot struct {
	workflows map[string]*models.WorkflowDefinition
	actions   map[string]*models.ActionDefinition
	modular   ModularLookup
}

func NewStaticSnapshot(
	workflows map[string]*models.WorkflowDefinition,
	actions map[string]*models.ActionDefinition,
	modular ModularLookup,
) *StaticSnapshot {
	if workflows == nil {
		workflows = map[string]*models.WorkflowDefinition{}
	}

	if actions == nil {
		actions = map[string]*models.ActionDefinition{}
	}

	return &StaticSnapshot{
		workflows: workflows,
		actions:   actions,
		modular:   modular,
	}
}

func (s *StaticSnapshot) GetWorkflow(id string) (*models.WorkflowDefinition, bool) {
	workflow, ok := s.workflows[id]
	if !ok {
		return nil, false
	}

	return workflow.Clone(), true
}

func (s *StaticSnapshot) GetLegacyAction(id string) (*models.ActionDefinition, bool) {
	action, ok := s.actions[id]
	if !ok {
		return nil, false
	}

	return action.Clone(), true
}

func (s *StaticSnapshot) GetModularAction(id string) (*models.ModularAction, bool) {
	if s.modular == nil {
		return nil, false
	}

	return s.modular.Get(id)
}

// StaticStore is a SnapshotStore serving the same in-memory snapshot on
// every call. Used for embedded setups and tests.
type StaticStore struct {
	snapshot *StaticSnapshot
}

func NewStaticStore(snapshot *StaticSnapshot) *StaticStore {
	return &StaticStore{snapshot: snapshot}
}

func (s *StaticStore) Snapshot(_ context.Context) (Snapshot, error) {
	return s.snapshot, nil
}

func (s *StaticStore) Close(_ context.Context) error {
	return nil
}
