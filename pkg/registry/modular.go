package registry

import (
	"fmt"
	"log/slog"

	"github.com/chatbtn/chatflow/pkg/models"
)

// ModularActionRegistry stores modular actions by ID. It is authoritative
// for new-style actions: action resolution consults it before the legacy
// action table.
type ModularActionRegistry struct {
	logger  *slog.Logger
	actions map[string]*models.ModularAction
}

func NewModularActionRegistry(logger *slog.Logger) *ModularActionRegistry {
	return &ModularActionRegistry{
		logger:  logger.With("module", "modular_registry"),
		actions: make(map[string]*models.ModularAction),
	}
}

// Register adds a modular action, replacing any previous registration with
// the same ID. Actions without an execute function are rejected.
func (r *ModularActionRegistry) Register(action *models.ModularAction) error {
	if action.ID == "" {
		return fmt.Errorf("modular action '%s' has no ID", action.Name)
	}

	if action.Execute == nil {
		return fmt.Errorf("modular action '%s' has no execute function", action.ID)
	}

	if _, exists := r.actions[action.ID]; exists {
		r.logger.Info("Replacing modular action registration", "action_id", action.ID)
	}

	r.actions[action.ID] = action

	return nil
}

// Get returns the modular action by ID.
func (r *ModularActionRegistry) Get(actionID string) (*models.ModularAction, bool) {
	action, ok := r.actions[actionID]

	return action, ok
}

// All returns every registered modular action.
func (r *ModularActionRegistry) All() []*models.ModularAction {
	all := make([]*models.ModularAction, 0, len(r.actions))
	for _, action := range r.actions {
		all = append(all, action)
	}

	return all
}
