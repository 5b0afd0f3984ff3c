// Package registry manages the two action namespaces the workflow core
// dispatches into: named native Go callables (local actions) and
// schema-declared modular actions.
package registry

import (
	"context"
	"log/slog"

	"github.com/chatbtn/chatflow/pkg/models"
)

// LocalFunc is the signature of a registered native action. The host is the
// owning plugin, passed through opaquely; params are the rendered action
// parameters. The returned effect map uses the same keys local actions have
// always produced (new_text, parse_mode, next_menu_id, variables, ...).
type LocalFunc func(ctx context.Context, host any, runtime *models.RuntimeContext, params map[string]any) (map[string]any, error)

// RegisteredAction is one named native callable with its declared parameters.
type RegisteredAction struct {
	Name        string
	Description string
	Params      map[string]string
	Function    LocalFunc
}

// LocalActionRegistry stores code-registered native actions by name.
type LocalActionRegistry struct {
	logger  *slog.Logger
	actions map[string]*RegisteredAction
}

func NewLocalActionRegistry(logger *slog.Logger) *LocalActionRegistry {
	return &LocalActionRegistry{
		logger:  logger.With("module", "local_registry"),
		actions: make(map[string]*RegisteredAction),
	}
}

// Register adds a native action. Duplicate names are rejected so a later
// registration cannot silently shadow an earlier one.
func (r *LocalActionRegistry) Register(name string, function LocalFunc, description string, params map[string]string) bool {
	if _, exists := r.actions[name]; exists {
		r.logger.Warn("Local action already registered, ignoring duplicate", "name", name)

		return false
	}

	r.actions[name] = &RegisteredAction{
		Name:        name,
		Description: description,
		Params:      params,
		Function:    function,
	}

	return true
}

// Get returns the registered action by name.
func (r *LocalActionRegistry) Get(name string) (*RegisteredAction, bool) {
	action, ok := r.actions[name]

	return action, ok
}

// All returns every registered action.
func (r *LocalActionRegistry) All() []*RegisteredAction {
	all := make([]*RegisteredAction, 0, len(r.actions))
	for _, action := range r.actions {
		all = append(all, action)
	}

	return all
}
