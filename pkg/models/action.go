package models

import "fmt"

// ActionKind identifies the execution strategy for an action. It is a closed
// set; the workflow kind exists so nested workflows can be rejected
// explicitly instead of recursing.
type ActionKind string

const (
	ActionKindHTTP     ActionKind = "http"
	ActionKindLocal    ActionKind = "local"
	ActionKindModular  ActionKind = "modular"
	ActionKindWorkflow ActionKind = "workflow"
)

// ParseActionKind maps a stored kind string onto the closed ActionKind set.
func ParseActionKind(kind string) (ActionKind, error) {
	switch ActionKind(kind) {
	case ActionKindHTTP, ActionKindLocal, ActionKindModular, ActionKindWorkflow:
		return ActionKind(kind), nil
	default:
		return "", fmt.Errorf("unsupported action kind '%s'", kind)
	}
}

// ActionDefinition is a legacy action addressed by an opaque config map, as
// stored in the button snapshot.
type ActionDefinition struct {
	ID          string         `json:"id"          yaml:"id"   validate:"required"`
	Name        string         `json:"name"        yaml:"name"`
	Kind        string         `json:"kind"        yaml:"kind" validate:"required"`
	Config      map[string]any `json:"config"      yaml:"config"`
	Description string         `json:"description" yaml:"description"`
}

// AsMap exposes the definition to templates under the action namespace.
func (a *ActionDefinition) AsMap() map[string]any {
	config := a.Config
	if config == nil {
		config = map[string]any{}
	}

	return map[string]any{
		"id":          a.ID,
		"name":        a.Name,
		"kind":        a.Kind,
		"config":      config,
		"description": a.Description,
	}
}

// ResolvedAction pairs an action kind with its definition, resolved once per
// node at dispatch time. Exactly one of Definition and Modular is set:
// Definition for legacy actions, Modular for registry-backed ones.
type ResolvedAction struct {
	Kind       ActionKind
	Definition *ActionDefinition
	Modular    *ModularAction
}
