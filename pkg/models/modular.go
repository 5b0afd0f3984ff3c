package models

import "context"

// ModularFunc is the execute entry point of a modular action. It receives
// the host (the owning plugin, opaque to this core), the per-run runtime
// view and the validated input parameters, and returns an effect map in the
// same shape local actions produce.
type ModularFunc func(ctx context.Context, host any, runtime *RuntimeContext, params map[string]any) (map[string]any, error)

// ActionInput declares one input parameter of a modular action.
type ActionInput struct {
	Name        string `json:"name"        yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required"    yaml:"required"`
	Default     any    `json:"default"     yaml:"default"`
	HasDefault  bool   `json:"has_default" yaml:"has_default"`
}

// ActionOutput declares one output variable of a modular action.
type ActionOutput struct {
	Name        string `json:"name"        yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// ModularAction is a dynamically registered action with a declared
// input/output schema, distinct from legacy actions addressed only by opaque
// config maps.
type ModularAction struct {
	ID          string         `json:"id"          yaml:"id"   validate:"required"`
	Name        string         `json:"name"        yaml:"name" validate:"required"`
	Description string         `json:"description" yaml:"description"`
	Inputs      []ActionInput  `json:"inputs"      yaml:"inputs"`
	Outputs     []ActionOutput `json:"outputs"     yaml:"outputs"`
	// InputSchema optionally holds a JSON schema the rendered inputs are
	// validated against before Execute is invoked.
	InputSchema map[string]any `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	Execute     ModularFunc    `json:"-"           yaml:"-"`
}
