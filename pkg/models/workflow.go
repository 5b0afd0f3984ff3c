// Package models defines the core domain models for button-driven workflow execution.
package models

import "github.com/go-playground/validator/v10"

// ConditionKey is the reserved key inside WorkflowNode.Data holding the
// node's condition configuration. It is stripped from the input parameters
// before rendering.
const ConditionKey = "__condition__"

// NodePosition is the visual position of a node in the editor. It has no
// effect on execution.
type NodePosition struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// WorkflowNode is one action step in a workflow graph.
type WorkflowNode struct {
	ID       string         `json:"id"        yaml:"id"        validate:"required"`
	ActionID string         `json:"action_id" yaml:"action_id"`
	Position NodePosition   `json:"position"  yaml:"position"`
	Data     map[string]any `json:"data"      yaml:"data"`
}

// WorkflowEdge routes one node's named output to another node's named input.
type WorkflowEdge struct {
	ID           string `json:"id"            yaml:"id"            validate:"required"`
	SourceNode   string `json:"source_node"   yaml:"source_node"   validate:"required"`
	SourceOutput string `json:"source_output" yaml:"source_output" validate:"required"`
	TargetNode   string `json:"target_node"   yaml:"target_node"   validate:"required"`
	TargetInput  string `json:"target_input"  yaml:"target_input"  validate:"required"`
}

// WorkflowDefinition is a complete workflow: nodes (actions) and edges (data
// flow). Definitions are immutable per run; every run loads a fresh copy from
// the snapshot accessor.
type WorkflowDefinition struct {
	ID          string                   `json:"id"          yaml:"id"          validate:"required"`
	Name        string                   `json:"name"        yaml:"name"`
	Description string                   `json:"description" yaml:"description"`
	Nodes       map[string]*WorkflowNode `json:"nodes"       yaml:"nodes"`
	Edges       []*WorkflowEdge          `json:"edges"       yaml:"edges"`
}

// Validate checks the structural integrity of the definition.
func (w *WorkflowDefinition) Validate() error {
	validate := validator.New()
	if err := validate.Struct(w); err != nil {
		return err
	}

	for _, node := range w.Nodes {
		if err := validate.Struct(node); err != nil {
			return err
		}
	}

	for _, edge := range w.Edges {
		if err := validate.Struct(edge); err != nil {
			return err
		}
	}

	return nil
}
