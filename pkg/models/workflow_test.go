package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *WorkflowDefinition {
	return &WorkflowDefinition{
		ID:   "wf-1",
		Name: "Sample",
		Nodes: map[string]*WorkflowNode{
			"a": {
				ID:       "a",
				ActionID: "fetch",
				Position: NodePosition{X: 10, Y: 20},
				Data: map[string]any{
					"url":    "https://api.example.com",
					"nested": map[string]any{"retries": 3},
					"list":   []any{"one", "two"},
				},
			},
		},
		Edges: []*WorkflowEdge{
			{ID: "e1", SourceNode: "a", SourceOutput: "body", TargetNode: "b", TargetInput: "input"},
		},
	}
}

func TestWorkflowDefinition_CloneIsDetached(t *testing.T) {
	original := sampleDefinition()
	clone := original.Clone()

	clone.Nodes["a"].Data["url"] = "https://tampered.example.com"
	clone.Nodes["a"].Data["nested"].(map[string]any)["retries"] = 99
	clone.Edges[0].TargetInput = "changed"

	assert.Equal(t, "https://api.example.com", original.Nodes["a"].Data["url"])
	assert.Equal(t, 3, original.Nodes["a"].Data["nested"].(map[string]any)["retries"])
	assert.Equal(t, "input", original.Edges[0].TargetInput)
}

func TestWorkflowDefinition_JSONRoundTrip(t *testing.T) {
	original := sampleDefinition()

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded WorkflowDefinition

	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Nodes["a"].ActionID, decoded.Nodes["a"].ActionID)
	assert.Equal(t, original.Nodes["a"].Position, decoded.Nodes["a"].Position)
	assert.Len(t, decoded.Edges, 1)
}

func TestWorkflowDefinition_Validate(t *testing.T) {
	valid := sampleDefinition()
	assert.NoError(t, valid.Validate())

	missingID := sampleDefinition()
	missingID.ID = ""
	assert.Error(t, missingID.Validate())

	badEdge := sampleDefinition()
	badEdge.Edges[0].SourceOutput = ""
	assert.Error(t, badEdge.Validate())

	badNode := sampleDefinition()
	badNode.Nodes["a"].ID = ""
	assert.Error(t, badNode.Validate())
}

func TestActionDefinition_CloneIsDetached(t *testing.T) {
	original := &ActionDefinition{
		ID:     "a1",
		Kind:   "http",
		Config: map[string]any{"url": "https://api.example.com"},
	}

	clone := original.Clone()
	clone.Config["url"] = "changed"

	assert.Equal(t, "https://api.example.com", original.Config["url"])
}

func TestParseActionKind(t *testing.T) {
	for _, kind := range []string{"http", "local", "modular", "workflow"} {
		parsed, err := ParseActionKind(kind)

		require.NoError(t, err)
		assert.Equal(t, ActionKind(kind), parsed)
	}

	_, err := ParseActionKind("carrier_pigeon")
	assert.Error(t, err)
}
