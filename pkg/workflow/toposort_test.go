package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatbtn/chatflow/pkg/models"
)

func node(id string) *models.WorkflowNode {
	return &models.WorkflowNode{ID: id, ActionID: "noop", Data: map[string]any{}}
}

func edge(source, target string) *models.WorkflowEdge {
	return &models.WorkflowEdge{
		ID:           source + "->" + target,
		SourceNode:   source,
		SourceOutput: "out",
		TargetNode:   target,
		TargetInput:  "in",
	}
}

func TestSort_LinearChain(t *testing.T) {
	nodes := map[string]*models.WorkflowNode{
		"c": node("c"), "a": node("a"), "b": node("b"),
	}
	edges := []*models.WorkflowEdge{edge("a", "b"), edge("b", "c")}

	order, err := Sort(nodes, edges)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSort_DiamondBreaksTiesByNodeID(t *testing.T) {
	nodes := map[string]*models.WorkflowNode{
		"d": node("d"), "c": node("c"), "b": node("b"), "a": node("a"),
	}
	edges := []*models.WorkflowEdge{
		edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d"),
	}

	order, err := Sort(nodes, edges)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestSort_IndependentNodesOrderedByID(t *testing.T) {
	nodes := map[string]*models.WorkflowNode{
		"z": node("z"), "m": node("m"), "a": node("a"),
	}

	order, err := Sort(nodes, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, order)
}

func TestSort_CycleReportsRemainingNodes(t *testing.T) {
	nodes := map[string]*models.WorkflowNode{
		"a": node("a"), "b": node("b"), "c": node("c"),
	}
	edges := []*models.WorkflowEdge{edge("a", "b"), edge("b", "a")}

	order, err := Sort(nodes, edges)

	require.Error(t, err)
	assert.Nil(t, order)

	var cycleErr *CycleError

	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b"}, cycleErr.Nodes)
	assert.Contains(t, err.Error(), "cyclic dependency detected")
}

func TestSort_EdgesToUnknownNodesIgnored(t *testing.T) {
	nodes := map[string]*models.WorkflowNode{"a": node("a"), "b": node("b")}
	edges := []*models.WorkflowEdge{
		edge("a", "b"),
		edge("ghost", "b"),
		edge("a", "phantom"),
	}

	order, err := Sort(nodes, edges)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}
