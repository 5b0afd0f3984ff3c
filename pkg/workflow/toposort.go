package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chatbtn/chatflow/pkg/models"
)

// CycleError reports a cyclic dependency: Nodes holds every node that was
// still unprocessed when the cycle was detected.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency detected, nodes involved: %s",
		strings.Join(e.Nodes, ", "))
}

// Sort computes the execution order of the workflow graph using Kahn's
// algorithm. Edges referencing nodes outside the map are ignored for graph
// structure. Ties among ready nodes break deterministically by ascending
// node ID, so the order is stable for a given definition.
func Sort(nodes map[string]*models.WorkflowNode, edges []*models.WorkflowEdge) ([]string, error) {
	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for nodeID := range nodes {
		adjacency[nodeID] = nil
		inDegree[nodeID] = 0
	}

	for _, edge := range edges {
		_, sourceKnown := inDegree[edge.SourceNode]
		_, targetKnown := inDegree[edge.TargetNode]

		if sourceKnown && targetKnown {
			adjacency[edge.SourceNode] = append(adjacency[edge.SourceNode], edge.TargetNode)
			inDegree[edge.TargetNode]++
		}
	}

	ready := make([]string, 0, len(nodes))

	for nodeID, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, nodeID)
		}
	}

	slices.Sort(ready)

	order := make([]string, 0, len(nodes))

	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		released := make([]string, 0, len(adjacency[current]))

		for _, neighbor := range adjacency[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				released = append(released, neighbor)
			}
		}

		if len(released) > 0 {
			ready = append(ready, released...)
			slices.Sort(ready)
		}
	}

	if len(order) != len(nodes) {
		processed := make(map[string]struct{}, len(order))
		for _, nodeID := range order {
			processed[nodeID] = struct{}{}
		}

		remaining := make([]string, 0, len(nodes)-len(order))

		for nodeID := range nodes {
			if _, done := processed[nodeID]; !done {
				remaining = append(remaining, nodeID)
			}
		}

		slices.Sort(remaining)

		return nil, &CycleError{Nodes: remaining}
	}

	return order, nil
}
