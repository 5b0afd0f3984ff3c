package models

// Clone deep-copies the definition so a run can never observe mutations made
// to the stored copy (or another run's copy) after load.
func (w *WorkflowDefinition) Clone() *WorkflowDefinition {
	clone := &WorkflowDefinition{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Nodes:       make(map[string]*WorkflowNode, len(w.Nodes)),
		Edges:       make([]*WorkflowEdge, 0, len(w.Edges)),
	}

	for id, node := range w.Nodes {
		clone.Nodes[id] = &WorkflowNode{
			ID:       node.ID,
			ActionID: node.ActionID,
			Position: node.Position,
			Data:     DeepCopyMap(node.Data),
		}
	}

	for _, edge := range w.Edges {
		copied := *edge
		clone.Edges = append(clone.Edges, &copied)
	}

	return clone
}

// Clone deep-copies the action definition including its config map.
func (a *ActionDefinition) Clone() *ActionDefinition {
	clone := *a
	clone.Config = DeepCopyMap(a.Config)

	return &clone
}

// DeepCopyMap copies a nested map of JSON-ish values (maps, slices,
// scalars). Non-container values are shared.
func DeepCopyMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}

	copied := make(map[string]any, len(source))
	for key, value := range source {
		copied[key] = deepCopyValue(value)
	}

	return copied
}

func deepCopyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return DeepCopyMap(typed)
	case []any:
		copied := make([]any, len(typed))
		for i, item := range typed {
			copied[i] = deepCopyValue(item)
		}

		return copied
	default:
		return value
	}
}
