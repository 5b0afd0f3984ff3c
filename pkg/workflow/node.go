package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/otelhelper"
	"github.com/chatbtn/chatflow/pkg/template"
)

// nodeExecution bundles everything one node needs to run.
type nodeExecution struct {
	workflowID string
	host       any
	node       *models.WorkflowNode
	edges      []*models.WorkflowEdge
	button     map[string]any
	menu       map[string]any
	runtime    *models.RuntimeContext
	state      *runState
	preview    bool
	logger     *slog.Logger
}

// executeNode runs a single node: action resolution, input assembly,
// rendering, condition evaluation and adapter dispatch. It returns a result
// for success or skip, and a non-nil error for every fatal outcome.
func (r *Runner) executeNode(ctx context.Context, exec nodeExecution) (*models.ActionExecutionResult, error) {
	nodeID := exec.node.ID

	if exec.node.ActionID == "" {
		exec.logger.Warn("Skipping node without an action_id", "node_id", nodeID)

		return skippedResult(), nil
	}

	resolved, found := r.resolveAction(exec.node.ActionID, exec.state)
	if !found {
		return nil, fmt.Errorf("node '%s' failed: no action definition with ID '%s'",
			nodeID, exec.node.ActionID)
	}

	exec.logger.Info("Executing node",
		"node_id", nodeID, "action_id", exec.node.ActionID, "kind", resolved.Kind)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.node",
		attribute.String(otelhelper.WorkflowIDKey, exec.workflowID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.String(otelhelper.ActionIDKey, exec.node.ActionID),
		attribute.String(otelhelper.ActionKindKey, string(resolved.Kind)),
	)
	defer span.End()

	inputParams := make(map[string]any, len(exec.node.Data))
	maps.Copy(inputParams, exec.node.Data)

	conditionCfg := inputParams[models.ConditionKey]
	delete(inputParams, models.ConditionKey)

	r.resolveEdgeInputs(inputParams, exec)

	// The runtime view shares the global pool so templates observe every
	// merge performed so far.
	currentRuntime := exec.runtime.WithVariables(exec.state.globalVariables)

	renderContext := r.engine.BuildContext(template.ContextParams{
		Action:    exec.node.Data,
		Button:    exec.button,
		Menu:      exec.menu,
		Runtime:   currentRuntime,
		Variables: exec.state.globalVariables,
	})

	rendered, err := r.engine.RenderStructure(ctx, inputParams, renderContext)
	if err != nil {
		return nil, fmt.Errorf("node '%s' hit an unexpected error: %w", nodeID, err)
	}

	renderedParams, ok := rendered.(map[string]any)
	if !ok {
		renderedParams = map[string]any{}
	}

	conditionCtx := template.Context{}
	maps.Copy(conditionCtx, renderContext)
	conditionCtx["inputs"] = renderedParams

	shouldExecute, err := r.evaluateCondition(conditionCfg, nodeID, conditionCtx)
	if err != nil {
		return nil, err
	}

	if !shouldExecute {
		exec.logger.Info("Node condition not met, skipping", "node_id", nodeID)

		return skippedResult(), nil
	}

	result, err := r.dispatch(ctx, exec, resolved, currentRuntime, renderedParams)
	if err != nil {
		return nil, fmt.Errorf("node '%s' (action '%s') hit an unexpected error: %w",
			nodeID, exec.node.ActionID, err)
	}

	if result == nil || !result.Success {
		message := "unknown error"
		if result != nil && result.Error != "" {
			message = result.Error
		}

		return nil, fmt.Errorf("node '%s' (action '%s') failed: %s",
			nodeID, exec.node.ActionID, message)
	}

	return result, nil
}

// resolveAction resolves an action ID, consulting the modular registry first
// (authoritative for new-style actions) and falling back to the legacy
// action table in the snapshot.
func (r *Runner) resolveAction(actionID string, state *runState) (*models.ResolvedAction, bool) {
	if modularAction, found := r.modularRegistry.Get(actionID); found {
		return &models.ResolvedAction{
			Kind:    models.ActionKindModular,
			Modular: modularAction,
		}, true
	}

	if legacy, found := state.snapshot.GetLegacyAction(actionID); found {
		return &models.ResolvedAction{
			Kind:       models.ActionKind(legacy.Kind),
			Definition: legacy,
		}, true
	}

	return nil, false
}

// resolveEdgeInputs overlays upstream outputs onto the node's static data.
// A missing upstream value only logs a warning and leaves the input absent.
func (r *Runner) resolveEdgeInputs(inputParams map[string]any, exec nodeExecution) {
	for _, edge := range exec.edges {
		if edge.TargetNode != exec.node.ID {
			continue
		}

		outputs, haveSource := exec.state.nodeOutputs[edge.SourceNode]
		if haveSource {
			if value, haveOutput := outputs[edge.SourceOutput]; haveOutput {
				inputParams[edge.TargetInput] = value

				continue
			}
		}

		exec.logger.Warn("No value for input from upstream node output",
			"target_input", edge.TargetInput,
			"source_node", edge.SourceNode,
			"source_output", edge.SourceOutput)
	}
}

// dispatch routes the node to the adapter matching its resolved kind.
// Local and HTTP actions read their inputs from runtime variables, so their
// rendered inputs are injected into the global pool first; modular actions
// keep them scoped to input_params.
func (r *Runner) dispatch(
	ctx context.Context,
	exec nodeExecution,
	resolved *models.ResolvedAction,
	currentRuntime *models.RuntimeContext,
	renderedParams map[string]any,
) (*models.ActionExecutionResult, error) {
	switch resolved.Kind {
	case models.ActionKindModular:
		return r.modularExecutor.Execute(ctx, exec.host, resolved.Modular,
			currentRuntime, exec.preview, renderedParams), nil
	case models.ActionKindLocal:
		maps.Copy(currentRuntime.Variables, renderedParams)

		return r.localExecutor.Execute(ctx, exec.host, resolved.Definition,
			exec.button, exec.menu, currentRuntime, exec.preview), nil
	case models.ActionKindHTTP:
		maps.Copy(currentRuntime.Variables, renderedParams)

		return r.httpExecutor.Execute(ctx, resolved.Definition,
			exec.button, exec.menu, currentRuntime, exec.preview), nil
	case models.ActionKindWorkflow:
		return nil, fmt.Errorf("nested workflows are not supported")
	default:
		return nil, fmt.Errorf("unsupported action kind '%s'", resolved.Kind)
	}
}

func skippedResult() *models.ActionExecutionResult {
	return &models.ActionExecutionResult{
		Success: true,
		Data:    map[string]any{"variables": map[string]any{}},
	}
}

// cleanupTempFiles deletes files accumulated during the run. Deletion
// errors are logged, never raised.
func (r *Runner) cleanupTempFiles(logger *slog.Logger, files []string) {
	for _, path := range files {
		if path == "" {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to delete temp file", "path", path, "error", err)
		}
	}
}
