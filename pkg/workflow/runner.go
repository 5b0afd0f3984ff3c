// Package workflow is the orchestration core: it loads a workflow
// definition from a snapshot, schedules its nodes topologically, drives
// per-node execution and merges all node results into one aggregated
// outcome.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatbtn/chatflow/pkg/actions/httpcall"
	"github.com/chatbtn/chatflow/pkg/actions/local"
	"github.com/chatbtn/chatflow/pkg/actions/modular"
	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/otelhelper"
	"github.com/chatbtn/chatflow/pkg/persistence"
	"github.com/chatbtn/chatflow/pkg/registry"
	"github.com/chatbtn/chatflow/pkg/template"
)

const tracerName = "github.com/chatbtn/chatflow/pkg/workflow"

// Runner coordinates the execution of workflow-based actions.
type Runner struct {
	logger          *slog.Logger
	store           persistence.SnapshotStore
	modularRegistry *registry.ModularActionRegistry
	engine          *template.Engine
	httpExecutor    *httpcall.Executor
	localExecutor   *local.Executor
	modularExecutor *modular.Executor
	tracer          trace.Tracer
}

func NewRunner(
	logger *slog.Logger,
	store persistence.SnapshotStore,
	modularRegistry *registry.ModularActionRegistry,
	engine *template.Engine,
	httpExecutor *httpcall.Executor,
	localExecutor *local.Executor,
	modularExecutor *modular.Executor,
) *Runner {
	return &Runner{
		logger:          logger.With("module", "workflow_runner"),
		store:           store,
		modularRegistry: modularRegistry,
		engine:          engine,
		httpExecutor:    httpExecutor,
		localExecutor:   localExecutor,
		modularExecutor: modularExecutor,
		tracer:          otel.Tracer(tracerName),
	}
}

// runState is the per-run mutable state: the global variable pool, the
// per-node output maps and the merge accumulator. It is created fresh per
// run and never shared.
type runState struct {
	snapshot        persistence.Snapshot
	nodeOutputs     map[string]map[string]any
	globalVariables map[string]any
	aggregate       *models.ActionExecutionResult
	textParts       []string
	filesToClean    []string
}

// recordNodeOutputs stores a node's declared output variables for later edge
// resolution and merges them into the global pool. A result without the
// variables sub-map only warns and contributes empty outputs; the shipped
// adapters always set it, but the contract tolerates adapters that do not.
func (s *runState) recordNodeOutputs(logger *slog.Logger, nodeID string, result *models.ActionExecutionResult) {
	variables, ok := result.Variables()
	if !ok {
		logger.Warn("Node result has no variables sub-map, treating as empty",
			"node_id", nodeID)

		variables = map[string]any{}
	}

	s.nodeOutputs[nodeID] = variables
	maps.Copy(s.globalVariables, variables)
}

// Run executes the workflow referenced by the action's workflow_id against
// a fresh definition snapshot. The caller observes either full success or a
// single failure result; any partially accumulated state is discarded on
// failure. Accumulated temp files are deleted best-effort on every exit
// path, after the result has been built.
func (r *Runner) Run(
	ctx context.Context,
	host any,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	preview bool,
) (result *models.ActionExecutionResult) {
	workflowID, _ := action.Config["workflow_id"].(string)
	if workflowID == "" {
		return models.Failure("workflow action config has no workflow_id")
	}

	if preview {
		stub := &models.ActionExecutionResult{Success: true}
		stub.SetText(fmt.Sprintf("Preview of workflow '%s'.", workflowID))

		return stub
	}

	runID := "run-" + uuid.New().String()[:8]
	logger := r.logger.With("workflow_id", workflowID, "run_id", runID)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.ChatIDKey, runtime.ChatID),
	)
	defer span.End()

	state := &runState{
		nodeOutputs:     map[string]map[string]any{},
		globalVariables: map[string]any{},
		aggregate:       &models.ActionExecutionResult{Success: true},
	}
	maps.Copy(state.globalVariables, runtime.Variables)

	defer func() {
		if !result.Success {
			otelhelper.SetError(span, fmt.Errorf("%s", result.Error))
		}

		r.cleanupTempFiles(logger, state.filesToClean)
	}()

	snapshot, err := r.store.Snapshot(ctx)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to load button snapshot: %v", err))
	}

	state.snapshot = snapshot

	definition, found := snapshot.GetWorkflow(workflowID)
	if !found {
		return models.Failure(fmt.Sprintf("no workflow found with ID '%s'", workflowID))
	}

	if len(definition.Nodes) == 0 {
		empty := &models.ActionExecutionResult{Success: true}
		empty.SetText("Workflow is empty, execution finished.")

		return empty
	}

	logger.Info("Starting workflow execution", "nodes", len(definition.Nodes))

	order, err := Sort(definition.Nodes, definition.Edges)
	if err != nil {
		message := fmt.Sprintf("workflow '%s' failed: %v", workflowID, err)
		logger.Error("Workflow scheduling failed", "error", err)

		return models.Failure(message)
	}

	for _, nodeID := range order {
		node := definition.Nodes[nodeID]

		nodeResult, nodeErr := r.executeNode(ctx, nodeExecution{
			workflowID: workflowID,
			host:       host,
			node:       node,
			edges:      definition.Edges,
			button:     button,
			menu:       menu,
			runtime:    runtime,
			state:      state,
			preview:    preview,
			logger:     logger,
		})
		if nodeErr != nil {
			logger.Error("Workflow execution aborted", "node_id", nodeID, "error", nodeErr)

			return models.Failure(nodeErr.Error())
		}

		state.filesToClean = append(state.filesToClean, nodeResult.TempFilesToClean...)
		state.recordNodeOutputs(logger, nodeID, nodeResult)

		mergeNodeResult(nodeResult, state.aggregate, &state.textParts)
	}

	final := state.aggregate

	if len(state.textParts) > 0 && final.NewMessageChain == nil {
		final.SetText(strings.Join(state.textParts, "\n"))
	}

	final.ShouldEditMessage = (final.Text() != "" ||
		final.NextMenuID != "" ||
		len(final.ButtonOverrides) > 0 ||
		final.ButtonTitle != "") &&
		final.NewMessageChain == nil
	final.Data = map[string]any{"variables": state.globalVariables}
	final.Success = true
	final.TempFilesToClean = state.filesToClean

	logger.Info("Workflow execution finished")

	return final
}
