package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chatbtn/chatflow/pkg/actions/httpcall"
	"github.com/chatbtn/chatflow/pkg/actions/local"
	"github.com/chatbtn/chatflow/pkg/actions/modular"
	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/persistence"
	"github.com/chatbtn/chatflow/pkg/registry"
	"github.com/chatbtn/chatflow/pkg/template"
)

// ActionExecutor coordinates the different execution strategies for
// actions. It owns the shared template engine and HTTP client and is the
// single entry point the invoking surface calls.
type ActionExecutor struct {
	logger          *slog.Logger
	engine          *template.Engine
	client          *http.Client
	store           persistence.SnapshotStore
	modularRegistry *registry.ModularActionRegistry
	httpExecutor    *httpcall.Executor
	localExecutor   *local.Executor
	modularExecutor *modular.Executor
	runner          *Runner
}

func NewActionExecutor(
	logger *slog.Logger,
	store persistence.SnapshotStore,
	localRegistry *registry.LocalActionRegistry,
	modularRegistry *registry.ModularActionRegistry,
) *ActionExecutor {
	engine := template.NewEngine(logger)
	client := &http.Client{}

	httpExecutor := httpcall.NewExecutor(logger, engine, client)
	localExecutor := local.NewExecutor(logger, localRegistry, engine)
	modularExecutor := modular.NewExecutor(logger)

	return &ActionExecutor{
		logger:          logger.With("module", "action_executor"),
		engine:          engine,
		client:          client,
		store:           store,
		modularRegistry: modularRegistry,
		httpExecutor:    httpExecutor,
		localExecutor:   localExecutor,
		modularExecutor: modularExecutor,
		runner: NewRunner(logger, store, modularRegistry, engine,
			httpExecutor, localExecutor, modularExecutor),
	}
}

// Runner exposes the workflow runner, primarily for the invoking surface to
// trigger workflow actions directly.
func (e *ActionExecutor) Runner() *Runner {
	return e.runner
}

// Close releases shared resources.
func (e *ActionExecutor) Close() {
	e.client.CloseIdleConnections()
}

// Execute dispatches a top-level action by kind.
func (e *ActionExecutor) Execute(
	ctx context.Context,
	host any,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	preview bool,
) *models.ActionExecutionResult {
	kind := action.Kind
	if kind == "" {
		kind = string(models.ActionKindHTTP)
	}

	switch models.ActionKind(kind) {
	case models.ActionKindHTTP:
		return e.httpExecutor.Execute(ctx, action, button, menu, runtime, preview)
	case models.ActionKindLocal:
		return e.localExecutor.Execute(ctx, host, action, button, menu, runtime, preview)
	case models.ActionKindWorkflow:
		return e.runner.Run(ctx, host, action, button, menu, runtime, preview)
	case models.ActionKindModular:
		return e.executeModular(ctx, host, action, button, menu, runtime, preview)
	default:
		return models.Failure(fmt.Sprintf("unknown action kind '%s'", kind))
	}
}

// executeModular resolves a top-level modular action and renders its
// configured inputs before handing off to the modular adapter.
func (e *ActionExecutor) executeModular(
	ctx context.Context,
	host any,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	preview bool,
) *models.ActionExecutionResult {
	actionID, _ := action.Config["action_id"].(string)
	if actionID == "" {
		actionID = action.ID
	}

	modularAction, found := e.modularRegistry.Get(actionID)
	if !found {
		return models.Failure(fmt.Sprintf("unknown modular action ID: %s", actionID))
	}

	baseContext := e.engine.BuildContext(template.ContextParams{
		Action:    action.AsMap(),
		Button:    button,
		Menu:      menu,
		Runtime:   runtime,
		Variables: runtime.Variables,
	})

	inputsCfg, _ := action.Config["inputs"].(map[string]any)
	if inputsCfg == nil {
		inputsCfg = map[string]any{}
	}

	rendered, err := e.engine.RenderStructure(ctx, inputsCfg, baseContext)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to render modular action inputs: %v", err))
	}

	inputs, ok := rendered.(map[string]any)
	if !ok {
		inputs = map[string]any{}
	}

	return e.modularExecutor.Execute(ctx, host, modularAction, runtime, preview, inputs)
}
