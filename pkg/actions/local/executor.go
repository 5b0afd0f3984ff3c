// Package local executes registered native Go actions with rendered
// parameters.
package local

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/registry"
	"github.com/chatbtn/chatflow/pkg/template"
)

// Executor invokes registered local actions by configured name.
type Executor struct {
	logger   *slog.Logger
	registry *registry.LocalActionRegistry
	engine   *template.Engine
}

func NewExecutor(logger *slog.Logger, reg *registry.LocalActionRegistry, engine *template.Engine) *Executor {
	return &Executor{
		logger:   logger.With("module", "local_executor"),
		registry: reg,
		engine:   engine,
	}
}

// Execute resolves the configured action name, renders its parameters and
// invokes the registered callable. Blocking and non-blocking callables are
// handled transparently: every local action is a plain call that honors the
// passed context.
func (e *Executor) Execute(
	ctx context.Context,
	host any,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	preview bool,
) *models.ActionExecutionResult {
	config := action.Config
	if config == nil {
		config = map[string]any{}
	}

	name, _ := config["name"].(string)
	if name == "" {
		return models.Failure("local action config has no name")
	}

	registered, found := e.registry.Get(name)
	if !found {
		return models.Failure(fmt.Sprintf("unregistered local action '%s'", name))
	}

	if preview {
		result := &models.ActionExecutionResult{Success: true}
		result.SetText(fmt.Sprintf("Preview of local action '%s'.", name))

		return result
	}

	baseContext := e.engine.BuildContext(template.ContextParams{
		Action:    action.AsMap(),
		Button:    button,
		Menu:      menu,
		Runtime:   runtime,
		Variables: runtime.Variables,
	})

	paramConfig, _ := config["parameters"].(map[string]any)
	if paramConfig == nil {
		paramConfig = map[string]any{}
	}

	rendered, err := e.engine.RenderStructure(ctx, paramConfig, baseContext)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to render local action parameters: %v", err))
	}

	params, ok := rendered.(map[string]any)
	if !ok {
		return models.Failure("rendered action parameters must be a map")
	}

	effects, err := registered.Function(ctx, host, runtime, params)
	if err != nil {
		e.logger.Error("Local action failed", "name", name, "error", err)

		return models.Failure(fmt.Sprintf("local action '%s' failed: %v", name, err))
	}

	if effects == nil {
		e.logger.Warn("Local action returned no effect map, ignoring", "name", name)

		effects = map[string]any{}
	}

	result := models.ResultFromEffects(effects)
	result.ShouldEditMessage = result.NewText != nil && result.Text() != ""

	variables, _ := effects["variables"].(map[string]any)
	if variables == nil {
		variables = map[string]any{}
	}

	result.Data = map[string]any{"variables": variables}

	return result
}
