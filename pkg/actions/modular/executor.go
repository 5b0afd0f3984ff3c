// Package modular executes schema-declared modular actions: declared input
// defaults, required-input validation and output variable splitting.
package modular

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/chatbtn/chatflow/pkg/models"
)

// Executor invokes modular actions registered through the WebUI.
type Executor struct {
	logger *slog.Logger
}

func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger.With("module", "modular_executor")}
}

// Execute validates the input parameters against the action's declared
// inputs (applying defaults first), then invokes the action and splits its
// returned map into UI effects and output variables.
func (e *Executor) Execute(
	ctx context.Context,
	host any,
	action *models.ModularAction,
	runtime *models.RuntimeContext,
	preview bool,
	inputParams map[string]any,
) *models.ActionExecutionResult {
	if preview {
		result := &models.ActionExecutionResult{Success: true}
		result.SetText(fmt.Sprintf("Preview of modular action '%s'.", action.Name))

		return result
	}

	params, missing := resolveInputs(action, inputParams)
	if len(missing) > 0 {
		message := fmt.Sprintf("modular action '%s' failed: missing inputs: %s",
			action.Name, strings.Join(missing, ", "))
		e.logger.Error("Missing modular action inputs",
			"action_id", action.ID, "missing", missing)

		return models.Failure(message)
	}

	if action.InputSchema != nil {
		if err := validateSchema(action.InputSchema, params); err != nil {
			return models.Failure(fmt.Sprintf(
				"modular action '%s' input validation failed: %v", action.Name, err))
		}
	}

	effects, err := action.Execute(ctx, host, runtime, params)
	if err != nil {
		e.logger.Error("Modular action failed", "action_id", action.ID, "error", err)

		return models.Failure(fmt.Sprintf("modular action '%s' failed: %v", action.Name, err))
	}

	if effects == nil {
		e.logger.Warn("Modular action returned no effect map, ignoring", "action_id", action.ID)

		effects = map[string]any{}
	}

	// Everything outside the reserved effect keys is an output variable.
	outputVariables := map[string]any{}

	for key, value := range effects {
		if !models.IsEffectKey(key) {
			outputVariables[key] = value
		}
	}

	result := models.ResultFromEffects(effects)
	result.Data = map[string]any{"variables": outputVariables}
	result.ShouldEditMessage = (result.NewText != nil && result.Text() != "") ||
		result.NextMenuID != "" ||
		len(result.ButtonOverrides) > 0 ||
		result.ButtonTitle != ""

	return result
}

// resolveInputs applies declared defaults and collects the names of every
// required input that is still absent.
func resolveInputs(action *models.ModularAction, inputParams map[string]any) (map[string]any, []string) {
	params := map[string]any{}

	var missing []string

	for _, input := range action.Inputs {
		if value, ok := inputParams[input.Name]; ok {
			params[input.Name] = value

			continue
		}

		if input.HasDefault {
			params[input.Name] = input.Default

			continue
		}

		if input.Required {
			missing = append(missing, input.Name)
		}
	}

	return params, missing
}

func validateSchema(schema map[string]any, params map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("schema evaluation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		messages = append(messages, issue.String())
	}

	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
