package httpcall

import (
	"fmt"
	"strings"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/template"
)

// bindVariables applies the parse.variables entries onto the combined
// variable map. Individual binding failures are logged and skipped; they do
// not fail the action.
func (e *Executor) bindVariables(
	parseCfg map[string]any,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	response *responsePayload,
	extracted any,
	combined map[string]any,
	preview bool,
) {
	entries, ok := parseCfg["variables"].([]any)
	if !ok {
		return
	}

	renderContext := e.engine.BuildContext(template.ContextParams{
		Action:    action.AsMap(),
		Button:    button,
		Menu:      menu,
		Runtime:   runtime,
		Response:  responseMap(response),
		Extracted: extracted,
		Variables: combined,
	})

	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		name := getString(entry, "name")
		if name == "" {
			continue
		}

		kind := strings.ToLower(getString(entry, "type"))
		if kind == "" {
			kind = "template"
		}

		switch kind {
		case "template":
			value, err := e.engine.RenderString(getString(entry, "template"), renderContext)
			if err != nil {
				e.logger.Error("Failed to bind response variable",
					"variable", name, "type", kind, "error", err)

				continue
			}

			combined[name] = value
		case extractorJMESPath, extractorJSONPath:
			expression := getString(entry, "expression")
			if expression == "" {
				continue
			}

			value, err := e.applyExtractor(kind, expression, response, preview)
			if err != nil {
				e.logger.Error("Failed to bind response variable",
					"variable", name, "type", kind, "error", err)

				continue
			}

			combined[name] = value
		case "static":
			combined[name] = entry["value"]
		case "runtime":
			combined[name] = runtime.Variables[getString(entry, "key")]
		default:
			e.logger.Warn("Unknown variable binding type, skipping",
				"variable", name, "type", kind)
		}
	}
}

// renderResult evaluates the render section of the config and assembles the
// final ActionExecutionResult.
func (e *Executor) renderResult(
	config map[string]any,
	button map[string]any,
	renderContext template.Context,
	response *responsePayload,
	extracted any,
	variables map[string]any,
) *models.ActionExecutionResult {
	renderCfg := getMap(config, "render")
	messageCfg := getMap(renderCfg, "message")

	var (
		templateStr    string
		parseModeAlias string
		shouldEdit     bool
		nextMenuID     string
	)

	if messageCfg != nil {
		templateStr = getString(messageCfg, "template")
		parseModeAlias = getString(messageCfg, "format")
		shouldEdit = boolOr(messageCfg["update_message"], true)

		nextMenuID = getString(messageCfg, "next_menu_id")
		if nextMenuID == "" {
			nextMenuID = getString(renderCfg, "next_menu_id")
		}
	} else {
		templateStr = getString(renderCfg, "template")
		parseModeAlias = getString(renderCfg, "format")
		shouldEdit = boolOr(renderCfg["update_message"], true)
		nextMenuID = getString(renderCfg, "next_menu_id")
	}

	if parseModeAlias == "" {
		parseModeAlias = "html"
	}

	var overridesCfg []map[string]any
	if messageCfg != nil {
		overridesCfg = append(overridesCfg, models.ToMapSlice(messageCfg["button_overrides"])...)
	}

	overridesCfg = append(overridesCfg, models.ToMapSlice(renderCfg["button_overrides"])...)

	resultText := ""

	if templateStr != "" {
		rendered, err := e.engine.RenderString(templateStr, renderContext)
		if err != nil {
			return models.Failure(fmt.Sprintf("failed to render response template: %v", err))
		}

		resultText = rendered
	}

	overrides := e.engine.RenderButtonOverrides(overridesCfg, renderContext)

	if titleTemplate := getString(renderCfg, "button_title_template"); titleTemplate != "" {
		title, err := e.engine.RenderString(titleTemplate, renderContext)
		if err != nil {
			return models.Failure(fmt.Sprintf("failed to render button title: %v", err))
		}

		overrides = append(overrides, map[string]any{
			"target": "self", "text": title, "temporary": true,
		})
	}

	result := &models.ActionExecutionResult{
		Success:           true,
		ShouldEditMessage: shouldEdit && resultText != "",
		ParseMode:         models.MapParseMode(parseModeAlias),
		NextMenuID:        nextMenuID,
		ButtonOverrides:   overrides,
		ButtonTitle:       selfOverrideText(overrides, button),
		Data: map[string]any{
			"extracted":       extracted,
			"response_status": statusOrNil(response),
			"variables":       variables,
		},
	}

	if resultText != "" {
		result.SetText(resultText)
	}

	return result
}

// selfOverrideText returns the text of the first override targeting the
// invoking button, used as the result's button title.
func selfOverrideText(overrides []map[string]any, button map[string]any) string {
	buttonID := ""
	if button != nil {
		buttonID, _ = button["id"].(string)
	}

	for _, override := range overrides {
		target, _ := override["target"].(string)
		if target != "self" && (buttonID == "" || target != buttonID) {
			continue
		}

		if text, ok := override["text"].(string); ok {
			return text
		}
	}

	return ""
}

func statusOrNil(response *responsePayload) any {
	if response == nil {
		return nil
	}

	return response.StatusCode
}

func boolOr(value any, fallback bool) bool {
	if typed, ok := value.(bool); ok {
		return typed
	}

	return fallback
}
