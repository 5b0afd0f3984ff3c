package workflow

import (
	"fmt"
	"strings"

	"github.com/chatbtn/chatflow/pkg/template"
)

// Condition modes. Absent or malformed condition config means always.
const (
	conditionModeAlways     = "always"
	conditionModeNever      = "never"
	conditionModeExpression = "expression"
	conditionModeLinked     = "linked"
)

// evaluateCondition decides whether a node should execute. A template
// failure while evaluating is fatal for the run; an unknown mode logs a
// warning and permits execution (a long-standing quirk callers rely on).
func (r *Runner) evaluateCondition(conditionCfg any, nodeID string, conditionCtx template.Context) (bool, error) {
	config, ok := conditionCfg.(map[string]any)
	if !ok {
		return true, nil
	}

	mode := strings.ToLower(fmt.Sprintf("%v", config["mode"]))
	if config["mode"] == nil {
		mode = conditionModeAlways
	}

	switch mode {
	case "", conditionModeAlways:
		return true, nil
	case conditionModeNever:
		return false, nil
	case conditionModeExpression:
		expression, _ := config["expression"].(string)
		if strings.TrimSpace(expression) == "" {
			r.logger.Warn("Node has an empty expression condition, treating as false",
				"node_id", nodeID)

			return false, nil
		}

		rendered, err := r.engine.RenderString(expression, conditionCtx)
		if err != nil {
			return false, fmt.Errorf("condition evaluation failed for node '%s': %w", nodeID, err)
		}

		return coerceBool(rendered), nil
	case conditionModeLinked:
		link, _ := config["link"].(map[string]any)

		if templateStr, _ := link["template"].(string); templateStr != "" {
			rendered, err := r.engine.RenderString(templateStr, conditionCtx)
			if err != nil {
				return false, fmt.Errorf("condition evaluation failed for node '%s': %w", nodeID, err)
			}

			return coerceBool(rendered), nil
		}

		targetKey, _ := link["target_input"].(string)
		if targetKey == "" {
			targetKey, _ = link["target_input_port"].(string)
		}

		var value any
		if inputs, ok := conditionCtx["inputs"].(map[string]any); ok {
			value = inputs[targetKey]
		}

		return coerceBool(value), nil
	default:
		r.logger.Warn("Node uses an unknown condition mode, executing anyway",
			"node_id", nodeID, "mode", mode)

		return true, nil
	}
}
