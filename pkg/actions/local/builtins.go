package local

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/registry"
)

// RegisterBuiltins installs the stock local actions shipped with the plugin.
func RegisterBuiltins(reg *registry.LocalActionRegistry) {
	reg.Register("provide_string", provideString,
		"Provide a static or templated string as a variable",
		map[string]string{"value": "the string to provide", "output": "variable name, defaults to 'value'"})

	reg.Register("set_variables", setVariables,
		"Declare every parameter as an output variable",
		map[string]string{"*": "each parameter becomes a variable"})

	reg.Register("delay", delay,
		"Pause the workflow for a number of seconds",
		map[string]string{"seconds": "how long to wait"})

	reg.Register("show_notification", showNotification,
		"Show a popup or toast notification",
		map[string]string{"text": "notification text", "show_alert": "popup instead of toast"})

	reg.Register("send_message", sendMessage,
		"Send a brand-new message instead of editing the current one",
		map[string]string{"text": "message text", "parse_mode": "markdown/html"})

	reg.Register("redirect_button", redirectButton,
		"Navigate to another menu",
		map[string]string{"menu_id": "target menu"})
}

func provideString(_ context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	output, _ := params["output"].(string)
	if output == "" {
		output = "value"
	}

	return map[string]any{
		"variables": map[string]any{output: params["value"]},
	}, nil
}

func setVariables(_ context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	variables := make(map[string]any, len(params))
	for key, value := range params {
		variables[key] = value
	}

	return map[string]any{"variables": variables}, nil
}

func delay(ctx context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	seconds, err := toSeconds(params["seconds"])
	if err != nil {
		return nil, fmt.Errorf("invalid seconds parameter: %w", err)
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{"variables": map[string]any{}}, nil
}

func showNotification(_ context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	text, _ := params["text"].(string)
	showAlert, _ := params["show_alert"].(bool)

	return map[string]any{
		"notification": map[string]any{"text": text, "show_alert": showAlert},
		"variables":    map[string]any{},
	}, nil
}

func sendMessage(_ context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	message := map[string]any{"text": params["text"]}

	if parseMode, ok := params["parse_mode"].(string); ok {
		message["parse_mode"] = models.MapParseMode(parseMode)
	}

	return map[string]any{
		"new_message_chain": []any{message},
		"variables":         map[string]any{},
	}, nil
}

func redirectButton(_ context.Context, _ any, _ *models.RuntimeContext, params map[string]any) (map[string]any, error) {
	menuID, _ := params["menu_id"].(string)
	if menuID == "" {
		return nil, fmt.Errorf("redirect_button requires a menu_id parameter")
	}

	return map[string]any{
		"next_menu_id": menuID,
		"variables":    map[string]any{},
	}, nil
}

func toSeconds(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case int:
		return float64(typed), nil
	case string:
		return strconv.ParseFloat(typed, 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}
