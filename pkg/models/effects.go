package models

import "fmt"

// effectKeys are the reserved keys of an action's returned effect map; every
// other key is treated as an output variable by modular actions.
var effectKeys = map[string]struct{}{
	"new_text":            {},
	"parse_mode":          {},
	"next_menu_id":        {},
	"button_overrides":    {},
	"notification":        {},
	"new_message_chain":   {},
	"temp_files_to_clean": {},
	"button_title":        {},
}

// IsEffectKey reports whether key is reserved for UI effects.
func IsEffectKey(key string) bool {
	_, ok := effectKeys[key]

	return ok
}

// ResultFromEffects maps an action's returned effect map onto a successful
// ActionExecutionResult. Success, Data and ShouldEditMessage are left for
// the caller: the adapters disagree on how ShouldEditMessage is derived.
func ResultFromEffects(effects map[string]any) *ActionExecutionResult {
	result := &ActionExecutionResult{Success: true}

	if text, ok := effects["new_text"].(string); ok {
		result.SetText(text)
	}

	parseModeAlias := "html"
	if alias, ok := effects["parse_mode"].(string); ok {
		parseModeAlias = alias
	}

	result.ParseMode = MapParseMode(parseModeAlias)

	if menuID, ok := effects["next_menu_id"].(string); ok {
		result.NextMenuID = menuID
	}

	if title, ok := effects["button_title"].(string); ok {
		result.ButtonTitle = title
	}

	result.ButtonOverrides = ToMapSlice(effects["button_overrides"])

	if notification, ok := effects["notification"].(map[string]any); ok {
		result.Notification = notification
	}

	if chain, ok := effects["new_message_chain"]; ok && chain != nil {
		result.NewMessageChain = ToAnySlice(chain)
	}

	result.TempFilesToClean = ToStringSlice(effects["temp_files_to_clean"])

	return result
}

// ToMapSlice converts []map[string]any or []any-of-maps; anything else is nil.
func ToMapSlice(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		maps := make([]map[string]any, 0, len(typed))

		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				maps = append(maps, m)
			}
		}

		return maps
	default:
		return nil
	}
}

// ToAnySlice converts a slice value to []any, never returning nil for a
// present non-nil value (an empty message chain is still terminal).
func ToAnySlice(value any) []any {
	switch typed := value.(type) {
	case []any:
		if typed == nil {
			return []any{}
		}

		return typed
	case []map[string]any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}

		return items
	case []string:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}

		return items
	default:
		return []any{value}
	}
}

// ToStringSlice converts []string or []any-of-printables; anything else is nil.
func ToStringSlice(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}

		return items
	default:
		return nil
	}
}
