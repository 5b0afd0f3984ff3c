package httpcall

import "fmt"

// helpers for walking the loosely typed action config maps.

func getMap(source map[string]any, key string) map[string]any {
	if source == nil {
		return nil
	}

	value, _ := source[key].(map[string]any)

	return value
}

func getString(source map[string]any, key string) string {
	if source == nil {
		return ""
	}

	switch value := source[key].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}

func getFloat(source map[string]any, key string, fallback float64) float64 {
	if source == nil {
		return fallback
	}

	switch value := source[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return fallback
	}
}

// headerTemplates normalizes the two accepted header shapes: a plain map of
// name to value template, or a list of {key|name, value} entries.
func headerTemplates(headersCfg any) map[string]string {
	templates := map[string]string{}

	switch typed := headersCfg.(type) {
	case map[string]any:
		for key, value := range typed {
			if key != "" {
				templates[key] = fmt.Sprintf("%v", value)
			}
		}
	case []any:
		for _, item := range typed {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}

			key := getString(entry, "key")
			if key == "" {
				key = getString(entry, "name")
			}

			if key != "" {
				templates[key] = getString(entry, "value")
			}
		}
	}

	return templates
}
