package template

import (
	"fmt"
	"strconv"
)

// templated override fields, keyed by the override entry key holding the
// template for each.
var overrideFieldTemplates = map[string]string{
	"text":                            "text_template",
	"callback_data":                   "callback_template",
	"url":                             "url_template",
	"switch_inline_query":             "switch_inline_query_template",
	"switch_inline_query_current_chat": "switch_inline_query_current_chat_template",
	"web_app_url":                     "web_app_url_template",
}

// RenderButtonOverrides renders button override definitions using the
// provided context. A field whose template fails to render is skipped with a
// warning; the override entry itself survives with its remaining fields.
func (e *Engine) RenderButtonOverrides(overridesCfg []map[string]any, renderCtx Context) []map[string]any {
	rendered := make([]map[string]any, 0, len(overridesCfg))

	for _, entry := range overridesCfg {
		if entry == nil {
			continue
		}

		templates := map[string]string{}

		for field, templateKey := range overrideFieldTemplates {
			if value, ok := entry[templateKey]; ok && value != nil && value != "" {
				templates[field] = fmt.Sprintf("%v", value)
			}
		}

		if layout, ok := entry["layout"].(map[string]any); ok {
			if row, ok := layout["row"]; ok {
				templates["layout_row"] = fmt.Sprintf("%v", row)
			}

			if col, ok := layout["col"]; ok {
				templates["layout_col"] = fmt.Sprintf("%v", col)
			}
		}

		result := map[string]any{
			"target":    "self",
			"temporary": true,
		}

		if target, ok := entry["target"]; ok && target != nil && target != "" {
			result["target"] = target
		}

		if temporary, ok := entry["temporary"].(bool); ok {
			result["temporary"] = temporary
		}

		for field, templateStr := range templates {
			value, err := e.RenderString(templateStr, renderCtx)
			if err != nil {
				e.logger.Warn("Failed to render button override field",
					"field", field, "error", err)

				continue
			}

			result[field] = value
		}

		for _, field := range []string{"type", "action_id", "menu_id", "web_app_id"} {
			if value, ok := entry[field]; ok && value != nil && value != "" {
				result[field] = value
			}
		}

		// untemplated fallbacks
		for _, field := range []string{"text", "callback_data", "url"} {
			if _, ok := result[field]; ok {
				continue
			}

			if value, ok := entry[field]; ok && value != nil && value != "" {
				result[field] = value
			}
		}

		layout := map[string]any{}

		if raw, ok := result["layout_row"]; ok {
			delete(result, "layout_row")

			if row, err := strconv.Atoi(fmt.Sprintf("%v", raw)); err == nil {
				layout["row"] = row
			}
		}

		if raw, ok := result["layout_col"]; ok {
			delete(result, "layout_col")

			if col, err := strconv.Atoi(fmt.Sprintf("%v", raw)); err == nil {
				layout["col"] = col
			}
		}

		if len(layout) > 0 {
			result["layout"] = layout
		}

		for key, value := range result {
			if value == nil || value == "" {
				delete(result, key)
			}
		}

		rendered = append(rendered, result)
	}

	return rendered
}
