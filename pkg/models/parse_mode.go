package models

import "strings"

// MapParseMode normalizes a user-provided parse mode alias to the canonical
// chat parse mode. Unknown aliases map to "" (plain text).
func MapParseMode(alias string) string {
	switch strings.ToLower(strings.TrimSpace(alias)) {
	case "markdown", "md":
		return "Markdown"
	case "markdownv2", "mdv2":
		return "MarkdownV2"
	case "html":
		return "HTML"
	default:
		return ""
	}
}
