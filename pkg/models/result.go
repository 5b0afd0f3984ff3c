package models

// ActionExecutionResult is the UI-effect outcome of executing a single
// action, and also the aggregated outcome of a whole workflow run.
//
// NewMessageChain is nil unless the action asked for a brand-new message to
// be sent instead of editing the existing one; a non-nil (even empty) chain
// is terminal and suppresses text-based merging for the rest of the run.
type ActionExecutionResult struct {
	Success           bool             `json:"success"`
	ShouldEditMessage bool             `json:"should_edit_message"`
	NewText           *string          `json:"new_text,omitempty"`
	ParseMode         string           `json:"parse_mode,omitempty"`
	NextMenuID        string           `json:"next_menu_id,omitempty"`
	Error             string           `json:"error,omitempty"`
	Data              map[string]any   `json:"data,omitempty"`
	ButtonTitle       string           `json:"button_title,omitempty"`
	ButtonOverrides   []map[string]any `json:"button_overrides,omitempty"`
	Notification      map[string]any   `json:"notification,omitempty"`
	WebAppLaunch      map[string]any   `json:"web_app_launch,omitempty"`
	NewMessageChain   []any            `json:"new_message_chain,omitempty"`
	TempFilesToClean  []string         `json:"temp_files_to_clean,omitempty"`
}

// Failure builds a failed result carrying a human-readable error.
func Failure(message string) *ActionExecutionResult {
	return &ActionExecutionResult{Success: false, Error: message}
}

// SetText assigns the result text. Use instead of taking the address of a
// loop variable.
func (r *ActionExecutionResult) SetText(text string) {
	r.NewText = &text
}

// Text returns the result text, or "" when none is set.
func (r *ActionExecutionResult) Text() string {
	if r.NewText == nil {
		return ""
	}

	return *r.NewText
}

// Variables returns the result's declared output namespace: the variables
// sub-map of Data. The second return is false when the sub-map is absent or
// not a map, which callers treat as empty (a soft warning, not an error).
func (r *ActionExecutionResult) Variables() (map[string]any, bool) {
	if r.Data == nil {
		return nil, false
	}

	variables, ok := r.Data["variables"].(map[string]any)

	return variables, ok
}
