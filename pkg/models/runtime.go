package models

import "maps"

// RuntimeContext describes the invocation context an action executes in:
// where the button click came from and the variable pool shared by all nodes
// of one workflow run.
type RuntimeContext struct {
	ChatID       string         `json:"chat_id"`
	ChatType     string         `json:"chat_type,omitempty"`
	MessageID    int            `json:"message_id,omitempty"`
	ThreadID     int            `json:"thread_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	Username     string         `json:"username,omitempty"`
	FullName     string         `json:"full_name,omitempty"`
	CallbackData string         `json:"callback_data,omitempty"`
	Variables    map[string]any `json:"variables"`
}

// Clone returns a copy of the context whose Variables map is detached from
// the receiver's. Nested values are shared.
func (r *RuntimeContext) Clone() *RuntimeContext {
	clone := *r
	clone.Variables = make(map[string]any, len(r.Variables))
	maps.Copy(clone.Variables, r.Variables)

	return &clone
}

// WithVariables returns a copy of the context that reads from the given
// variable pool. The pool is referenced, not copied, so the view tracks
// later merges performed by the runner.
func (r *RuntimeContext) WithVariables(variables map[string]any) *RuntimeContext {
	view := *r
	view.Variables = variables

	return &view
}

// AsMap exposes the context to templates under the runtime namespace.
func (r *RuntimeContext) AsMap() map[string]any {
	return map[string]any{
		"chat_id":       r.ChatID,
		"chat_type":     r.ChatType,
		"message_id":    r.MessageID,
		"thread_id":     r.ThreadID,
		"user_id":       r.UserID,
		"username":      r.Username,
		"full_name":     r.FullName,
		"callback_data": r.CallbackData,
		"variables":     r.Variables,
	}
}
