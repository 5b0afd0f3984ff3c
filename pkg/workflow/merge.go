package workflow

import "github.com/chatbtn/chatflow/pkg/models"

// mergeNodeResult folds one node's UI-effect result into the running
// aggregate. Rules apply in fixed order:
//
//  1. A non-nil message chain is terminal: it replaces the aggregate's
//     chain, clears accumulated text and forces should_edit_message false.
//     Later chains replace it, nothing clears it.
//  2. A web-app launch directive always wins last-write.
//  3. While no chain is set, node text is appended for later joining, the
//     menu transition is overwritten, and parse mode is overwritten only
//     when the node also provided text.
//  4. Notification and button title are last-write-wins; button overrides
//     concatenate.
func mergeNodeResult(result *models.ActionExecutionResult, aggregate *models.ActionExecutionResult, textParts *[]string) {
	if result.NewMessageChain != nil {
		aggregate.NewMessageChain = result.NewMessageChain
		aggregate.NewText = nil
		aggregate.ShouldEditMessage = false
		*textParts = (*textParts)[:0]
	}

	if result.WebAppLaunch != nil {
		aggregate.WebAppLaunch = result.WebAppLaunch
	}

	if aggregate.NewMessageChain == nil {
		if result.NewText != nil {
			*textParts = append(*textParts, *result.NewText)
		}

		if result.NextMenuID != "" {
			aggregate.NextMenuID = result.NextMenuID
		}

		if result.ParseMode != "" && result.NewText != nil && *result.NewText != "" {
			aggregate.ParseMode = result.ParseMode
		}
	}

	if result.Notification != nil {
		aggregate.Notification = result.Notification
	}

	if len(result.ButtonOverrides) > 0 {
		aggregate.ButtonOverrides = append(aggregate.ButtonOverrides, result.ButtonOverrides...)
	}

	if result.ButtonTitle != "" {
		aggregate.ButtonTitle = result.ButtonTitle
	}
}
