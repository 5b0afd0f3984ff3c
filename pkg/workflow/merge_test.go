package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatbtn/chatflow/pkg/models"
)

func textResult(text string) *models.ActionExecutionResult {
	result := &models.ActionExecutionResult{Success: true}
	result.SetText(text)

	return result
}

func TestMergeNodeResult_TextAccumulates(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	mergeNodeResult(textResult("first"), aggregate, &parts)
	mergeNodeResult(textResult("second"), aggregate, &parts)

	assert.Equal(t, []string{"first", "second"}, parts)
}

func TestMergeNodeResult_MessageChainIsTerminal(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true, ShouldEditMessage: true}

	parts := []string{"accumulated"}

	chain := textResult("chain sender")
	chain.NewMessageChain = []any{map[string]any{"text": "hello"}}

	mergeNodeResult(chain, aggregate, &parts)

	assert.Empty(t, parts)
	assert.Nil(t, aggregate.NewText)
	assert.False(t, aggregate.ShouldEditMessage)
	assert.Len(t, aggregate.NewMessageChain, 1)

	// Later text no longer accumulates, later menus no longer apply.
	later := textResult("too late")
	later.NextMenuID = "menu-2"

	mergeNodeResult(later, aggregate, &parts)

	assert.Empty(t, parts)
	assert.Empty(t, aggregate.NextMenuID)
}

func TestMergeNodeResult_EmptyChainStillTerminal(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	chain := &models.ActionExecutionResult{Success: true, NewMessageChain: []any{}}

	mergeNodeResult(chain, aggregate, &parts)
	mergeNodeResult(textResult("ignored"), aggregate, &parts)

	assert.NotNil(t, aggregate.NewMessageChain)
	assert.Empty(t, parts)
}

func TestMergeNodeResult_LaterChainReplacesEarlier(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	first := &models.ActionExecutionResult{
		Success:         true,
		NewMessageChain: []any{map[string]any{"text": "one"}},
	}
	second := &models.ActionExecutionResult{
		Success:         true,
		NewMessageChain: []any{map[string]any{"text": "two"}, map[string]any{"text": "three"}},
	}

	mergeNodeResult(first, aggregate, &parts)
	mergeNodeResult(second, aggregate, &parts)

	assert.Len(t, aggregate.NewMessageChain, 2)
}

func TestMergeNodeResult_ParseModeRequiresText(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	withText := textResult("styled")
	withText.ParseMode = "HTML"

	mergeNodeResult(withText, aggregate, &parts)
	assert.Equal(t, "HTML", aggregate.ParseMode)

	// A parse mode without accompanying text must not clobber the earlier one.
	bare := &models.ActionExecutionResult{Success: true, ParseMode: "MarkdownV2"}

	mergeNodeResult(bare, aggregate, &parts)
	assert.Equal(t, "HTML", aggregate.ParseMode)

	empty := textResult("")
	empty.ParseMode = "MarkdownV2"

	mergeNodeResult(empty, aggregate, &parts)
	assert.Equal(t, "HTML", aggregate.ParseMode)
}

func TestMergeNodeResult_LastWriteAndConcatFields(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	first := &models.ActionExecutionResult{
		Success:         true,
		NextMenuID:      "menu-1",
		ButtonTitle:     "Old Title",
		Notification:    map[string]any{"text": "one"},
		WebAppLaunch:    map[string]any{"url": "https://a.example"},
		ButtonOverrides: []map[string]any{{"target": "self"}},
	}
	second := &models.ActionExecutionResult{
		Success:         true,
		NextMenuID:      "menu-2",
		ButtonTitle:     "New Title",
		Notification:    map[string]any{"text": "two"},
		WebAppLaunch:    map[string]any{"url": "https://b.example"},
		ButtonOverrides: []map[string]any{{"target": "btn-2"}},
	}

	mergeNodeResult(first, aggregate, &parts)
	mergeNodeResult(second, aggregate, &parts)

	assert.Equal(t, "menu-2", aggregate.NextMenuID)
	assert.Equal(t, "New Title", aggregate.ButtonTitle)
	assert.Equal(t, map[string]any{"text": "two"}, aggregate.Notification)
	assert.Equal(t, map[string]any{"url": "https://b.example"}, aggregate.WebAppLaunch)
	assert.Len(t, aggregate.ButtonOverrides, 2)
}

func TestMergeNodeResult_WebAppLaunchSurvivesChain(t *testing.T) {
	aggregate := &models.ActionExecutionResult{Success: true}

	var parts []string

	launch := &models.ActionExecutionResult{
		Success:      true,
		WebAppLaunch: map[string]any{"url": "https://app.example"},
	}
	chain := &models.ActionExecutionResult{
		Success:         true,
		NewMessageChain: []any{map[string]any{"text": "new"}},
	}

	mergeNodeResult(launch, aggregate, &parts)
	mergeNodeResult(chain, aggregate, &parts)

	assert.Equal(t, map[string]any{"url": "https://app.example"}, aggregate.WebAppLaunch)
}
