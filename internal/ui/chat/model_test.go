// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/model"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	cfg := config.Default()
	conv := model.NewConversation("deepseek-reasoner")
	m := New(cfg, conv, nil, NewStreamRunner(nil))

	// Size the view so the viewport exists.
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestSubmitEmptyInputIsNoOp(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: ""})
	m = updated.(Model)

	assert.Equal(t, 0, m.Conversation().Len())
	assert.False(t, m.IsStreaming())
}

func TestSubmitAppendsUserAndPlaceholder(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "What is 2+2?"})
	m = updated.(Model)

	require.Equal(t, 2, m.Conversation().Len())
	assert.Equal(t, model.RoleUser, m.Conversation().Messages[0].Role)
	assert.True(t, m.Conversation().Messages[1].IsStreaming)
	assert.True(t, m.IsStreaming())
}

func TestSubmitWhileStreamingIsIgnored(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "first"})
	m = updated.(Model)
	updated, _ = m.Update(SubmitInputMsg{Content: "second"})
	m = updated.(Model)

	assert.Equal(t, 2, m.Conversation().Len())
}

func TestStreamCompleteFinalizesMessage(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "What is 2+2?"})
	m = updated.(Model)
	id := m.Conversation().Messages[1].ID

	updated, _ = m.Update(StreamReasoningMsg{MessageID: id, Token: "Add 2 and 2."})
	m = updated.(Model)
	updated, _ = m.Update(StreamTokenMsg{MessageID: id, Token: "4", IsFirst: true})
	m = updated.(Model)

	updated, _ = m.Update(StreamCompleteMsg{MessageID: id, Content: "4", Reasoning: "Add 2 and 2."})
	m = updated.(Model)

	require.Equal(t, 2, m.Conversation().Len())
	answer := m.Conversation().Messages[1]
	assert.False(t, answer.IsStreaming)
	assert.Equal(t, "4", answer.Content)
	assert.Equal(t, "Add 2 and 2.", answer.Reasoning)
	assert.False(t, m.IsStreaming())
}

func TestStreamCompleteEmptyDropsPlaceholder(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "question"})
	m = updated.(Model)
	id := m.Conversation().Messages[1].ID

	// The stream ends without ever delivering a token.
	updated, _ = m.Update(StreamCompleteMsg{MessageID: id})
	m = updated.(Model)

	require.Equal(t, 1, m.Conversation().Len())
	assert.Equal(t, model.RoleUser, m.Conversation().Messages[0].Role)
	assert.False(t, m.IsStreaming())
}

func TestStreamErrorRollsBackConversation(t *testing.T) {
	m := newTestModel(t)

	// An established exchange that must survive the failure.
	m.Conversation().AppendUserMessage("earlier question")
	m.Conversation().AppendAssistantMessage("earlier answer", "")

	updated, _ := m.Update(SubmitInputMsg{Content: "doomed question"})
	m = updated.(Model)
	require.Equal(t, 4, m.Conversation().Len())
	id := m.Conversation().Messages[3].ID

	updated, _ = m.Update(StreamErrorMsg{MessageID: id, Error: errors.New("connection refused")})
	m = updated.(Model)

	// Conversation is back to its pre-submit state.
	require.Equal(t, 2, m.Conversation().Len())
	assert.Equal(t, "earlier answer", m.Conversation().Messages[1].Content)
	assert.False(t, m.IsStreaming())

	// The failed text is back on the input line for resubmission.
	assert.Equal(t, "doomed question", m.input.Value())
	assert.Error(t, m.lastError)
}

func TestStreamErrorForStaleMessageIgnored(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "question"})
	m = updated.(Model)

	updated, _ = m.Update(StreamErrorMsg{MessageID: "msg_stale", Error: errors.New("late failure")})
	m = updated.(Model)

	assert.Equal(t, 2, m.Conversation().Len())
	assert.True(t, m.IsStreaming())
}

func TestClearResetsConversationAndPreference(t *testing.T) {
	m := newTestModel(t)

	m.Conversation().AppendUserMessage("hello")
	m.Conversation().AppendAssistantMessage("hi", "greeting")
	m.Conversation().ToggleReasoning()
	require.False(t, m.Conversation().ShowReasoning)

	updated, _ := m.Update(ClearConversationMsg{})
	m = updated.(Model)

	assert.Equal(t, 0, m.Conversation().Len())
	assert.True(t, m.Conversation().ShowReasoning)
}

func TestClearIgnoredWhileStreaming(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(SubmitInputMsg{Content: "question"})
	m = updated.(Model)
	updated, _ = m.Update(ClearConversationMsg{})
	m = updated.(Model)

	assert.Equal(t, 2, m.Conversation().Len())
}

func TestToggleReasoningDoubleToggleIsIdentity(t *testing.T) {
	m := newTestModel(t)

	require.True(t, m.Conversation().ShowReasoning)

	updated, _ := m.Update(ToggleReasoningMsg{})
	m = updated.(Model)
	assert.False(t, m.Conversation().ShowReasoning)

	updated, _ = m.Update(ToggleReasoningMsg{})
	m = updated.(Model)
	assert.True(t, m.Conversation().ShowReasoning)
}

func TestToggleAffectsRenderingNotStorage(t *testing.T) {
	m := newTestModel(t)

	m.Conversation().AppendUserMessage("What is 2+2?")
	m.Conversation().AppendAssistantMessage("4", "Add 2 and 2.")
	m.refreshViewport(false)

	visible := m.renderConversation()
	assert.Contains(t, visible, "Add 2 and 2.")

	updated, _ := m.Update(ToggleReasoningMsg{})
	m = updated.(Model)

	hidden := m.renderConversation()
	assert.NotContains(t, hidden, "Add 2 and 2.")
	assert.Contains(t, hidden, "4")

	// The stored message still carries the reasoning.
	assert.Equal(t, "Add 2 and 2.", m.Conversation().Messages[1].Reasoning)
}

func TestViewRendersAfterResize(t *testing.T) {
	m := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "r1chat")
	assert.Contains(t, out, "reasoning visible")
}

func TestHeaderFitsOnOneLine(t *testing.T) {
	m := newTestModel(t)

	// The header must account for its style's horizontal frame or
	// lipgloss wraps it, breaking the fixed-chrome height math.
	header := m.renderHeader()
	assert.Equal(t, 1, lipgloss.Height(header))
	assert.Contains(t, header, "reasoning visible")
}
