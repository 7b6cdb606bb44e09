// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPreservesOrder(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")

	for i := 0; i < 5; i++ {
		conv.AppendUserMessage(fmt.Sprintf("question %d", i))
		conv.AppendAssistantMessage(fmt.Sprintf("answer %d", i), "")
	}

	require.Equal(t, 10, conv.Len())
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("question %d", i), conv.Messages[2*i].Content)
		assert.Equal(t, fmt.Sprintf("answer %d", i), conv.Messages[2*i+1].Content)
	}
}

func TestAppendIgnoresEmptyInput(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")

	assert.Nil(t, conv.AppendUserMessage(""))
	assert.Equal(t, 0, conv.Len())

	assert.False(t, conv.Append(nil))
	assert.False(t, conv.Append(&Message{Role: RoleUser}))
	assert.Equal(t, 0, conv.Len())
}

func TestClearResetsStateAndPreference(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	for i := 0; i < 5; i++ {
		conv.AppendUserMessage("q")
		conv.AppendAssistantMessage("a", "r")
	}
	conv.ToggleReasoning()
	require.Equal(t, 10, conv.Len())
	require.False(t, conv.ShowReasoning)

	conv.Clear()

	assert.Equal(t, 0, conv.Len())
	assert.True(t, conv.ShowReasoning, "clear resets preference to visible")
	assert.Equal(t, "New Conversation", conv.Title)
}

func TestToggleReasoningTwiceIsIdentity(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	before := conv.ShowReasoning

	conv.ToggleReasoning()
	assert.Equal(t, !before, conv.ShowReasoning)
	conv.ToggleReasoning()
	assert.Equal(t, before, conv.ShowReasoning)

	// Toggling never touches stored messages.
	conv.AppendAssistantMessage("a", "thinking")
	conv.ToggleReasoning()
	assert.Equal(t, "thinking", conv.Messages[0].Reasoning)
}

func TestSubmissionScenario(t *testing.T) {
	// Submit "2+2=?", receive answer "4" with reasoning "Add 2 and 2."
	conv := NewConversation("deepseek-reasoner")

	conv.AppendUserMessage("2+2=?")
	require.Equal(t, 1, conv.Len())
	assert.Equal(t, RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "2+2=?", conv.Messages[0].Content)

	conv.AppendAssistantMessage("4", "Add 2 and 2.")
	require.Equal(t, 2, conv.Len())
	assert.Equal(t, RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "4", conv.Messages[1].Content)
	assert.Equal(t, "Add 2 and 2.", conv.Messages[1].Reasoning)
}

func TestRemoveLastRollsBackFailedSubmission(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	conv.AppendUserMessage("first")
	conv.AppendAssistantMessage("ok", "")

	conv.AppendUserMessage("second")
	require.Equal(t, 3, conv.Len())

	// Completion failed: roll back so the length is unchanged.
	conv.RemoveLast()
	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, "ok", conv.LastMessage().Content)
}

func TestToAPIMessagesProjection(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	conv.AppendUserMessage("q1")
	conv.AppendAssistantMessage("a1", "reasoning never forwarded")
	conv.Append(NewSystemMessage("[Error] transient"))
	conv.AppendUserMessage("q2")

	msgs := conv.ToAPIMessages()
	require.Len(t, msgs, 3, "system lines are excluded")
	assert.Equal(t, APIMessage{Role: "user", Content: "q1"}, msgs[0])
	assert.Equal(t, APIMessage{Role: "assistant", Content: "a1"}, msgs[1])
	assert.Equal(t, APIMessage{Role: "user", Content: "q2"}, msgs[2])
}

func TestToAPIMessagesHistoryWindow(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	conv.MaxHistoryMessages = 4
	for i := 0; i < 6; i++ {
		conv.AppendUserMessage(fmt.Sprintf("q%d", i))
		conv.AppendAssistantMessage(fmt.Sprintf("a%d", i), "")
	}

	msgs := conv.ToAPIMessages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "q4", msgs[0].Content)
	assert.Equal(t, "a5", msgs[3].Content)

	// The stored conversation keeps everything.
	assert.Equal(t, 12, conv.Len())
}

func TestTitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation("deepseek-reasoner")
	conv.AppendUserMessage("What is the capital of France and why is it famous for art history?")
	assert.Equal(t, "What is the capital of France and why is it fam...", conv.Title)
}
