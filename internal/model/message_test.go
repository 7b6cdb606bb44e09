// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "DeepSeek R1", RoleAssistant.DisplayName())
	assert.Equal(t, "System", RoleSystem.DisplayName())
}

func TestStreamingMessageLifecycle(t *testing.T) {
	msg := NewStreamingMessage()
	require.True(t, msg.IsStreaming)
	assert.Equal(t, RoleAssistant, msg.Role)

	msg.AppendReasoningToken("Add 2 ")
	msg.AppendReasoningToken("and 2.")
	msg.AppendToken("4")

	// Partial content is visible while streaming.
	assert.Equal(t, "4", msg.DisplayContent())
	assert.Equal(t, "Add 2 and 2.", msg.DisplayReasoning())

	msg.FinalizeStream()
	assert.False(t, msg.IsStreaming)
	assert.Equal(t, "4", msg.Content)
	assert.Equal(t, "Add 2 and 2.", msg.Reasoning)

	// Finalized messages no longer accept tokens.
	msg.AppendToken("5")
	assert.Equal(t, "4", msg.Content)
}

func TestHasReasoning(t *testing.T) {
	assert.False(t, NewAssistantMessage("answer", "").HasReasoning())
	assert.True(t, NewAssistantMessage("answer", "because").HasReasoning())
}

func TestPreview(t *testing.T) {
	msg := NewUserMessage("line one\nline two")
	assert.Equal(t, "line one line two", msg.Preview(50))

	long := NewUserMessage(strings.Repeat("x", 100))
	assert.Equal(t, strings.Repeat("x", 17)+"...", long.Preview(20))
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateID()
		assert.True(t, strings.HasPrefix(id, "msg_"))
		assert.False(t, seen[id])
		seen[id] = true
	}
}
