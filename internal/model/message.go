// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the conversation data model for r1chat.
//
// A Conversation is the session store: an ordered, append-only list of
// messages plus a session-scoped display preference for reasoning text.
// Messages are immutable once appended; the only destructive operation
// is a wholesale Clear.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a message typed by the user.
	RoleUser Role = "user"
	// RoleAssistant is a model response. Only assistant messages may
	// carry a reasoning segment.
	RoleAssistant Role = "assistant"
	// RoleSystem is an inline status or error line rendered by the UI.
	// System messages are never sent to the API and never exported.
	RoleSystem Role = "system"
)

// DisplayName returns the label used when rendering the message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "DeepSeek R1"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single conversation entry. Content and Reasoning are
// immutable once the message has been appended to a Conversation; the
// streaming builders below exist so a message under construction can
// accumulate tokens before it is finalized.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Reasoning string
	Timestamp time.Time

	// IsStreaming marks a message still receiving tokens.
	IsStreaming bool

	contentBuf   strings.Builder
	reasoningBuf strings.Builder
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates a completed assistant message.
// reasoning may be empty when the API supplied none.
func NewAssistantMessage(content, reasoning string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Content:   content,
		Reasoning: reasoning,
		Timestamp: time.Now(),
	}
}

// NewStreamingMessage creates an empty assistant message that will
// accumulate tokens via AppendToken/AppendReasoningToken.
func NewStreamingMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates an inline status line.
func NewSystemMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// AppendToken adds an answer token to a streaming message.
func (m *Message) AppendToken(token string) {
	if !m.IsStreaming {
		return
	}
	m.contentBuf.WriteString(token)
}

// AppendReasoningToken adds a reasoning token to a streaming message.
func (m *Message) AppendReasoningToken(token string) {
	if !m.IsStreaming {
		return
	}
	m.reasoningBuf.WriteString(token)
}

// FinalizeStream freezes a streaming message. After this call the
// message is immutable like any other.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.contentBuf.String()
	m.Reasoning = m.reasoningBuf.String()
	m.contentBuf.Reset()
	m.reasoningBuf.Reset()
	m.IsStreaming = false
}

// DisplayContent returns the content to render: the finalized content,
// or the partial buffer while streaming.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.contentBuf.String()
	}
	return m.Content
}

// DisplayReasoning returns the reasoning to render, partial while
// streaming.
func (m *Message) DisplayReasoning() string {
	if m.IsStreaming {
		return m.reasoningBuf.String()
	}
	return m.Reasoning
}

// HasReasoning reports whether the API supplied a reasoning segment.
func (m *Message) HasReasoning() bool {
	return m.DisplayReasoning() != ""
}

// Preview returns a single-line, rune-safe preview of the content.
func (m *Message) Preview(maxRunes int) string {
	content := strings.ReplaceAll(m.DisplayContent(), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// EstimateTokens gives a rough token count (about 4 chars per token).
func (m *Message) EstimateTokens() int {
	return (len(m.DisplayContent()) + len(m.DisplayReasoning()) + 3) / 4
}

// generateID returns a random message identifier.
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "msg_" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))
	}
	return "msg_" + hex.EncodeToString(b)
}
