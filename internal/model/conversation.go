// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// ShowReasoningDefault is the display preference a new or cleared
// conversation starts with.
const ShowReasoningDefault = true

// APIMessage is the role+content projection sent to the completion
// API. Reasoning is never echoed back: the DeepSeek reasoner rejects
// histories that include its own chain-of-thought.
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the session store. It is owned by exactly one
// session and is not safe for concurrent use; the UI event loop
// serializes all access.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages []*Message

	// Model is the completion model this conversation talks to.
	Model string

	// ShowReasoning controls whether reasoning segments are rendered.
	// Display concern only: toggling never touches stored messages.
	ShowReasoning bool

	// MaxHistoryMessages bounds the history projection sent to the
	// API (0 = send everything). Stored messages are never trimmed.
	MaxHistoryMessages int
}

// NewConversation creates an empty conversation.
func NewConversation(modelName string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:            uuid.NewString(),
		Title:         "New Conversation",
		CreatedAt:     now,
		UpdatedAt:     now,
		Messages:      make([]*Message, 0, 16),
		Model:         modelName,
		ShowReasoning: ShowReasoningDefault,
	}
}

// Append adds a message to the end of the conversation. Messages with
// an empty role, or user/assistant messages with no content, are
// rejected with a no-op (empty input is ignored, not an error).
func (c *Conversation) Append(msg *Message) bool {
	if msg == nil || msg.Role == "" {
		return false
	}
	if !msg.IsStreaming && msg.DisplayContent() == "" && !msg.HasReasoning() {
		return false
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	return true
}

// AppendUserMessage appends a user message, ignoring empty input.
func (c *Conversation) AppendUserMessage(content string) *Message {
	if content == "" {
		return nil
	}
	msg := NewUserMessage(content)
	c.Append(msg)
	return msg
}

// AppendAssistantMessage appends a completed assistant message.
func (c *Conversation) AppendAssistantMessage(content, reasoning string) *Message {
	msg := NewAssistantMessage(content, reasoning)
	if !c.Append(msg) {
		return nil
	}
	return msg
}

// Clear empties the conversation and resets the display preference to
// its default. Irreversible.
func (c *Conversation) Clear() {
	c.Messages = c.Messages[:0]
	c.ShowReasoning = ShowReasoningDefault
	c.Title = "New Conversation"
	c.UpdatedAt = time.Now()
}

// ToggleReasoning flips the reasoning display preference and returns
// the new value. Stored messages are unaffected.
func (c *Conversation) ToggleReasoning() bool {
	c.ShowReasoning = !c.ShowReasoning
	return c.ShowReasoning
}

// Len returns the number of stored messages, system lines included.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// TurnCount returns the number of user/assistant messages.
func (c *Conversation) TurnCount() int {
	n := 0
	for _, msg := range c.Messages {
		if msg.Role == RoleUser || msg.Role == RoleAssistant {
			n++
		}
	}
	return n
}

// LastMessage returns the most recent message, or nil when empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// RemoveLast drops the most recent message. Used only to roll back a
// user message when the completion call failed, keeping the
// conversation exactly as it was before the submission.
func (c *Conversation) RemoveLast() {
	if len(c.Messages) == 0 {
		return
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	c.UpdatedAt = time.Now()
}

// ToAPIMessages builds the history projection for a completion call:
// user and assistant roles only, content only, insertion order,
// bounded by MaxHistoryMessages when set.
func (c *Conversation) ToAPIMessages() []APIMessage {
	out := make([]APIMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		if msg.IsStreaming {
			continue
		}
		out = append(out, APIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	if c.MaxHistoryMessages > 0 && len(out) > c.MaxHistoryMessages {
		out = out[len(out)-c.MaxHistoryMessages:]
	}
	return out
}

// updateTitle derives the title from the first user message.
func (c *Conversation) updateTitle() {
	if c.Title != "New Conversation" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}
