// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the r1chat TUI: a single conversation view
// with streamed answers and optional reasoning traces.
//
// This file defines the Bubble Tea message types used by the view.
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a completion request went out.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg delivers answer text from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamReasoningMsg delivers reasoning text from the stream.
// Reasoning arrives before the answer on the reasoner models.
type StreamReasoningMsg struct {
	MessageID string
	Token     string
}

// StreamCompleteMsg signals that the stream finished cleanly.
type StreamCompleteMsg struct {
	MessageID string
	Content   string
	Reasoning string
	Elapsed   time.Duration
}

// StreamErrorMsg signals a failed request. The conversation keeps its
// prior state; the submitted message is rolled back so the user can
// resend it.
type StreamErrorMsg struct {
	MessageID string
	Error     error
}

// StreamTickMsg drives batched rendering during streaming.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// SubmitInputMsg signals that the user submitted input.
type SubmitInputMsg struct {
	Content string
}

// ClearConversationMsg resets the conversation to empty.
type ClearConversationMsg struct{}

// ToggleReasoningMsg flips the reasoning display preference.
type ToggleReasoningMsg struct{}

// ExportDoneMsg reports the result of writing a transcript export.
type ExportDoneMsg struct {
	Path  string
	Error error
}

// SaveDoneMsg reports the result of saving the conversation.
type SaveDoneMsg struct {
	ID    string
	Error error
}
