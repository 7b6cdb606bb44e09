// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/r1chat/internal/model"
)

// TextExporter renders a conversation as plain text: one block per
// message in insertion order, blank-line separated.
//
//	You:
//	2+2=?
//
//	DeepSeek R1:
//	4
//
//	Reasoning:
//	Add 2 and 2.
//
// System status lines are skipped; they are UI chrome, not
// conversation content.
type TextExporter struct{}

// NewTextExporter creates a plain text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Export renders the conversation. Pure function of the conversation:
// no timestamps, no environment, no hidden state.
func (e *TextExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	var sb strings.Builder
	first := true
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false

		sb.WriteString(msg.Role.DisplayName())
		sb.WriteString(":\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if msg.Role == model.RoleAssistant && msg.Reasoning != "" {
			sb.WriteString("\nReasoning:\n")
			sb.WriteString(msg.Reasoning)
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".txt".
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the plain text MIME type.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
