// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/ui/styles"
)

// =============================================================================
// ERROR BOX
// =============================================================================

// ErrorBox renders a failed request inline in the transcript. The
// conversation itself is untouched; the user resubmits to retry.
type ErrorBox struct {
	theme *styles.Theme
	width int
}

// NewErrorBox creates an error box renderer.
func NewErrorBox(theme *styles.Theme) ErrorBox {
	return ErrorBox{theme: theme, width: 60}
}

// SetWidth constrains the rendered box width.
func (e *ErrorBox) SetWidth(width int) {
	e.width = width
}

// Render formats an error for display. Completion errors get their
// user-facing message plus a resend hint; anything else is shown
// verbatim.
func (e ErrorBox) Render(err error) string {
	if err == nil {
		return ""
	}

	title := e.theme.ErrorTitle.Render("Request failed")

	message := err.Error()
	hint := "Your message was not sent. Press Enter to try again."
	if ce, ok := deepseek.AsCompletionError(err); ok {
		message = ce.UserMessage()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		e.theme.ErrorMessage.Render(message),
		e.theme.ErrorHint.Render(hint),
	)

	box := e.theme.ErrorBox
	if e.width > 0 {
		box = box.Width(e.width)
	}
	return box.Render(body)
}
