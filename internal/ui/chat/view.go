// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/r1chat/internal/mathfmt"
	"github.com/jeranaias/r1chat/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model. The entire screen is rebuilt from the
// current conversation state on every render.
func (m Model) View() string {
	if !m.ready {
		return "Starting r1chat..."
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
	}

	if m.spinner.IsActive() {
		sections = append(sections, m.spinner.View())
	}
	if m.lastError != nil {
		sections = append(sections, m.errorBox.Render(m.lastError))
	}

	sections = append(sections, m.renderInput())
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewportHeight returns the rows left for the transcript after the
// fixed chrome.
func (m Model) viewportHeight() int {
	// Header, input (bordered), status bar.
	chrome := 1 + 3 + 1
	if m.spinner.IsActive() {
		chrome++
	}
	if m.lastError != nil {
		chrome += 4
	}
	if m.showHelp {
		chrome += 3
	}

	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	return h
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("r1chat")
	sub := m.theme.HeaderSubtitle.Render(" " + m.conversation.Model)

	reasoning := "reasoning hidden"
	if m.conversation.ShowReasoning {
		reasoning = "reasoning visible"
	}
	right := m.theme.HeaderSubtitle.Render(reasoning)

	left := title + sub
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) -
		m.theme.Header.GetHorizontalFrameSize()
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	if m.showHelp {
		return m.theme.StatusBar.Width(m.width).Render(m.help.FullHelpView(m.keys.FullHelp()))
	}

	var parts []string
	for _, b := range m.keys.ShortHelp() {
		parts = append(parts,
			m.theme.ShortcutKey.Render(b.Help().Key)+" "+
				m.theme.ShortcutDesc.Render(b.Help().Desc))
	}
	bar := strings.Join(parts, "  ")

	if m.statusNote != "" {
		bar += "  " + m.theme.ThinkingText.Render(m.statusNote)
	}
	return m.theme.StatusBar.Width(m.width).Render(bar)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript content. Called after every
// state change that affects the conversation.
func (m *Model) refreshViewport(gotoBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// renderConversation renders the message list with the current display
// preference applied. Stored reasoning is untouched by the toggle;
// only its rendering changes.
func (m *Model) renderConversation() string {
	if m.conversation.Len() == 0 {
		return m.theme.ThinkingText.Render("\n  Start the conversation. Enter sends, Ctrl+R toggles reasoning.\n")
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}

	var blocks []string
	for _, msg := range m.conversation.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message, width int) string {
	switch msg.Role {
	case model.RoleUser:
		return m.theme.UserLabel.Render(msg.Role.DisplayName()) + "\n" +
			m.theme.UserText.Width(width).Render(msg.DisplayContent())

	case model.RoleAssistant:
		var parts []string
		parts = append(parts, m.theme.AssistantLabel.Render(msg.Role.DisplayName()))

		if m.conversation.ShowReasoning && msg.DisplayReasoning() != "" {
			parts = append(parts,
				m.theme.ReasoningHeader.Render("Reasoning"),
				m.theme.ReasoningText.Width(width).Render(mathfmt.Inline(msg.DisplayReasoning())))
		}

		content := msg.DisplayContent()
		if content == "" && msg.IsStreaming {
			content = "..."
		}
		parts = append(parts, m.theme.AssistantText.Width(width).Render(mathfmt.Inline(content)))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case model.RoleSystem:
		return m.theme.SystemNotice.Width(width).Render(msg.DisplayContent())
	}
	return ""
}
