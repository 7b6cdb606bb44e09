// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/export"
	"github.com/jeranaias/r1chat/internal/model"
	"github.com/jeranaias/r1chat/internal/storage"
	"github.com/jeranaias/r1chat/internal/ui/components"
	"github.com/jeranaias/r1chat/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// viewState tracks what the chat view is doing.
type viewState int

const (
	stateReady viewState = iota
	stateStreaming
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It owns one
// conversation and reflects every change through a full re-render.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  components.Spinner
	errorBox components.ErrorBox
	help     help.Model

	conversation *model.Conversation
	store        *storage.ConversationStore
	runner       *StreamRunner
	exportOpts   *export.Options

	state        viewState
	streamingMsg *model.Message
	answerBuf    *StreamingBuffer
	reasoningBuf *StreamingBuffer
	cancelStream context.CancelFunc

	// lastSubmitted holds the user text of the in-flight request so a
	// failed request can restore it to the input line.
	lastSubmitted string
	lastError     error
	statusNote    string

	width    int
	height   int
	ready    bool
	showHelp bool
}

// New creates the chat view. The runner may carry a nil program at
// construction time; the caller attaches it before the first submit.
func New(cfg *config.Config, conv *model.Conversation, store *storage.ConversationStore, runner *StreamRunner) Model {
	theme := styles.ForConfigTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Ask anything..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.TextStyle = theme.InputText
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 0
	input.Focus()

	conv.ShowReasoning = cfg.UI.ShowReasoning
	conv.MaxHistoryMessages = cfg.History.MaxMessages

	return Model{
		theme:        theme,
		keys:         DefaultKeyMap(),
		input:        input,
		spinner:      components.NewSpinner(theme),
		errorBox:     components.NewErrorBox(theme),
		help:         help.New(),
		conversation: conv,
		store:        store,
		runner:       runner,
		exportOpts:   &export.Options{OutputDir: cfg.Export.OutputDir, IncludeMetadata: true},
		answerBuf:    NewStreamingBuffer(),
		reasoningBuf: NewStreamingBuffer(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Conversation exposes the underlying conversation, mainly for tests.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// IsStreaming reports whether a request is in flight.
func (m Model) IsStreaming() bool {
	return m.state == stateStreaming
}
