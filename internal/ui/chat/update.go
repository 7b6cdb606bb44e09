// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/export"
	"github.com/jeranaias/r1chat/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)

	case SubmitInputMsg:
		return m.handleSubmit(msg)
	case ClearConversationMsg:
		return m.handleClear()
	case ToggleReasoningMsg:
		return m.handleToggle()

	case StreamStartMsg:
		return m.handleStreamStart(msg)
	case StreamTokenMsg:
		m.answerBuf.Write(msg.Token)
		return m, nil
	case StreamReasoningMsg:
		m.reasoningBuf.Write(msg.Token)
		return m, nil
	case StreamTickMsg:
		return m.handleStreamTick()
	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case ExportDoneMsg:
		if msg.Error != nil {
			m.statusNote = "Export failed: " + msg.Error.Error()
		} else {
			m.statusNote = "Exported to " + msg.Path
		}
		return m, nil
	case SaveDoneMsg:
		if msg.Error != nil {
			m.statusNote = "Save failed: " + msg.Error.Error()
		} else {
			m.statusNote = "Conversation saved"
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

// updateComponents forwards messages the view did not consume to the
// input, viewport, and spinner.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancelStream != nil {
			m.cancelStream()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		content := strings.TrimSpace(m.input.Value())
		return m, func() tea.Msg { return SubmitInputMsg{Content: content} }

	case key.Matches(msg, m.keys.Cancel):
		return m.handleCancel()

	case key.Matches(msg, m.keys.Clear):
		return m, func() tea.Msg { return ClearConversationMsg{} }

	case key.Matches(msg, m.keys.Toggle):
		return m, func() tea.Msg { return ToggleReasoningMsg{} }

	case key.Matches(msg, m.keys.Export):
		return m, exportCmd(m.conversation, m.exportOpts)

	case key.Matches(msg, m.keys.Save):
		return m, saveCmd(m)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m.resized(), nil
	}

	return m.updateComponents(msg)
}

func (m Model) handleCancel() (tea.Model, tea.Cmd) {
	if m.state != stateStreaming {
		return m, nil
	}
	if m.cancelStream != nil {
		m.cancelStream()
	}
	// The context cancellation surfaces as a StreamErrorMsg, which
	// rolls the submitted message back.
	return m, nil
}

// =============================================================================
// CONVERSATION HANDLING
// =============================================================================

func (m Model) handleSubmit(msg SubmitInputMsg) (tea.Model, tea.Cmd) {
	if m.state == stateStreaming {
		return m, nil
	}

	// Empty input is a no-op, not an error.
	userMsg := m.conversation.AppendUserMessage(msg.Content)
	if userMsg == nil {
		return m, nil
	}

	m.lastSubmitted = msg.Content
	m.lastError = nil
	m.statusNote = ""
	m.input.SetValue("")

	history := m.conversation.ToAPIMessages()

	streaming := model.NewStreamingMessage()
	m.conversation.Append(streaming)
	m.streamingMsg = streaming
	m.answerBuf.Reset()
	m.reasoningBuf.Reset()
	m.state = stateStreaming

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	go m.runner.Run(ctx, history, streaming.ID)

	m.refreshViewport(true)
	return m, tea.Batch(m.spinner.Start(), streamTickCmd())
}

func (m Model) handleClear() (tea.Model, tea.Cmd) {
	if m.state == stateStreaming {
		return m, nil
	}
	m.conversation.Clear()
	m.lastError = nil
	m.statusNote = ""
	m.refreshViewport(false)
	return m, nil
}

func (m Model) handleToggle() (tea.Model, tea.Cmd) {
	m.conversation.ToggleReasoning()
	m.refreshViewport(false)
	return m, nil
}

// =============================================================================
// STREAM HANDLING
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	m.spinner.SetMessage("Thinking")
	return m, nil
}

// handleStreamTick drains the token buffers into the streaming message
// and schedules the next frame.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != stateStreaming {
		return m, nil
	}

	changed := false
	if chunk, ok := m.reasoningBuf.Flush(); ok {
		m.streamingMsg.AppendReasoningToken(chunk)
		changed = true
	}
	if chunk, ok := m.answerBuf.Flush(); ok {
		m.streamingMsg.AppendToken(chunk)
		m.spinner.SetMessage("Answering")
		changed = true
	}

	if changed {
		m.refreshViewport(true)
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if m.streamingMsg == nil || msg.MessageID != m.streamingMsg.ID {
		return m, nil
	}

	if chunk, ok := m.reasoningBuf.ForceFlush(); ok {
		m.streamingMsg.AppendReasoningToken(chunk)
	}
	if chunk, ok := m.answerBuf.ForceFlush(); ok {
		m.streamingMsg.AppendToken(chunk)
	}
	m.streamingMsg.FinalizeStream()

	// A stream that delivered nothing leaves no assistant message;
	// empty content never enters the conversation.
	if m.streamingMsg.Content == "" && m.streamingMsg.Reasoning == "" {
		m.conversation.RemoveLast()
	}

	m.state = stateReady
	m.streamingMsg = nil
	m.cancelStream = nil
	m.lastSubmitted = ""
	m.spinner.Stop()

	m.refreshViewport(true)
	return m, nil
}

// handleStreamError rolls the conversation back to its state before
// the submit. The failed exchange leaves no trace in history; the
// input line gets the text back so Enter resends it.
func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if m.streamingMsg == nil || msg.MessageID != m.streamingMsg.ID {
		return m, nil
	}

	m.conversation.RemoveLast() // streaming placeholder
	m.conversation.RemoveLast() // submitted user message

	m.state = stateReady
	m.streamingMsg = nil
	m.cancelStream = nil
	m.lastError = msg.Error
	m.spinner.Stop()
	m.answerBuf.Reset()
	m.reasoningBuf.Reset()

	m.input.SetValue(m.lastSubmitted)
	m.input.CursorEnd()

	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	if !m.ready {
		m.viewport = viewport.New(msg.Width, m.viewportHeight())
		m.ready = true
	}
	return m.resized(), nil
}

// resized recomputes the viewport dimensions from the current size.
func (m Model) resized() Model {
	if !m.ready {
		return m
	}
	m.viewport.Width = m.width
	m.viewport.Height = m.viewportHeight()
	m.input.Width = m.width - 4
	m.refreshViewport(false)
	return m
}

// =============================================================================
// COMMANDS
// =============================================================================

// exportCmd writes the transcript as plain text.
func exportCmd(conv *model.Conversation, opts *export.Options) tea.Cmd {
	return func() tea.Msg {
		path, err := export.ExportToFile(conv, export.NewTextExporter(), opts)
		return ExportDoneMsg{Path: path, Error: err}
	}
}

// saveCmd persists the conversation to the transcript store.
func saveCmd(m Model) tea.Cmd {
	conv := m.conversation
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return SaveDoneMsg{Error: errors.New("no transcript store configured")}
		}
		id, err := store.Save(conv)
		return SaveDoneMsg{ID: id, Error: err}
	}
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner bridges the DeepSeek stream into the Bubble Tea loop.
// It runs on its own goroutine and delivers every event through
// program.Send.
type StreamRunner struct {
	program *tea.Program
	client  *deepseek.Client
}

// NewStreamRunner creates a runner. The program is attached after the
// tea.Program exists via SetProgram.
func NewStreamRunner(client *deepseek.Client) *StreamRunner {
	return &StreamRunner{client: client}
}

// SetProgram attaches the running program.
func (r *StreamRunner) SetProgram(p *tea.Program) {
	r.program = p
}

// Run executes one streaming completion. Any failure is reported once
// as a StreamErrorMsg; the request is never reissued.
func (r *StreamRunner) Run(ctx context.Context, messages []model.APIMessage, messageID string) {
	if r.program == nil {
		return
	}
	if r.client == nil {
		r.program.Send(StreamErrorMsg{
			MessageID: messageID,
			Error:     deepseek.ErrNotConfigured,
		})
		return
	}

	r.program.Send(StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	})

	start := time.Now()
	isFirst := true
	var content, reasoning strings.Builder

	err := r.client.ChatStream(ctx, messages, func(chunk deepseek.StreamChunk) {
		if token := chunk.Reasoning(); token != "" {
			reasoning.WriteString(token)
			r.program.Send(StreamReasoningMsg{
				MessageID: messageID,
				Token:     token,
			})
		}
		if token := chunk.Content(); token != "" {
			content.WriteString(token)
			r.program.Send(StreamTokenMsg{
				MessageID: messageID,
				Token:     token,
				IsFirst:   isFirst,
			})
			isFirst = false
		}
	})

	if err != nil {
		r.program.Send(StreamErrorMsg{
			MessageID: messageID,
			Error:     err,
		})
		return
	}

	r.program.Send(StreamCompleteMsg{
		MessageID: messageID,
		Content:   content.String(),
		Reasoning: reasoning.String(),
		Elapsed:   time.Since(start),
	})
}
