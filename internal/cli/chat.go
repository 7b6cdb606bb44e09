// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the r1chat CLI.
//
// Command: chat
// Short:   Plain-terminal interactive chat (no TUI)
//
// Examples:
//   r1chat chat                       Start interactive chat
//   r1chat chat --no-reasoning        Hide reasoning traces
//   r1chat chat -m deepseek-chat      Use a non-reasoning model
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation (also resets reasoning display)
//   /reasoning, /r      Toggle reasoning display
//   /history            Show the conversation so far
//   /export [dir]       Export transcript as plain text
//   /save               Save conversation for later
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/export"
	"github.com/jeranaias/r1chat/internal/mathfmt"
	"github.com/jeranaias/r1chat/internal/model"
	"github.com/jeranaias/r1chat/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI wraps liner for readline-style input with history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history loaded from the
// config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for one interactive chat session.
type ChatSession struct {
	Conversation *model.Conversation
	Config       *config.Config
	Client       *deepseek.Client
	Store        *storage.ConversationStore

	Quiet       bool
	StartTime   time.Time
	TotalTokens int

	// CancelFunc aborts the in-flight stream on Ctrl+C.
	CancelFunc context.CancelFunc

	InputCLI *ChatCLI
}

// NewChatSession creates a session from config and CLI overrides.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()

	client := newClientFromConfig(cfg, args)

	conv := model.NewConversation(client.Model())
	conv.ShowReasoning = cfg.UI.ShowReasoning
	if args.ShowReasoning != nil {
		conv.ShowReasoning = *args.ShowReasoning
	}
	conv.MaxHistoryMessages = cfg.History.MaxMessages
	if args.MaxHistory > 0 {
		conv.MaxHistoryMessages = args.MaxHistory
	}

	// Transcript store is best effort; chat works without it.
	store, err := storage.NewConversationStore()
	if err != nil {
		store = nil
	}

	return &ChatSession{
		Conversation: conv,
		Config:       cfg,
		Client:       client,
		Store:        store,
		Quiet:        args.Quiet,
		StartTime:    time.Now(),
		InputCLI:     NewChatCLI(),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	cfg := config.Global()
	if _, err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	session := NewChatSession(args)
	defer session.InputCLI.Close()

	if !session.Quiet {
		printWelcome(session)
	}

	// First Ctrl+C during generation cancels it; at the prompt liner
	// reports it as ErrPromptAborted.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			if session.CancelFunc != nil {
				session.CancelFunc()
				session.CancelFunc = nil
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// ErrPromptAborted (Ctrl+C) and EOF (Ctrl+D) both exit.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends the conversation plus the new input and streams
// the response. On failure the user message is rolled back, so the
// conversation is exactly as it was before the attempt.
func processMessage(session *ChatSession, input string) error {
	userMsg := session.Conversation.AppendUserMessage(input)
	if userMsg == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.CancelFunc = cancel
	defer func() {
		session.CancelFunc = nil
		cancel()
	}()

	start := time.Now()
	useMarkdown := IsStdoutTTY()
	acc := deepseek.NewStreamAccumulator()
	reasoningStarted := false

	fmt.Println()

	err := session.Client.ChatStream(ctx, session.Conversation.ToAPIMessages(), func(chunk deepseek.StreamChunk) {
		acc.Add(chunk)

		if token := chunk.Reasoning(); token != "" && session.Conversation.ShowReasoning {
			if !reasoningStarted {
				fmt.Println(reasoningHeaderStyle.Render("Reasoning"))
				reasoningStarted = true
			}
			fmt.Print(reasoningStyle.Render(token))
		}

		// Without markdown, stream the answer as it arrives. With
		// markdown, collect and render whole at the end.
		if token := chunk.Content(); token != "" && !useMarkdown {
			fmt.Print(token)
		}
	})

	if err != nil {
		session.Conversation.RemoveLast()
		return describeCompletionError(err)
	}

	if reasoningStarted {
		fmt.Println()
		fmt.Println()
	}

	content := acc.Content()
	if useMarkdown {
		displayAnswer(mathfmt.Inline(content))
	}
	fmt.Println()
	fmt.Println()

	session.Conversation.AppendAssistantMessage(content, acc.Reasoning())
	session.TotalTokens += acc.TokenCount

	if !session.Quiet {
		stats := acc.Stats()
		fmt.Fprintf(os.Stderr, "%s %d tokens | %s\n",
			infoStyle.Render("[Stats]"),
			stats.TokenCount,
			formatDurationShort(time.Since(start)))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands. Returns
// (shouldContinue, error); shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/clear", "/c":
		session.Conversation.Clear()
		fmt.Println(commandStyle.Render("[Conversation cleared, reasoning display reset]"))
		return true, nil

	case "/reasoning", "/r":
		if session.Conversation.ToggleReasoning() {
			fmt.Println(commandStyle.Render("[Reasoning visible]"))
		} else {
			fmt.Println(commandStyle.Render("[Reasoning hidden]"))
		}
		return true, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/export":
		opts := export.DefaultOptions()
		opts.OutputDir = session.Config.Export.OutputDir
		if len(args) > 0 {
			opts.OutputDir = args[0]
		}
		path, err := export.ExportToFile(session.Conversation, export.NewTextExporter(), opts)
		if err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[Exported to " + path + "]"))
		return true, nil

	case "/save":
		if session.Store == nil {
			return true, fmt.Errorf("transcript store unavailable")
		}
		id, err := session.Store.Save(session.Conversation)
		if err != nil {
			return true, err
		}
		fmt.Println(commandStyle.Render("[Saved conversation " + id + "]"))
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil
	}

	return true, fmt.Errorf("unknown command %s (try /help)", command)
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(session *ChatSession) {
	fmt.Println(welcomeStyle.Render("r1chat " + Version))
	fmt.Println(infoStyle.Render("Model: " + session.Client.Model()))

	reasoning := "hidden"
	if session.Conversation.ShowReasoning {
		reasoning = "visible"
	}
	fmt.Println(infoStyle.Render("Reasoning: " + reasoning + " (/reasoning toggles)"))
	fmt.Println(infoStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

func printHelp() {
	fmt.Println(commandStyle.Render("Commands:"))
	fmt.Println("  /help, /h        Show this help")
	fmt.Println("  /clear, /c       Clear conversation and reset reasoning display")
	fmt.Println("  /reasoning, /r   Toggle reasoning display")
	fmt.Println("  /history         Show the conversation so far")
	fmt.Println("  /export [dir]    Export transcript as plain text")
	fmt.Println("  /save            Save conversation for later")
	fmt.Println("  /quit, /q        Exit chat")
	fmt.Println()
}

func printHistory(session *ChatSession) {
	if session.Conversation.Len() == 0 {
		fmt.Println(infoStyle.Render("No messages yet."))
		return
	}

	for _, msg := range session.Conversation.Messages {
		switch msg.Role {
		case model.RoleUser:
			fmt.Println(promptStyle.Render(msg.Role.DisplayName()+":") + " " + msg.Content)
		case model.RoleAssistant:
			if session.Conversation.ShowReasoning && msg.Reasoning != "" {
				fmt.Println(reasoningHeaderStyle.Render("Reasoning:"))
				fmt.Println(reasoningStyle.Render(msg.Reasoning))
			}
			fmt.Println(welcomeStyle.Render(msg.Role.DisplayName()+":") + " " + msg.Content)
		}
		fmt.Println()
	}
}

func printExitSummary(session *ChatSession) {
	if session.Quiet {
		return
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf(
		"Session: %d turns | %d tokens | %s",
		session.Conversation.TurnCount(),
		session.TotalTokens,
		formatDurationShort(time.Since(session.StartTime)))))
}
