// r1chat - a terminal client for the DeepSeek R1 reasoning models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/r1chat/internal/cli"
	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/model"
	"github.com/jeranaias/r1chat/internal/storage"
	"github.com/jeranaias/r1chat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOnError(cli.HandleAskCommand(args))
	case cli.CmdChat:
		exitOnError(cli.HandleChatCommand(args))
	case cli.CmdHistory:
		exitOnError(cli.HandleHistoryCommand(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfigCommand(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) {
	cfg := config.Global()

	// A missing credential is fatal at startup. Everything else about
	// the API surfaces inline once a request is actually made.
	if _, err := cfg.RequireAPIKey(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := deepseek.NewClient(cfg.API.Key).
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.API.Model).
		WithTimeout(time.Duration(cfg.API.TimeoutSecs) * time.Second)
	if cfg.API.RequestsPerMinute > 0 {
		client = client.WithRequestsPerMinute(cfg.API.RequestsPerMinute)
	}
	if args.Model != "" {
		client = client.WithModel(args.Model)
	}

	if args.ShowReasoning != nil {
		cfg.UI.ShowReasoning = *args.ShowReasoning
	}
	if args.MaxHistory > 0 {
		cfg.History.MaxMessages = args.MaxHistory
	}

	conv := model.NewConversation(client.Model())

	// Transcript persistence is best effort. The chat still works when
	// the conversations directory cannot be created.
	store, err := storage.NewConversationStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: transcript storage unavailable: %v\n", err)
		store = nil
	}

	runner := chat.NewStreamRunner(client)
	m := chat.New(cfg, conv, store, runner)

	p := tea.NewProgram(m, tea.WithAltScreen())
	runner.SetProgram(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running r1chat: %v\n", err)
		os.Exit(1)
	}
}
