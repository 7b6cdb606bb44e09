// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command for the r1chat CLI.
//
// Command: ask
// Short:   Ask a single question and print the answer
//
// Examples:
//   r1chat ask "What is the derivative of x^3?"
//   r1chat ask --no-reasoning "Summarize this" -f notes.txt
//   echo "2+2?" | r1chat ask
//
// On a TTY the reasoning trace streams in dim italics ahead of the
// answer, and the answer renders as markdown. Piped output gets the
// answer only, as plain text.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/model"
)

// MaxContextFileSize caps files included with --file.
const MaxContextFileSize = 512 * 1024

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	cfg := config.Global()
	if _, err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	query := strings.TrimSpace(args.Query)
	if query == "" && !IsTTY() {
		// Piped input becomes the query.
		data, err := io.ReadAll(io.LimitReader(os.Stdin, MaxContextFileSize))
		if err == nil {
			query = strings.TrimSpace(string(data))
		}
	}
	if query == "" {
		return fmt.Errorf("no question given; usage: r1chat ask \"question\"")
	}

	if args.File != "" {
		fileContext, err := readFileForContext(args.File)
		if err != nil {
			return err
		}
		query = fileContext + "\n\n" + query
	}

	client := newClientFromConfig(cfg, args)
	showReasoning := cfg.UI.ShowReasoning
	if args.ShowReasoning != nil {
		showReasoning = *args.ShowReasoning
	}

	messages := []model.APIMessage{{Role: "user", Content: query}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()

	if IsStdoutTTY() {
		return askStreaming(ctx, client, messages, showReasoning, args.Quiet, start)
	}
	return askPlain(ctx, client, messages)
}

// askStreaming streams reasoning and answer live to a TTY.
func askStreaming(ctx context.Context, client *deepseek.Client, messages []model.APIMessage, showReasoning, quiet bool, start time.Time) error {
	acc := deepseek.NewStreamAccumulator()
	reasoningStarted := false

	err := client.ChatStream(ctx, messages, func(chunk deepseek.StreamChunk) {
		acc.Add(chunk)

		if token := chunk.Reasoning(); token != "" && showReasoning {
			if !reasoningStarted {
				fmt.Println(reasoningHeaderStyle.Render("Reasoning"))
				reasoningStarted = true
			}
			fmt.Print(reasoningStyle.Render(token))
		}
	})
	if err != nil {
		return describeCompletionError(err)
	}

	if reasoningStarted {
		fmt.Println()
		fmt.Println()
	}

	displayAnswer(acc.Content())
	fmt.Println()

	if !quiet {
		stats := acc.Stats()
		fmt.Fprintf(os.Stderr, "%s %d tokens | %s\n",
			infoStyle.Render("[Stats]"),
			stats.TokenCount,
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// askPlain prints only the final answer, for pipes and scripts.
func askPlain(ctx context.Context, client *deepseek.Client, messages []model.APIMessage) error {
	content, _, err := client.Complete(ctx, messages)
	if err != nil {
		return describeCompletionError(err)
	}
	fmt.Println(content)
	return nil
}

// readFileForContext reads a file and wraps it for inclusion in a
// prompt. Oversized files are rejected rather than truncated.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}
	if info.Size() > MaxContextFileSize {
		return "", fmt.Errorf("file %s is too large (%d bytes, max %d)", path, info.Size(), MaxContextFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read file %s: %w", path, err)
	}

	return fmt.Sprintf("Context from %s:\n```\n%s\n```", path, strings.TrimSpace(string(data))), nil
}
