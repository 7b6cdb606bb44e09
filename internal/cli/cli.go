// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and dispatch for r1chat.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Model   string

	// Reasoning display override: nil means use the config value.
	ShowReasoning *bool

	// Command-specific
	Query      string
	File       string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// History limit override (0 = unbounded)
	MaxHistory int

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `r1chat - terminal client for DeepSeek R1

r1chat talks to the DeepSeek reasoning models and shows the chain of
thought alongside each answer. The reasoning display can be toggled at
any time; hiding it never discards it.

Usage:
  r1chat                     Start the TUI (default)
  r1chat ask "question"      Ask a single question
  r1chat chat                Plain-terminal interactive chat
  r1chat history [search]    List or search saved conversations
  r1chat config [show|set|path]  Configuration
  r1chat version             Show version
  r1chat help                Show this help

Global flags:
  -m, --model NAME     Override the model (default: deepseek-reasoner)
  --reasoning          Show reasoning traces (default)
  --no-reasoning       Hide reasoning traces
  --max-history N      Send only the last N messages per request
  -q, --quiet          Minimal output
  -v, --verbose        Verbose output
  --json               JSON output where supported

Ask flags:
  -f, --file PATH      Include a file as context

Environment:
  DEEPSEEK_API_KEY     API key (required)
  R1CHAT_BASE_URL      Override API base URL
  R1CHAT_MODEL         Override model

Examples:
  r1chat
  r1chat ask "What is the derivative of x^3?"
  r1chat ask --no-reasoning "Summarize this" -f notes.txt
  r1chat chat
  r1chat history quicksort

Version: %s
`

// PrintUsage prints top-level usage to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("r1chat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "history", "sessions":
		if len(remaining) > 0 {
			args.Query = strings.Join(remaining, " ")
		}
		return CmdHistory, args

	case "config":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "version", "--version", "-V":
		return CmdVersion, args

	case "help", "--help", "-h":
		return CmdHelp, args
	}

	// Unknown first argument: treat everything as an ask query, so
	// `r1chat "why is the sky blue"` works.
	args.Query = strings.TrimSpace(cmd + " " + strings.Join(remaining, " "))
	return CmdAsk, args
}

// parseGlobalFlags extracts flags valid for every command.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	i := 0
	for i < len(argv) {
		arg := argv[i]

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--reasoning":
			v := true
			args.ShowReasoning = &v
		case "--no-reasoning":
			v := false
			args.ShowReasoning = &v
		case "-m", "--model":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case "--max-history":
			if i+1 < len(argv) {
				i++
				if n, err := strconv.Atoi(argv[i]); err == nil && n >= 0 {
					args.MaxHistory = n
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				args.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--max-history="):
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-history=")); err == nil && n >= 0 {
					args.MaxHistory = n
				}
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, args
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config subcommands: show, set KEY VALUE, path.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}

	args.Subcommand = strings.ToLower(remaining[0])
	if args.Subcommand == "set" && len(remaining) >= 3 {
		args.ConfigKey = remaining[1]
		args.ConfigVal = remaining[2]
	}
}
