// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config and history command handlers for the r1chat CLI.
//
// Commands:
//   r1chat config              Show effective configuration
//   r1chat config path         Show the config file location
//   r1chat config set K V      Set a value and save
//   r1chat history [query]     List or search saved conversations
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/storage"
)

// HandleConfigCommand handles the "config" command.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return showConfig(args)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "set":
		return setConfig(args)
	}
	return fmt.Errorf("unknown config subcommand %q (try show, set, path)", args.Subcommand)
}

// showConfig prints the effective configuration. The API key is shown
// only as a fingerprint.
func showConfig(args Args) error {
	cfg := config.Global()

	keyStatus := "not set"
	if cfg.API.Key != "" {
		keyStatus = "set (" + deepseek.NewClient(cfg.API.Key).KeyFingerprint() + ")"
	}

	if args.JSON {
		return outputJSON(map[string]interface{}{
			"api_key":             keyStatus,
			"base_url":            cfg.API.BaseURL,
			"model":               cfg.API.Model,
			"timeout_secs":        cfg.API.TimeoutSecs,
			"requests_per_minute": cfg.API.RequestsPerMinute,
			"theme":               cfg.UI.Theme,
			"show_reasoning":      cfg.UI.ShowReasoning,
			"max_history":         cfg.History.MaxMessages,
			"export_dir":          cfg.Export.OutputDir,
		})
	}

	fmt.Println(commandStyle.Render("Configuration:"))
	fmt.Printf("  api.key              %s\n", keyStatus)
	fmt.Printf("  api.base_url         %s\n", cfg.API.BaseURL)
	fmt.Printf("  api.model            %s\n", cfg.API.Model)
	fmt.Printf("  api.timeout_secs     %d\n", cfg.API.TimeoutSecs)
	fmt.Printf("  api.requests_per_minute %d\n", cfg.API.RequestsPerMinute)
	fmt.Printf("  ui.theme             %s\n", cfg.UI.Theme)
	fmt.Printf("  ui.show_reasoning    %t\n", cfg.UI.ShowReasoning)
	fmt.Printf("  history.max_messages %d\n", cfg.History.MaxMessages)
	fmt.Printf("  export.output_dir    %s\n", cfg.Export.OutputDir)
	return nil
}

// setConfig updates one key in the config file. Only keys with a
// sensible file representation are settable; the API key itself stays
// in the environment.
func setConfig(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: r1chat config set KEY VALUE")
	}

	cfg := config.Global()
	key := strings.ToLower(args.ConfigKey)
	val := args.ConfigVal

	switch key {
	case "model", "api.model":
		cfg.API.Model = val
	case "base_url", "api.base_url":
		cfg.API.BaseURL = val
	case "timeout_secs", "api.timeout_secs":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("timeout_secs must be a number: %q", val)
		}
		cfg.API.TimeoutSecs = n
	case "requests_per_minute", "api.requests_per_minute":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("requests_per_minute must be a number: %q", val)
		}
		cfg.API.RequestsPerMinute = n
	case "theme", "ui.theme":
		cfg.UI.Theme = val
	case "show_reasoning", "ui.show_reasoning":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("show_reasoning must be true or false: %q", val)
		}
		cfg.UI.ShowReasoning = b
	case "max_messages", "history.max_messages":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("max_messages must be a number: %q", val)
		}
		cfg.History.MaxMessages = n
	case "output_dir", "export.output_dir":
		cfg.Export.OutputDir = val
	default:
		return fmt.Errorf("unknown config key %q", args.ConfigKey)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println(commandStyle.Render("[Saved " + key + "]"))
	return nil
}

// HandleHistoryCommand handles the "history" command.
func HandleHistoryCommand(args Args) error {
	store, err := storage.NewConversationStore()
	if err != nil {
		return err
	}

	var metas []storage.ConversationMeta
	if args.Query != "" {
		metas, err = store.SearchMessages(args.Query)
	} else {
		metas, err = store.List()
	}
	if err != nil {
		return err
	}

	if args.JSON {
		return outputJSON(metas)
	}
	fmt.Print(storage.FormatList(metas))
	return nil
}
