// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers for CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/deepseek"
)

// newClientFromConfig builds a DeepSeek client from the loaded config
// plus any command-line overrides.
func newClientFromConfig(cfg *config.Config, args Args) *deepseek.Client {
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
	return client
}

// describeCompletionError converts a completion failure into the
// message shown to the user. The taxonomy is small: the request
// failed, nothing was recorded, resubmit to retry.
func describeCompletionError(err error) error {
	if ce, ok := deepseek.AsCompletionError(err); ok {
		return fmt.Errorf("%s", ce.UserMessage())
	}
	return err
}

// formatDurationShort formats a duration as "850ms", "2.3s" or "1m5s".
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

// outputJSON writes data as indented JSON to stdout.
func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
