// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations to downloadable formats.
//
// Every exporter is a pure function of the conversation passed in:
// same conversation, same bytes. Reasoning segments are included
// whenever the message stores one; the UI's show/hide preference is a
// display concern and never changes what an export contains.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/r1chat/internal/model"
	"github.com/jeranaias/r1chat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation to a target format.
type Exporter interface {
	// Export renders the conversation. Must be deterministic for a
	// given conversation state.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures file output.
type Options struct {
	// OutputDir is where exported files land. Default: ".".
	OutputDir string

	// IncludeMetadata adds a metadata header where the format has
	// one (markdown frontmatter). The plain text format never has
	// metadata; it stays a pure rendering of the messages.
	IncludeMetadata bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ExportToFile renders the conversation and writes it under
// opts.OutputDir with a timestamped, sanitized filename. An empty
// OutputDir means the current directory. Returns the written path.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := util.SanitizeFilename(util.TruncateRunes(conv.Title, 40))
	if name == "" {
		name = "conversation"
	}
	filename := fmt.Sprintf("%s_%s%s",
		name,
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}
