// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/r1chat/internal/model"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is a single SSE chunk from the streaming endpoint. The
// reasoner interleaves two delta fields: reasoning_content tokens
// arrive first, then content tokens.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role             string `json:"role,omitempty"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

// Content returns the answer delta of the first choice.
func (c *StreamChunk) Content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// Reasoning returns the reasoning delta of the first choice.
func (c *StreamChunk) Reasoning() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.ReasoningContent
	}
	return ""
}

// IsDone reports whether the stream has finished.
func (c *StreamChunk) IsDone() bool {
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != ""
}

// FinishReason returns the finish reason, empty while streaming.
func (c *StreamChunk) FinishReason() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason
	}
	return ""
}

// StreamCallback is called for each received chunk.
type StreamCallback func(chunk StreamChunk)

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a response body.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next event. A blank line terminates an event;
// only data: fields are collected. Returns io.EOF at stream end.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Ignore event:, id:, retry: and comment lines.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream performs a streaming chat completion. The callback runs
// for every chunk; cancellation is via ctx. Like Chat, a failure is
// surfaced once as a *CompletionError and never retried.
func (c *Client) ChatStream(ctx context.Context, messages []model.APIMessage, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return &CompletionError{Message: "request cancelled", Cause: err}
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return &CompletionError{Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return &CompletionError{Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return &CompletionError{Message: "network failure: " + err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.errorFromResponse(resp.StatusCode, body)
	}

	return processStream(ctx, resp.Body, callback)
}

// processStream reads the SSE stream until [DONE] or EOF.
func processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return &CompletionError{Message: "request cancelled", Cause: ctx.Err()}
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &CompletionError{Message: "stream read failure", Cause: err}
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks rather than killing the stream.
			continue
		}

		callback(chunk)
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamStats holds timing collected during streaming.
type StreamStats struct {
	FirstTokenTime time.Duration
	TotalTime      time.Duration
	TokenCount     int
	Model          string
}

// StreamAccumulator reassembles a streamed response into the
// (final_text, reasoning_text | absent) pair the session store needs.
type StreamAccumulator struct {
	content   strings.Builder
	reasoning strings.Builder

	TokenCount   int
	Model        string
	FinishReason string
	StartTime    time.Time
	FirstTokenAt time.Time
	Done         bool
}

// NewStreamAccumulator creates an accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{StartTime: time.Now()}
}

// Add processes one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if r := chunk.Reasoning(); r != "" {
		a.recordToken()
		a.reasoning.WriteString(r)
	}
	if content := chunk.Content(); content != "" {
		a.recordToken()
		a.content.WriteString(content)
	}
	if chunk.Model != "" {
		a.Model = chunk.Model
	}
	if chunk.IsDone() {
		a.Done = true
		a.FinishReason = chunk.FinishReason()
	}
}

func (a *StreamAccumulator) recordToken() {
	a.TokenCount++
	if a.FirstTokenAt.IsZero() {
		a.FirstTokenAt = time.Now()
	}
}

// Content returns the accumulated final answer.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// Reasoning returns the accumulated reasoning segment.
func (a *StreamAccumulator) Reasoning() string {
	return a.reasoning.String()
}

// Callback returns a StreamCallback feeding this accumulator.
func (a *StreamAccumulator) Callback() StreamCallback {
	return func(chunk StreamChunk) { a.Add(chunk) }
}

// Stats returns the collected timing.
func (a *StreamAccumulator) Stats() *StreamStats {
	var ttft time.Duration
	if !a.FirstTokenAt.IsZero() {
		ttft = a.FirstTokenAt.Sub(a.StartTime)
	}
	return &StreamStats{
		FirstTokenTime: ttft,
		TotalTime:      time.Since(a.StartTime),
		TokenCount:     a.TokenCount,
		Model:          a.Model,
	}
}

// CompleteStream streams a completion and returns the reassembled
// (content, reasoning) pair once the stream ends.
func (c *Client) CompleteStream(ctx context.Context, messages []model.APIMessage, callback StreamCallback) (content, reasoning string, err error) {
	acc := NewStreamAccumulator()
	err = c.ChatStream(ctx, messages, func(chunk StreamChunk) {
		acc.Add(chunk)
		if callback != nil {
			callback(chunk)
		}
	})
	if err != nil {
		return "", "", err
	}
	return acc.Content(), acc.Reasoning(), nil
}
