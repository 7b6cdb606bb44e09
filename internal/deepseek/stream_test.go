// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEReaderReadEvent(t *testing.T) {
	input := "data: {\"a\":1}\n\ndata: [DONE]\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	data, err = reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", string(data))

	_, err = reader.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestSSEReaderIgnoresNonDataFields(t *testing.T) {
	input := ": keep-alive comment\nid: 42\nevent: message\ndata: payload\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSSEReaderCRLF(t *testing.T) {
	input := "data: one\r\n\r\ndata: two\r\n\r\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	data, err = reader.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

// sseBody builds a streaming response in the reasoner's wire shape:
// reasoning_content deltas, then content deltas, then finish.
func sseBody() string {
	var b strings.Builder
	events := []string{
		`{"model":"deepseek-reasoner","choices":[{"delta":{"role":"assistant","reasoning_content":"Add 2 "},"finish_reason":""}]}`,
		`{"choices":[{"delta":{"reasoning_content":"and 2."},"finish_reason":""}]}`,
		`{"choices":[{"delta":{"content":"4"},"finish_reason":""}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
	}
	for _, e := range events {
		b.WriteString("data: " + e + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestChatStreamSplitsReasoningAndContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseBody())
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	acc := NewStreamAccumulator()

	err := client.ChatStream(context.Background(), history(t, "2+2=?"), acc.Callback())
	require.NoError(t, err)

	assert.Equal(t, "4", acc.Content())
	assert.Equal(t, "Add 2 and 2.", acc.Reasoning())
	assert.True(t, acc.Done)
	assert.Equal(t, "stop", acc.FinishReason)
	assert.Equal(t, "deepseek-reasoner", acc.Model)
	assert.Equal(t, 3, acc.TokenCount)
}

func TestChatStreamSkipsMalformedChunks(t *testing.T) {
	body := "data: not-json\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"\"}]}\n\n" +
		"data: [DONE]\n\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	content, reasoning, err := client.CompleteStream(context.Background(), history(t, "q"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Empty(t, reasoning)
}

func TestChatStreamHTTPErrorMapsToCompletionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API key"}}`))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	err := client.ChatStream(context.Background(), history(t, "q"), func(StreamChunk) {
		t.Fatal("callback must not run on HTTP error")
	})
	require.Error(t, err)
	assert.True(t, IsAuthFailed(err))
}

func TestChatStreamContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sseBody())
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	err := client.ChatStream(ctx, history(t, "q"), func(StreamChunk) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamChunkAccessorsEmpty(t *testing.T) {
	var chunk StreamChunk
	assert.Empty(t, chunk.Content())
	assert.Empty(t, chunk.Reasoning())
	assert.False(t, chunk.IsDone())
	assert.Empty(t, chunk.FinishReason())
}
