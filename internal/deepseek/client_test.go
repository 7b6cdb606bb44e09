// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/r1chat/internal/model"
)

func history(t *testing.T, pairs ...string) []model.APIMessage {
	t.Helper()
	msgs := make([]model.APIMessage, 0, len(pairs))
	role := "user"
	for _, content := range pairs {
		msgs = append(msgs, model.APIMessage{Role: role, Content: content})
		if role == "user" {
			role = "assistant"
		} else {
			role = "user"
		}
	}
	return msgs
}

func TestChatNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Chat(context.Background(), history(t, "hi"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "deepseek-reasoner",
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "4",
					"reasoning_content": "Add 2 and 2."
				},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 8, "completion_tokens": 12, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	resp, err := client.Chat(context.Background(), history(t, "2+2=?"))
	require.NoError(t, err)

	assert.Equal(t, "4", resp.Content())
	assert.Equal(t, "Add 2 and 2.", resp.Reasoning())
	assert.Equal(t, 20, resp.Usage.TotalTokens)
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"auth failure", http.StatusUnauthorized,
			`{"error": {"code": "invalid_api_key", "message": "Invalid API key"}}`, ErrAuthFailed},
		{"rate limit", http.StatusTooManyRequests,
			`{"error": {"message": "Rate limit reached"}}`, ErrRateLimited},
		{"insufficient balance", http.StatusPaymentRequired,
			`{"error": {"message": "Insufficient Balance"}}`, ErrInsufficientBalance},
		{"model not found", http.StatusNotFound,
			`{"error": {"message": "Model does not exist"}}`, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("sk-test").WithBaseURL(server.URL)
			_, err := client.Chat(context.Background(), history(t, "hi"))
			require.Error(t, err)

			assert.ErrorIs(t, err, tt.sentinel)
			ce, ok := AsCompletionError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, ce.Status)
			assert.NotEmpty(t, ce.UserMessage())
		})
	}
}

func TestChatDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "server exploded"}}`))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	_, err := client.Chat(context.Background(), history(t, "hi"))
	require.Error(t, err)

	// One failure, one request. The adapter never retries; the user
	// resubmits manually.
	assert.Equal(t, int32(1), calls.Load())

	ce, ok := AsCompletionError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Contains(t, ce.Message, "server exploded")
}

func TestChatUnparseableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	_, err := client.Chat(context.Background(), history(t, "hi"))
	require.Error(t, err)

	ce, ok := AsCompletionError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ce.Status)
	assert.Contains(t, ce.Message, "upstream timeout")
}

func TestCompleteSplitsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"choices": [{
				"message": {"role": "assistant", "content": "answer", "reasoning_content": ""},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	content, reasoning, err := client.Complete(context.Background(), history(t, "q"))
	require.NoError(t, err)
	assert.Equal(t, "answer", content)
	assert.Empty(t, reasoning, "reasoning absent when the API supplied none")
}

func TestKeyFingerprint(t *testing.T) {
	client := NewClient("sk-test")
	fp := client.KeyFingerprint()
	assert.Len(t, fp, 8)
	assert.NotContains(t, fp, "sk-")
	assert.Equal(t, "none", NewClient("").KeyFingerprint())
}

func TestBuilderOptions(t *testing.T) {
	client := NewClient("sk-test").
		WithModel("deepseek-chat").
		WithRequestsPerMinute(30)

	assert.Equal(t, "deepseek-chat", client.Model())
	assert.NotNil(t, client.limiter)

	client.WithRequestsPerMinute(0)
	assert.Nil(t, client.limiter)

	// Empty model name keeps the previous value.
	client.WithModel("")
	assert.Equal(t, "deepseek-chat", client.Model())
}
