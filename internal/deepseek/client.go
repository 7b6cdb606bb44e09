// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package deepseek implements the completion adapter for the DeepSeek
// chat API (OpenAI-compatible, https://api.deepseek.com).
//
// The reasoner model returns two text segments per response: the final
// answer (content) and an intermediate chain-of-thought
// (reasoning_content). Both arrive as separate delta fields when
// streaming.
//
// One completion request per user turn, full history as context. A
// failed call surfaces a single *CompletionError and is never retried;
// the user resubmits manually.
package deepseek

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/r1chat/internal/model"
)

// Configuration constants for the DeepSeek API.
const (
	// DefaultBaseURL is the base URL for the DeepSeek API.
	DefaultBaseURL = "https://api.deepseek.com"

	// DefaultModel is the reasoning model this client targets.
	DefaultModel = "deepseek-reasoner"

	// DefaultTimeout applies to non-streaming requests. Reasoner
	// responses can be slow; streaming requests are bounded by
	// context instead.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize caps the response body read for non-streaming
	// calls.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

var (
	// Shared HTTP client with connection pooling for blocking requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; streaming lifetime is
	// controlled by the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// ChatRequest is the chat completions request body.
type ChatRequest struct {
	Model       string             `json:"model"`
	Messages    []model.APIMessage `json:"messages"`
	Stream      bool               `json:"stream"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

// ChatResponse is the non-streaming chat completions response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role             string `json:"role"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Content returns the final answer of the first choice.
func (r *ChatResponse) Content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Reasoning returns the reasoning segment of the first choice, empty
// when the API supplied none.
func (r *ChatResponse) Reasoning() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.ReasoningContent
	}
	return ""
}

// apiErrorResponse is the API's error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client talks to the DeepSeek chat completions endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int

	// limiter paces outgoing requests when configured. Pacing waits
	// before a request is sent; it never resends a failed one.
	limiter *rate.Limiter
}

// NewClient creates a client with the given API key. An empty key
// still yields a usable value; calls fail with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
}

// WithBaseURL sets a custom base URL (primarily for tests).
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithModel sets the completion model.
func (c *Client) WithModel(m string) *Client {
	if m != "" {
		c.model = m
	}
	return c
}

// WithTimeout sets the per-request timeout for blocking calls.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithTemperature sets the sampling temperature.
func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

// WithMaxTokens caps the completion length.
func (c *Client) WithMaxTokens(n int) *Client {
	c.maxTokens = n
	return c
}

// WithRequestsPerMinute enables client-side request pacing.
// n <= 0 disables pacing.
func (c *Client) WithRequestsPerMinute(n int) *Client {
	if n <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key
// for display. The key itself is never exposed.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// setHeaders sets the required request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "r1chat/0.1")
}

// wait applies request pacing, honoring context cancellation.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Chat performs one blocking chat completion with the full history as
// context. On any failure it returns a *CompletionError and nothing
// else happens: no retry, no partial result.
func (c *Client) Chat(ctx context.Context, messages []model.APIMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.wait(ctx); err != nil {
		return nil, &CompletionError{Message: "request cancelled", Cause: err}
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      false,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &CompletionError{Message: "failed to encode request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &CompletionError{Message: "failed to create request", Cause: err}
	}
	c.setHeaders(req)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, &CompletionError{Message: "network failure: " + err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, &CompletionError{Status: resp.StatusCode, Message: err.Error(), Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &CompletionError{Message: "failed to parse response", Cause: err}
	}
	return &chatResp, nil
}

// Complete runs Chat and splits the result into the assistant message
// pair the session store appends: (final answer, reasoning | empty).
func (c *Client) Complete(ctx context.Context, messages []model.APIMessage) (content, reasoning string, err error) {
	resp, err := c.Chat(ctx, messages)
	if err != nil {
		return "", "", err
	}
	return resp.Content(), resp.Reasoning(), nil
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// errorFromResponse maps an HTTP error response to a *CompletionError
// carrying the matching sentinel as its cause.
func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	code := ""

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
		code = apiErr.Error.Code
	}

	var cause error
	switch statusCode {
	case http.StatusUnauthorized:
		cause = ErrAuthFailed
	case http.StatusPaymentRequired:
		cause = ErrInsufficientBalance
	case http.StatusNotFound:
		cause = ErrModelNotFound
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	}

	return &CompletionError{
		Status:  statusCode,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
