// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package deepseek

import (
	"errors"
	"fmt"
)

// Sentinel errors for common API failure modes. Wrap-compatible with
// errors.Is so callers can branch on the failure class.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("DeepSeek API key not configured")

	// ErrAuthFailed indicates an invalid or expired API key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientBalance indicates the account balance is exhausted.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// CompletionError is the single error type the adapter surfaces for a
// failed completion call. It carries a human-readable cause; the
// conversation it was produced for is left untouched by the caller and
// the user retries by resubmitting. The adapter never retries.
type CompletionError struct {
	// Status is the HTTP status code, 0 for transport failures.
	Status int
	// Code is the API-provided error code, when present.
	Code string
	// Message is the human-readable cause shown to the user.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("completion failed [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("completion failed (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("completion failed: %s", e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a short cause suitable for an inline error line.
func (e *CompletionError) UserMessage() string {
	switch {
	case errors.Is(e.Cause, ErrAuthFailed):
		return "Authentication failed. Check your DEEPSEEK_API_KEY."
	case errors.Is(e.Cause, ErrRateLimited):
		return "Rate limited by the API. Wait a moment and resubmit."
	case errors.Is(e.Cause, ErrInsufficientBalance):
		return "Account balance exhausted. Top up at platform.deepseek.com."
	case errors.Is(e.Cause, ErrModelNotFound):
		return "Model not found: " + e.Message
	default:
		return e.Message
	}
}

// IsAuthFailed reports whether err is an authentication failure.
func IsAuthFailed(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsRateLimited reports whether err is a rate limit failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// AsCompletionError extracts a *CompletionError from err, if present.
func AsCompletionError(err error) (*CompletionError, bool) {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
