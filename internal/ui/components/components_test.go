// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/r1chat/internal/deepseek"
	"github.com/jeranaias/r1chat/internal/ui/styles"
)

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner(styles.NewThemeWithBackground(true))

	assert.False(t, s.IsActive())
	assert.Empty(t, s.View())

	cmd := s.Start()
	assert.NotNil(t, cmd)
	assert.True(t, s.IsActive())
	assert.NotEmpty(t, s.View())

	s.Stop()
	assert.False(t, s.IsActive())
	assert.Empty(t, s.View())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0s", FormatElapsed(300*time.Millisecond))
	assert.Equal(t, "45s", FormatElapsed(45*time.Second))
	assert.Equal(t, "1m04s", FormatElapsed(64*time.Second))
	assert.Equal(t, "2m00s", FormatElapsed(2*time.Minute))
}

func TestErrorBoxRender(t *testing.T) {
	box := NewErrorBox(styles.NewThemeWithBackground(true))

	assert.Empty(t, box.Render(nil))

	out := box.Render(errors.New("boom"))
	assert.Contains(t, out, "Request failed")
	assert.Contains(t, out, "boom")

	ce := &deepseek.CompletionError{Status: 401, Cause: deepseek.ErrAuthFailed}
	out = box.Render(ce)
	assert.Contains(t, out, "DEEPSEEK_API_KEY")
	assert.Contains(t, out, "try again")
}
