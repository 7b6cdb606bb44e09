// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThemeInitializesStyles(t *testing.T) {
	theme := NewTheme()
	require.NotNil(t, theme)

	// A few spot checks that initStyles ran.
	assert.True(t, theme.UserLabel.GetBold())
	assert.True(t, theme.ReasoningText.GetItalic())
	assert.True(t, theme.ErrorTitle.GetBold())
}

func TestNewThemeWithBackground(t *testing.T) {
	dark := NewThemeWithBackground(true)
	assert.True(t, dark.IsDark)

	light := NewThemeWithBackground(false)
	assert.False(t, light.IsDark)
}

func TestForConfigTheme(t *testing.T) {
	assert.True(t, ForConfigTheme("dark").IsDark)
	assert.False(t, ForConfigTheme("light").IsDark)
	assert.NotNil(t, ForConfigTheme("auto"))
	assert.NotNil(t, ForConfigTheme("bogus"))
}

func TestSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)
	assert.Equal(t, 120, theme.Width)
	assert.Equal(t, 40, theme.Height)
}
