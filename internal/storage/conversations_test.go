// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/r1chat/internal/model"
)

func newStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := NewConversationStoreWithDir(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleConversation() *model.Conversation {
	conv := model.NewConversation("deepseek-reasoner")
	conv.AppendUserMessage("What is 2+2?")
	conv.AppendAssistantMessage("4", "Add 2 and 2.")
	return conv
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newStore(t)

	conv := sampleConversation()
	id, err := store.Save(conv)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, id)

	loaded, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", loaded.Title)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "user", loaded.Messages[0].Role)
	assert.Equal(t, "What is 2+2?", loaded.Messages[0].Content)
	assert.Equal(t, "4", loaded.Messages[1].Content)
	assert.Equal(t, "Add 2 and 2.", loaded.Messages[1].Reasoning)
}

func TestToConversationRestoresMessages(t *testing.T) {
	store := newStore(t)

	id, err := store.Save(sampleConversation())
	require.NoError(t, err)

	loaded, err := store.Load(id)
	require.NoError(t, err)

	conv := loaded.ToConversation()
	assert.Equal(t, id, conv.ID)
	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, model.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "Add 2 and 2.", conv.Messages[1].Reasoning)
	// Display preference is per session, never persisted.
	assert.True(t, conv.ShowReasoning)
}

func TestSaveSkipsSystemAndStreamingMessages(t *testing.T) {
	store := newStore(t)

	conv := sampleConversation()
	conv.Append(model.NewSystemMessage("Error: request failed"))
	conv.Append(model.NewStreamingMessage())

	id, err := store.Save(conv)
	require.NoError(t, err)

	loaded, err := store.Load(id)
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 2)
}

func TestLoadMissingConversation(t *testing.T) {
	store := newStore(t)

	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListMostRecentFirst(t *testing.T) {
	store := newStore(t)

	first := model.NewConversation("deepseek-reasoner")
	first.AppendUserMessage("oldest question")
	first.AppendAssistantMessage("a", "")
	_, err := store.Save(first)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second := model.NewConversation("deepseek-reasoner")
	second.AppendUserMessage("newest question")
	second.AppendAssistantMessage("b", "")
	_, err = store.Save(second)
	require.NoError(t, err)

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "newest question", metas[0].Preview)
	assert.Equal(t, "oldest question", metas[1].Preview)
	assert.Equal(t, 2, metas[0].MessageCount)
}

func TestListSkipsCorruptedFiles(t *testing.T) {
	store := newStore(t)

	_, err := store.Save(sampleConversation())
	require.NoError(t, err)

	bad := filepath.Join(store.BaseDir, "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	metas, err := store.List()
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestSearch(t *testing.T) {
	store := newStore(t)

	conv := model.NewConversation("deepseek-reasoner")
	conv.AppendUserMessage("Explain quicksort")
	conv.AppendAssistantMessage("Pick a pivot.", "")
	_, err := store.Save(conv)
	require.NoError(t, err)

	other := model.NewConversation("deepseek-reasoner")
	other.AppendUserMessage("Weather in Kyoto")
	other.AppendAssistantMessage("Rainy.", "")
	_, err = store.Save(other)
	require.NoError(t, err)

	results, err := store.Search("QUICKSORT")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Explain quicksort", results[0].Title)

	// Content-level search finds text absent from titles.
	results, err = store.SearchMessages("pivot")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Explain quicksort", results[0].Title)
}

func TestDeleteAndClear(t *testing.T) {
	store := newStore(t)

	id, err := store.Save(sampleConversation())
	require.NoError(t, err)

	require.NoError(t, store.Delete(id))
	assert.ErrorIs(t, store.Delete(id), ErrConversationNotFound)

	_, err = store.Save(sampleConversation())
	require.NoError(t, err)
	_, err = store.Save(sampleConversation())
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	metas, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestEnforceLimitDropsOldest(t *testing.T) {
	store := newStore(t)
	store.MaxConversations = 2

	for i := 0; i < 3; i++ {
		conv := model.NewConversation("deepseek-reasoner")
		conv.AppendUserMessage("question number " + string(rune('A'+i)))
		conv.AppendAssistantMessage("answer", "")
		_, err := store.Save(conv)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "question number C", metas[0].Preview)
	assert.Equal(t, "question number B", metas[1].Preview)
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "No saved conversations.", FormatList(nil))

	metas := []ConversationMeta{{
		ID:           "abc",
		Title:        "Explain quicksort",
		UpdatedAt:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		MessageCount: 4,
	}}
	out := FormatList(metas)
	assert.Contains(t, out, "Explain quicksort")
	assert.Contains(t, out, "2025-03-01 09:30")
	assert.Contains(t, out, "4")
}