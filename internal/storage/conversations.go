// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat transcripts as JSON files under the
// r1chat config directory. Reasoning traces are stored alongside the
// answer text so a reloaded conversation can still toggle them.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/r1chat/internal/config"
	"github.com/jeranaias/r1chat/internal/model"
	"github.com/jeranaias/r1chat/internal/util"
)

// ErrConversationNotFound is returned when no transcript exists for
// the requested ID.
var ErrConversationNotFound = errors.New("conversation not found")

// =============================================================================
// STORED TYPES
// =============================================================================

// StoredConversation is the on-disk transcript shape. The schema
// matches the JSON exporter so exported files and saved transcripts
// stay interchangeable.
type StoredConversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is one persisted turn.
type StoredMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationMeta is the listing view of a transcript, cheap enough
// to build for every saved file.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// FromConversation converts an in-memory conversation to its stored
// form. Streaming placeholders and system notices are not persisted.
func FromConversation(conv *model.Conversation) *StoredConversation {
	stored := &StoredConversation{
		ID:        conv.ID,
		Title:     conv.Title,
		Model:     conv.Model,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  make([]StoredMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem || msg.IsStreaming {
			continue
		}
		stored.Messages = append(stored.Messages, StoredMessage{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Reasoning: msg.Reasoning,
			Timestamp: msg.Timestamp,
		})
	}
	return stored
}

// ToConversation rebuilds an in-memory conversation from its stored
// form. The reasoning display preference starts at the default; it is
// a per-session choice, not part of the transcript.
func (c *StoredConversation) ToConversation() *model.Conversation {
	conv := model.NewConversation(c.Model)
	conv.ID = c.ID
	for _, msg := range c.Messages {
		switch model.Role(msg.Role) {
		case model.RoleUser:
			m := model.NewUserMessage(msg.Content)
			m.Timestamp = msg.Timestamp
			conv.Append(m)
		case model.RoleAssistant:
			m := model.NewAssistantMessage(msg.Content, msg.Reasoning)
			m.Timestamp = msg.Timestamp
			conv.Append(m)
		}
	}
	// Set after appends so Append's bookkeeping does not clobber the
	// persisted values.
	conv.Title = c.Title
	conv.CreatedAt = c.CreatedAt
	conv.UpdatedAt = c.UpdatedAt
	return conv
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore reads and writes transcripts in a single
// directory, one JSON file per conversation.
type ConversationStore struct {
	// BaseDir holds the transcript files.
	// Default: ~/.r1chat/conversations/
	BaseDir string

	// MaxConversations caps stored transcripts (0 = unlimited).
	// Oldest are removed first.
	MaxConversations int
}

// NewConversationStore creates a store rooted in the default config
// directory.
func NewConversationStore() (*ConversationStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewConversationStoreWithDir(filepath.Join(dir, "conversations"))
}

// NewConversationStoreWithDir creates a store with a custom directory.
func NewConversationStoreWithDir(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &ConversationStore{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists a conversation and returns its ID.
func (s *ConversationStore) Save(conv *model.Conversation) (string, error) {
	if conv == nil {
		return "", errors.New("conversation is nil")
	}

	stored := FromConversation(conv)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Title == "" {
		stored.Title = titleFrom(stored)
	}
	stored.UpdatedAt = time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return "", err
	}

	// Atomic write with fsync so a crash mid-save cannot truncate an
	// existing transcript.
	if err := util.AtomicWriteFile(s.filePath(stored.ID), data, 0o644); err != nil {
		return "", err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}

	return stored.ID, nil
}

// titleFrom derives a title from the first user message.
func titleFrom(c *StoredConversation) string {
	for _, msg := range c.Messages {
		if msg.Role == string(model.RoleUser) && msg.Content != "" {
			title := strings.ReplaceAll(msg.Content, "\n", " ")
			title = strings.ReplaceAll(title, "\r", "")
			return util.TruncateRunes(title, 50)
		}
	}
	return "New conversation"
}

// enforceLimit removes the oldest transcripts when over the cap.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - s.MaxConversations
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD
// =============================================================================

// Load retrieves a transcript by ID.
func (s *ConversationStore) Load(id string) (*StoredConversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv StoredConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// LoadByIndex loads a transcript by list position (0 = most recent).
func (s *ConversationStore) LoadByIndex(index int) (*StoredConversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrConversationNotFound
	}
	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST AND SEARCH
// =============================================================================

// List returns metadata for all saved transcripts, most recent first.
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		conv, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip corrupted files.
			continue
		}

		preview := ""
		for _, msg := range conv.Messages {
			if msg.Role == string(model.RoleUser) {
				preview = util.TruncateRunes(msg.Content, 80)
				break
			}
		}

		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.Title,
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Preview:      preview,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// Search finds transcripts whose title or preview contains the query
// string (case-insensitive).
func (s *ConversationStore) Search(query string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

// SearchMessages finds transcripts where any message body contains the
// query string (case-insensitive). Loads every transcript, so slower
// than Search.
func (s *ConversationStore) SearchMessages(query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.List()
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []ConversationMeta
	for _, meta := range all {
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a transcript by ID.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved transcripts.
func (s *ConversationStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders transcript metadata as a fixed-width table for
// the /history command.
func FormatList(metas []ConversationMeta) string {
	if len(metas) == 0 {
		return "No saved conversations."
	}

	var sb strings.Builder
	sb.WriteString("Saved conversations:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString(pad("#", 4) + pad("Updated", 18) + pad("Msgs", 6) + "Title\n")
	sb.WriteString("-----------------------------------------------------\n")

	for i, m := range metas {
		sb.WriteString(pad(strconv.Itoa(i+1), 4) +
			pad(m.UpdatedAt.Format("2006-01-02 15:04"), 18) +
			pad(strconv.Itoa(m.MessageCount), 6) +
			util.TruncateRunes(m.Title, 40) + "\n")
	}
	return sb.String()
}

func pad(s string, width int) string {
	if n := width - util.RuneLen(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s + " "
}
