// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breathai/breath/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "breath.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, store.Put("test", payload{Name: "a", Count: 3}))

	var got payload
	require.NoError(t, store.Get("test", &got))
	assert.Equal(t, payload{Name: "a", Count: 3}, got)

	// Overwrite replaces the snapshot wholesale.
	require.NoError(t, store.Put("test", payload{Name: "b"}))
	require.NoError(t, store.Get("test", &got))
	assert.Equal(t, payload{Name: "b"}, got)
}

func TestGetMissingKey(t *testing.T) {
	store := openTestStore(t)

	var out map[string]any
	err := store.Get("nothing", &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Delete("k"))

	var out string
	assert.True(t, errors.Is(store.Get("k", &out), ErrNotFound))

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete("k"))
}

func TestChatStateRoundTrip(t *testing.T) {
	store := openTestStore(t)

	user := model.NewUserMessage("hello")
	user.Attachments = []model.AttachmentRef{{
		ID: "att-1", Name: "notes.txt", Size: 12, MIMEType: "text/plain", Category: "documents",
	}}
	assistant := model.NewAssistantMessage("gpt-5")
	assistant.Content = "hi there"

	saved := ChatState{
		Messages:     []model.Message{user, assistant},
		CurrentModel: "gpt-5",
	}
	require.NoError(t, store.SaveChat(saved))

	loaded, err := store.LoadChat()
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", loaded.CurrentModel)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, user.ID, loaded.Messages[0].ID)
	assert.Equal(t, "hello", loaded.Messages[0].Content)
	assert.Equal(t, "notes.txt", loaded.Messages[0].Attachments[0].Name)
	assert.Equal(t, "hi there", loaded.Messages[1].Content)
}

func TestLoadChatEmpty(t *testing.T) {
	store := openTestStore(t)

	state, err := store.LoadChat()
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
	assert.Equal(t, model.DefaultModel, state.CurrentModel)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breath.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveChat(ChatState{CurrentModel: "glm-4.6"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	state, err := store.LoadChat()
	require.NoError(t, err)
	assert.Equal(t, "glm-4.6", state.CurrentModel)
}
