// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversation state across sessions.
//
// State lives in a small SQLite database of keyed JSON records. The
// keys are stable names ("chat"); the values are whole snapshots,
// written atomically per save. Loading state never writes.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/breathai/breath/internal/model"
)

// KeyChat is the record key for the conversation snapshot. Settings
// live in the TOML config file, not here.
const KeyChat = "chat"

// ErrNotFound indicates no record exists under the requested key.
var ErrNotFound = errors.New("record not found")

// schema holds one JSON snapshot per key.
const schema = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// =============================================================================
// STORE
// =============================================================================

// Store is the on-disk record store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the record store at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports one writer at a time, so keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	// RELIABILITY: the database may hold API keys, keep it private.
	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, fmt.Errorf("restrict database permissions: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// DefaultPath returns the standard database location under the user's
// home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".breath", "breath.db"), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// KEYED RECORDS
// =============================================================================

// Put writes a JSON snapshot under key, replacing any previous value.
func (s *Store) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

// Get reads the snapshot under key into out. Returns ErrNotFound when
// nothing has been stored yet.
func (s *Store) Get(key string, out any) error {
	var data []byte
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("read record %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record %s: %w", key, err)
	}
	return nil
}

// Delete removes the record under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM records WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// ChatState is the persisted slice of conversation state: the message
// history and the selected model, nothing transient.
type ChatState struct {
	Messages     []model.Message `json:"messages"`
	CurrentModel string          `json:"current_model"`
}

// SaveChat persists the conversation snapshot.
func (s *Store) SaveChat(state ChatState) error {
	return s.Put(KeyChat, state)
}

// LoadChat restores the conversation snapshot. A missing record
// returns an empty state with the default model, not an error.
func (s *Store) LoadChat() (ChatState, error) {
	var state ChatState
	err := s.Get(KeyChat, &state)
	if errors.Is(err, ErrNotFound) {
		return ChatState{CurrentModel: model.DefaultModel}, nil
	}
	if err != nil {
		return ChatState{}, err
	}
	if state.CurrentModel == "" {
		state.CurrentModel = model.DefaultModel
	}
	return state, nil
}
