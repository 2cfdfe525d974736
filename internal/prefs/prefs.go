// Package prefs persists device-scoped kiosk state, currently just the
// last-used interaction mode. Session data never lands here.
package prefs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/maltehallstrom/boka/internal/constants"
)

// Store is a small sqlite-backed key/value store.
type Store struct {
	path string
	db   *sql.DB
}

// NewStore builds a store at path without opening it.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open creates the config directory and prefs table as needed.
func (s *Store) Open() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open prefs database: %w", err)
	}
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS prefs (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
		db.Close()
		return fmt.Errorf("create prefs table: %w", err)
	}
	s.db = db
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value for key, or "" when unset.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read pref %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value for key.
func (s *Store) Set(key, value string) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO prefs (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("write pref %s: %w", key, err)
	}
	return nil
}

// Mode returns the persisted interaction mode, falling back to the default
// when unset or unrecognized.
func (s *Store) Mode() constants.Mode {
	value, err := s.Get(constants.PrefKeyMode)
	if err != nil {
		return constants.DefaultMode
	}
	switch constants.Mode(value) {
	case constants.ModeFrontDesk, constants.ModeSelfService:
		return constants.Mode(value)
	}
	return constants.DefaultMode
}

// SetMode persists the interaction mode.
func (s *Store) SetMode(mode constants.Mode) error {
	return s.Set(constants.PrefKeyMode, string(mode))
}
