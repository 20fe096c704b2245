// ABOUTME: Token store persisted as JSON in the XDG config directory
// ABOUTME: Writes go to a temp file renamed into place so the file is never half-written

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SessionFileName is the file that holds the persisted tokens
const SessionFileName = "session.json"

// FileStore is a TokenStore backed by a file in the config directory.
// The in-memory copy always holds the latest Set, even when persisting it failed.
type FileStore struct {
	configDir string

	mu     sync.RWMutex
	tokens Tokens
}

// NewFileStore creates a FileStore for the given config directory.
// Call Load to read previously persisted tokens.
func NewFileStore(configDir string) *FileStore {
	return &FileStore{configDir: configDir}
}

// OpenFileStore creates a FileStore and loads any persisted tokens
func OpenFileStore(configDir string) (*FileStore, error) {
	s := NewFileStore(configDir)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the session file location
func (s *FileStore) Path() string {
	return filepath.Join(s.configDir, SessionFileName)
}

// Load reads the tokens from disk.
// A missing or unreadable-as-JSON file leaves the store empty.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		s.swap(Tokens{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		slog.Warn("Ignoring corrupt session file", "path", s.Path(), "error", err)
		s.swap(Tokens{})
		return nil
	}

	s.swap(tokens)
	return nil
}

// Set replaces the in-memory tokens and persists them. A write error is
// returned but the new tokens stay in use for this process: a rotated
// refresh token must not be lost just because the disk is unavailable.
func (s *FileStore) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{Access: access, Refresh: refresh}
	return s.write(s.tokens)
}

func (s *FileStore) Access() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Access, s.tokens.Access != ""
}

func (s *FileStore) Refresh() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Refresh, s.tokens.Refresh != ""
}

// Clear removes the session file and forgets both tokens.
// Clearing an empty store is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) swap(tokens Tokens) {
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
}

// write must be called with mu held
func (s *FileStore) write(tokens Tokens) error {
	if s.configDir == "" {
		return errors.New("no config directory for session file")
	}
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.configDir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
