// ABOUTME: Token store contract and in-memory implementation
// ABOUTME: Single source of truth for the access and refresh token strings

package auth

import "sync"

// TokenStore holds the current access and refresh tokens.
// Set replaces both values at once; readers never observe half of an update.
type TokenStore interface {
	Set(access, refresh string) error
	Access() (string, bool)
	Refresh() (string, bool)
	Clear() error
}

// Tokens is the pair persisted by a TokenStore
type Tokens struct {
	Access  string `json:"access_token,omitempty"`
	Refresh string `json:"refresh_token,omitempty"`
}

// MemoryStore is a TokenStore that lives only as long as the process
type MemoryStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{Access: access, Refresh: refresh}
	return nil
}

func (s *MemoryStore) Access() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Access, s.tokens.Access != ""
}

func (s *MemoryStore) Refresh() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Refresh, s.tokens.Refresh != ""
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	return nil
}
