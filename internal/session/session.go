package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session holds the bearer token for authenticated API calls. The token is
// mirrored to a file so it survives restarts, the way a browser client keeps
// it in local storage.
type Session struct {
	mu    sync.RWMutex
	path  string
	token string
}

// New creates a session backed by the given token file. A missing file just
// means no one is logged in yet.
func New(path string) *Session {
	s := &Session{path: path}
	if data, err := os.ReadFile(path); err == nil {
		s.token = strings.TrimSpace(string(data))
	}
	return s
}

// Token returns the current bearer token, or empty if not authenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SetToken stores a new token in memory and on disk.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Clear removes the token from memory and disk. Called on logout and when a
// request comes back 401.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	// Best effort: a stale file only matters until the next SetToken.
	_ = os.Remove(s.path)
}
