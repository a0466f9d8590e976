// Package session holds the operator credential for the lifetime of the
// process and optionally persists it between invocations.
//
// The token is the only process-wide mutable state in relayctl. It is read
// by every API call and written only by login and logout, so a plain RWMutex
// with last-write-wins semantics is sufficient. The gate is a pure presence
// check: an expired token is only discovered when the gateway answers 401.
package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotAuthenticated is returned by Require when no credential is held.
var ErrNotAuthenticated = errors.New("not logged in")

// Session is the process-wide credential holder. The zero value is usable
// and holds no token.
type Session struct {
	mu    sync.RWMutex
	token string
	path  string // persistence path, empty disables persistence
}

// New creates an in-memory session with no persistence.
func New() *Session {
	return &Session{}
}

// NewPersistent creates a session backed by a token file. An existing token
// at path is loaded immediately; load errors are treated as "no session"
// rather than failures, since the operator can always log in again.
func NewPersistent(path string) *Session {
	s := &Session{path: path}
	if data, err := os.ReadFile(path); err == nil {
		s.token = strings.TrimSpace(string(data))
	}
	return s
}

// DefaultTokenPath returns the token file location under the user config dir.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".relayctl", "token"), nil
}

// Token returns the current credential, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a credential is held. This is the route
// gate: presence only, no freshness validation.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Require returns ErrNotAuthenticated when no credential is held.
func (s *Session) Require() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// SetToken stores a credential obtained from login and persists it when a
// token path was configured. Persistence failures do not invalidate the
// in-memory session.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// Clear destroys the credential. Called on logout and when the gateway
// reports the token as expired. Local access is revoked immediately; no
// server-side call is needed.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
