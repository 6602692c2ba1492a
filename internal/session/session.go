// Package session holds the signed-in user's credentials in memory.
package session

import "sync"

// Session is the in-memory credential pair. It is never persisted.
// The zero value is an empty session.
type Session struct {
	mu       sync.RWMutex
	username string
	password string
}

// Set overwrites the stored credentials
func (s *Session) Set(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

// Clear forgets the stored credentials
func (s *Session) Clear() {
	s.Set("", "")
}

// Credentials returns the stored pair; ok is false unless both halves are set.
func (s *Session) Credentials() (username, password string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.password, s.username != "" && s.password != ""
}
