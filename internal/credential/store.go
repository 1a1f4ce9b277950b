// Package credential holds the opaque API credential for the session.
// The value is write-once-per-user-action and read by every outbound
// request; the system itself never mutates it.
package credential

import (
	"errors"
	"strings"
	"sync"
)

// ErrMissing indicates an operation requiring a credential was invoked
// while none is set. It must be raised before any network call is made.
var ErrMissing = errors.New("no API credential set")

// Store keeps the session credential behind a read-write lock so
// concurrent comparison fan-outs can share it read-only.
type Store struct {
	mu    sync.RWMutex
	value string
}

// NewStore constructs an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Set stores the credential, replacing any previous value.
func (s *Store) Set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = strings.TrimSpace(value)
}

// Clear removes the stored credential.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
}

// Get returns the stored credential, which may be empty.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Require returns the stored credential or ErrMissing when none is set.
func (s *Store) Require() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == "" {
		return "", ErrMissing
	}
	return s.value, nil
}
