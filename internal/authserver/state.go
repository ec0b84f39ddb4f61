package authserver

import "sync"

// AuthState holds the shutdown handle of the running callback server, if any.
//
// The slot is empty exactly when no server is running.
type AuthState struct {
	mu             sync.Mutex
	shutdownSender *ShutdownSender
}

// Replace stores tx and returns the handle it displaced, or nil.
func (s *AuthState) Replace(tx *ShutdownSender) *ShutdownSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.shutdownSender
	s.shutdownSender = tx
	return old
}

// Take empties the slot and returns what it held, or nil.
func (s *AuthState) Take() *ShutdownSender {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := s.shutdownSender
	s.shutdownSender = nil
	return tx
}

// Running reports whether the slot holds a handle.
func (s *AuthState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownSender != nil
}
