package client

import "sync"

// Session carries the bearer token for one operator. It is passed to the
// client explicitly; nothing is read from process-wide state.
type Session struct {
	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewSession creates a session for token. onUnauthorized, when set, runs once
// each time the server rejects the token.
func NewSession(token string, onUnauthorized func()) *Session {
	return &Session{token: token, onUnauthorized: onUnauthorized}
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the bearer token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Active reports whether the session holds a token.
func (s *Session) Active() bool {
	return s.Token() != ""
}

func (s *Session) expire() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.token = ""
	hook := s.onUnauthorized
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}
