package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/tracky/internal/expansion"
)

// CookieName is the HTTP cookie carrying the session token.
const CookieName = "tracky_session"

// Session is one logged-in browser. The expansion store lives and dies with it.
type Session struct {
	Token     string
	UserID    string
	Username  string
	ExpiresAt time.Time
	Expansion *expansion.Store
}

// Sessions is an in-memory session table keyed by opaque token.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	byToken map[string]*Session

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewSessions returns an empty table whose sessions live for ttl.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:     ttl,
		byToken: make(map[string]*Session),
		Now:     time.Now,
	}
}

// Create starts a session with a fresh, empty expansion store.
func (s *Sessions) Create(userID, username string) *Session {
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: s.Now().Add(s.ttl),
		Expansion: expansion.New(),
	}

	s.mu.Lock()
	s.byToken[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Lookup returns the live session for token.
// An expired session is removed and reported as missing.
func (s *Sessions) Lookup(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return nil, false
	}
	if !s.Now().Before(sess.ExpiresAt) {
		delete(s.byToken, token)
		return nil, false
	}
	return sess, true
}

// Delete ends a session. Unknown tokens are ignored.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}

// Prune drops every expired session and returns how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	removed := 0
	for token, sess := range s.byToken {
		if !now.Before(sess.ExpiresAt) {
			delete(s.byToken, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byToken)
}

// TTL returns the configured session lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}
