// Package session provides the in-memory conversation registry.
//
// Sessions are keyed by opaque client-supplied IDs and hold the model
// conversation history. The registry is bounded: least-recently-used
// sessions are evicted beyond capacity, and idle sessions expire after
// a TTL. Nothing is persisted; a restart starts every conversation over.
package session

import (
	"sync"
	"time"

	"google.golang.org/genai"
)

// Session is one conversation. All methods are safe for concurrent use.
//
// Note: the zero value is NOT useful - sessions come from Registry.GetOrCreate.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.RWMutex
	lastSeen time.Time
	history  []*genai.Content
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
	}
}

// ID returns the client-supplied session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// History returns a copy of the conversation contents for thread-safe access.
// The contents themselves are shared; callers must not mutate them.
func (s *Session) History() []*genai.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*genai.Content, len(s.history))
	copy(result, s.history)
	return result
}

// Append adds contents to the conversation history.
// Nil entries are dropped.
func (s *Session) Append(contents ...*genai.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range contents {
		if c == nil {
			continue
		}
		s.history = append(s.history, c)
	}
	s.lastSeen = time.Now()
}

// Len returns the number of contents in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
