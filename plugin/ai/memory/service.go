package memory

import (
	"fmt"
	"sync"
)

// Service owns one Memory per session id. Memories are created lazily on
// first use and dropped when the owning session is torn down.
// Thread-safe for concurrent access.
type Service struct {
	mu        sync.Mutex
	sessions  map[string]*Memory
	maxTokens int
}

// NewService creates a memory service with the given per-session token
// budget. A non-positive budget falls back to DefaultMaxTokens.
func NewService(maxTokens int) *Service {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Service{
		sessions:  make(map[string]*Memory),
		maxTokens: maxTokens,
	}
}

// get returns the memory for a session, creating it if needed.
// Caller must hold s.mu.
func (s *Service) get(sessionID string) *Memory {
	m, ok := s.sessions[sessionID]
	if !ok {
		m = NewMemory(s.maxTokens)
		s.sessions[sessionID] = m
	}
	return m
}

// Add appends an entry to a session's memory.
func (s *Service) Add(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(sessionID).Add(role, content)
}

// Entries returns a copy of a session's remembered conversation. A session
// without memory yields an empty slice.
func (s *Service) Entries(sessionID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		return []Entry{}
	}
	return m.Entries()
}

// Has reports whether a session currently holds memory.
func (s *Service) Has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// Count returns the number of entries remembered for a session.
func (s *Service) Count(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return m.Len()
}

// ClearSession drops a session's memory entirely.
func (s *Service) ClearSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// ResetTo truncates a session's memory to the inclusive prefix ending at
// index.
func (s *Service) ResetTo(sessionID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s has no memory", sessionID)
	}
	return m.ResetTo(index)
}

// Replay rebuilds a session's memory from the given role/content pairs,
// discarding whatever was remembered before. Original timestamps are not
// preserved.
func (s *Service) Replay(sessionID string, turns []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := NewMemory(s.maxTokens)
	for _, t := range turns {
		m.Add(t.Role, t.Content)
	}
	s.sessions[sessionID] = m
}

// SessionCount returns the number of sessions holding memory.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
