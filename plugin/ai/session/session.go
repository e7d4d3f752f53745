// Package session owns the chat session state machine and the registry
// mapping live connections to sessions. A session tracks its transcript and
// at most one in-flight generation; the registry routes inbound control
// messages to session operations and outbound events to the connection.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one transcript entry. Index is the 0-based position in the
// owning transcript and is reassigned on truncation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"index"`
}

// ChatSession holds one session's transcript and generation state. The
// interruption flag and the cancel handle form a single guarded unit: every
// read-then-act sequence on them runs under mu so a cancel issued as one
// generation completes cannot leak into the next.
type ChatSession struct {
	id string

	mu          sync.Mutex
	messages    []Message
	generating  bool
	cancel      context.CancelFunc
	interrupted bool
}

// New creates an empty session.
func New(id string) *ChatSession {
	return &ChatSession{id: id}
}

// ID returns the session id.
func (s *ChatSession) ID() string {
	return s.id
}

// AddMessage appends a message and assigns it the next sequential index.
func (s *ChatSession) AddMessage(role, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Index:     len(s.messages),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// History returns a defensive copy of the transcript.
func (s *ChatSession) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the transcript length.
func (s *ChatSession) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// IsGenerating reports whether a generation task is active.
func (s *ChatSession) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Interrupted reports whether the current or just-finished generation was
// interrupted.
func (s *ChatSession) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}

// BeginGeneration transitions IDLE to GENERATING: it clears any stale
// interruption flag and derives a cancellable context for the generation
// task. It fails when a generation is already active.
func (s *ChatSession) BeginGeneration(parent context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		return nil, fmt.Errorf("session %s is already generating", s.id)
	}
	ctx, cancel := context.WithCancel(parent)
	s.generating = true
	s.interrupted = false
	s.cancel = cancel
	return ctx, nil
}

// EndGeneration transitions back to IDLE and releases the generation
// context. It reports whether the generation was interrupted.
func (s *ChatSession) EndGeneration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generating = false
	return s.interrupted
}

// RequestInterruption sets the interruption flag and cancels the active
// generation, if any. Calling it while idle is a no-op that does not affect
// the next generation. It reports whether a generation was actually
// cancelled.
func (s *ChatSession) RequestInterruption() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.generating {
		return false
	}
	s.interrupted = true
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

// ResetTo truncates the transcript to the inclusive prefix ending at index
// and returns a copy of the retained messages. Out-of-bounds indexes leave
// the transcript unchanged.
func (s *ChatSession) ResetTo(index int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.messages) {
		return nil, fmt.Errorf("reset index %d out of bounds (have %d messages)", index, len(s.messages))
	}
	s.messages = s.messages[:index+1]
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

// Clear empties the transcript. Conversation memory is a separate store;
// the caller clears it alongside to keep the two in lockstep.
func (s *ChatSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
