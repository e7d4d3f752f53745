// Package memory provides the bounded conversation memory supplied back to
// the model as context. Memory is a token-budgeted sliding store; the full
// transcript shown to the user lives in the session package.
package memory

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxTokens is the default token budget per session.
	DefaultMaxTokens = 8000

	// charsPerToken is the character-count divisor used as a token proxy.
	charsPerToken = 4

	// minRetained entries survive eviction regardless of the budget, so the
	// current exchange is never evicted out from under an active generation.
	minRetained = 2
)

// Entry is one remembered conversation turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory holds the ordered entries of one session under a token budget.
// Not safe for concurrent use; the owning Service serializes access.
type Memory struct {
	maxTokens int
	entries   []Entry
}

// NewMemory creates a memory with the given token budget.
// A non-positive budget falls back to DefaultMaxTokens.
func NewMemory(maxTokens int) *Memory {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Memory{maxTokens: maxTokens}
}

// Add appends a timestamped entry and evicts the oldest entries until the
// estimated token footprint fits the budget or only minRetained remain.
func (m *Memory) Add(role, content string) {
	m.entries = append(m.entries, Entry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	m.truncate()
}

func (m *Memory) truncate() {
	totalChars := 0
	for _, e := range m.entries {
		totalChars += len(e.Content)
	}
	for totalChars/charsPerToken > m.maxTokens && len(m.entries) > minRetained {
		totalChars -= len(m.entries[0].Content)
		m.entries = m.entries[1:]
	}
}

// Entries returns a defensive copy of the remembered conversation.
func (m *Memory) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of remembered entries.
func (m *Memory) Len() int {
	return len(m.entries)
}

// EstimatedTokens returns the current token estimate.
func (m *Memory) EstimatedTokens() int {
	totalChars := 0
	for _, e := range m.entries {
		totalChars += len(e.Content)
	}
	return totalChars / charsPerToken
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.entries = nil
}

// ResetTo truncates to the inclusive prefix ending at index. Out-of-bounds
// indexes leave the memory unchanged.
func (m *Memory) ResetTo(index int) error {
	if index < 0 || index >= len(m.entries) {
		return fmt.Errorf("reset index %d out of bounds (have %d entries)", index, len(m.entries))
	}
	m.entries = m.entries[:index+1]
	return nil
}
