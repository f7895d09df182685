// ABOUTME: Append-only conversation log
// ABOUTME: Safe for concurrent readers and a single writer
package chat

import (
	"sync"
)

// Store is the ordered message log
type Store struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Append adds a message at the end
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the log in order
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the newest message
func (s *Store) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Find looks a message up by ID
func (s *Store) Find(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[i], true
}

// IsLatest reports whether id is the newest message
func (s *Store) IsLatest(id string) bool {
	last, ok := s.Last()
	return ok && last.ID == id
}
