package lookup

import (
	"strings"
	"sync"

	"github.com/automationhub/console/pkg/listing"
)

// Store keeps one widget per key, typically session id plus field.
type Store[T listing.Item] struct {
	mu   sync.Mutex
	data map[string]*Widget[T]
}

func NewStore[T listing.Item]() *Store[T] {
	return &Store[T]{data: make(map[string]*Widget[T])}
}

// Get returns the widget for key, creating it with build on first use.
func (s *Store[T]) Get(key string, build func() *Widget[T]) *Widget[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.data[key]; ok {
		return w
	}
	w := build()
	s.data[key] = w
	return w
}

// Load returns the widget for key if one was built.
func (s *Store[T]) Load(key string) (*Widget[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.data[key]
	return w, ok
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// DeleteSession drops every widget keyed under the session id and returns how
// many went.
func (s *Store[T]) DeleteSession(sessionID string) int {
	prefix := sessionID + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
			n++
		}
	}
	return n
}
