package controllers

import (
	"strings"
	"sync"

	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/selection"
)

// SelectionStore keeps the rows picked on a list screen, per session.
type SelectionStore[T listing.Item] struct {
	mu   sync.Mutex
	data map[string]selection.Set[T]
}

func NewSelectionStore[T listing.Item]() *SelectionStore[T] {
	return &SelectionStore[T]{data: make(map[string]selection.Set[T])}
}

func (s *SelectionStore[T]) Get(key string) selection.Set[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

// Update replaces the set stored under key with fn applied to it.
func (s *SelectionStore[T]) Update(key string, fn func(selection.Set[T]) selection.Set[T]) selection.Set[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.data[key])
	if next.IsEmpty() {
		delete(s.data, key)
	} else {
		s.data[key] = next
	}
	return next
}

func (s *SelectionStore[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// DeleteSession drops every selection keyed under the session id and returns how
// many went.
func (s *SelectionStore[T]) DeleteSession(sessionID string) int {
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
