package services

import (
	"strings"
	"sync"
)

// Store keeps one wizard per key, a session id plus the owning record.
type Store struct {
	mu   sync.Mutex
	data map[string]*RoleAssignment
}

func NewStore() *Store {
	return &Store{data: make(map[string]*RoleAssignment)}
}

// Get returns the wizard for key, creating it with build on first use. The
// build runs without the lock held; when two builds race the first one
// stored wins. A failed build stores nothing.
func (s *Store) Get(key string, build func() (*RoleAssignment, error)) (*RoleAssignment, error) {
	if a, ok := s.Load(key); ok {
		return a, nil
	}
	a, err := build()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[key]; ok {
		return existing, nil
	}
	s.data[key] = a
	return a, nil
}

func (s *Store) Load(key string) (*RoleAssignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data[key]
	return a, ok
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// DeleteSession drops every wizard keyed under the session id and returns how
// many went.
func (s *Store) DeleteSession(sessionID string) int {
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
