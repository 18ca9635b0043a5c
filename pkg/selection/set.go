// Package selection holds ordered sets of list items that are unique by id.
package selection

// Identified is anything with a stable numeric id.
type Identified interface {
	GetID() int
}

// Set is an ordered selection unique by GetID. The zero value is an empty
// set. A Set is never modified in place, Toggle returns a new one.
type Set[T Identified] struct {
	items []T
}

// FromItems builds a set keeping the first occurrence of each id.
func FromItems[T Identified](items ...T) Set[T] {
	var s Set[T]
	for _, item := range items {
		if !s.Contains(item.GetID()) {
			s.items = append(s.items, item)
		}
	}
	return s
}

// Toggle adds item when no item with the same id is selected, otherwise it
// removes the selected one.
func (s Set[T]) Toggle(item T) Set[T] {
	id := item.GetID()
	next := make([]T, 0, len(s.items)+1)
	found := false
	for _, it := range s.items {
		if it.GetID() == id {
			found = true
			continue
		}
		next = append(next, it)
	}
	if !found {
		next = append(next, item)
	}
	return Set[T]{items: next}
}

func (s Set[T]) Contains(id int) bool {
	for _, it := range s.items {
		if it.GetID() == id {
			return true
		}
	}
	return false
}

// Items returns a copy of the selected items in selection order.
func (s Set[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set[T]) IDs() []int {
	out := make([]int, len(s.items))
	for i, it := range s.items {
		out[i] = it.GetID()
	}
	return out
}

func (s Set[T]) Len() int {
	return len(s.items)
}

func (s Set[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Get returns the selected item with id.
func (s Set[T]) Get(id int) (T, bool) {
	for _, it := range s.items {
		if it.GetID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}
