package set

import (
	"iter"
	"maps"
)

// Set provides a wrapper around a map[T]struct{}.
// The zero value is an empty set ready for use.
type Set[T comparable] struct {
	values map[T]struct{}
}

func (s *Set[T]) Insert(value T) bool {
	if s.values == nil {
		s.values = make(map[T]struct{})
	}

	// check if the value exists
	if _, exists := s.values[value]; exists {
		return false
	}

	// insert value
	s.values[value] = struct{}{}
	return true
}

func (s *Set[T]) Has(value T) bool {
	_, exists := s.values[value]
	return exists
}

func (s *Set[T]) Values() iter.Seq[T] {
	return maps.Keys(s.values)
}

func (s *Set[T]) Len() int {
	return len(s.values)
}

// Clone returns an independent copy of the set.
func (s *Set[T]) Clone() Set[T] {
	if s.values == nil {
		return Set[T]{}
	}

	return Set[T]{values: maps.Clone(s.values)}
}

// Clear empties the set. It keeps no reference to previously inserted values.
func (s *Set[T]) Clear() {
	s.values = nil
}
