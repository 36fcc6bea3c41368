package todo

import (
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("todo not found")

// Store is an ordered, mutex-guarded list of todo items. Insertion order is
// display order. All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	items  []Item
	policy IDPolicy
	seq    uint32
}

// NewStore creates an empty store. An empty or unknown policy falls back to
// IDPolicyLength.
func NewStore(policy IDPolicy) *Store {
	if !policy.IsValid() {
		policy = IDPolicyLength
	}
	return &Store{
		items:  []Item{},
		policy: policy,
	}
}

// Policy returns the id assignment policy in effect.
func (s *Store) Policy() IDPolicy {
	return s.policy
}

// List returns a snapshot of all items in insertion order. The result is never nil.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends a new incomplete item with the given text and returns it.
func (s *Store) Add(text string) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{
		ID:   s.nextID(),
		Text: text,
	}
	s.items = append(s.items, item)
	return item
}

// Toggle flips the completion flag of the first item with the given id and
// returns the updated item.
func (s *Store) Toggle(id uint32) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}

	s.items[i].Complete = !s.items[i].Complete
	return s.items[i], nil
}

// Remove deletes the first item with the given id. Remaining items keep
// their ids and relative order.
func (s *Store) Remove(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// nextID must be called with mu held.
func (s *Store) nextID() uint32 {
	if s.policy == IDPolicySequence {
		s.seq++
		return s.seq
	}
	return uint32(len(s.items) + 1)
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id uint32) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}
