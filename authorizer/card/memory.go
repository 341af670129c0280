package card

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps cards in a map for the process lifetime.
type MemoryStore struct {
	mu    sync.RWMutex
	cards map[string]Card
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding cards.
func NewMemoryStore(cards ...Card) *MemoryStore {
	s := &MemoryStore{cards: make(map[string]Card, len(cards))}
	for _, c := range cards {
		s.cards[c.Number] = c
	}

	return s
}

// Get returns ErrNotFound when number is unknown.
func (s *MemoryStore) Get(_ context.Context, number string) (Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[number]
	if !ok {
		return Card{}, ErrNotFound
	}

	return c, nil
}

// Put inserts or replaces c.
func (s *MemoryStore) Put(_ context.Context, c Card) (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards[c.Number] = c

	return c, nil
}

// FindAll returns the cards ordered by number.
func (s *MemoryStore) FindAll(_ context.Context) ([]Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

// Delete removes number. Deleting an unknown card is not an error.
func (s *MemoryStore) Delete(_ context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cards, number)

	return nil
}

// Exists reports whether number is stored.
func (s *MemoryStore) Exists(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.cards[number]

	return ok, nil
}
