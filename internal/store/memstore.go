package store

import (
	"sort"
	"sync"
)

// Storer defines the interface for example persistence. This allows
// swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	UpsertExample(ex *Example) error
	GetExample(id string) (*Example, error)
	DeleteExample(id string) error
	ListByLength(length int) ([]*Example, error)
	Lengths() ([]int, error)
	CountExamples() (int, error)

	Close() error
}

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu       sync.RWMutex
	examples map[string]*Example
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{examples: make(map[string]*Example)}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error { return nil }

func (s *MemStore) UpsertExample(ex *Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid mutation issues; Length is derived from the tokens.
	copied := *ex
	copied.Tokens = append([]string(nil), ex.Tokens...)
	copied.Spans = append(copied.Spans[:0:0], ex.Spans...)
	copied.Length = len(ex.Tokens)
	s.examples[ex.ID] = &copied
	return nil
}

func (s *MemStore) GetExample(id string) (*Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ex, ok := s.examples[id]
	if !ok {
		return nil, nil
	}
	copied := *ex
	return &copied, nil
}

func (s *MemStore) DeleteExample(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.examples, id)
	return nil
}

func (s *MemStore) ListByLength(length int) ([]*Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Example
	for _, ex := range s.examples {
		if ex.Length == length {
			copied := *ex
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Lengths() ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]bool)
	for _, ex := range s.examples {
		seen[ex.Length] = true
	}
	lengths := make([]int, 0, len(seen))
	for n := range seen {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)
	return lengths, nil
}

func (s *MemStore) CountExamples() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.examples), nil
}
