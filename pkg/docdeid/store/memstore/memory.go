package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/docdeid/pkg/docdeid/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu    sync.RWMutex
	lists map[string]map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{lists: make(map[string]map[string]struct{})}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// PutList replaces the items of a list.
func (s *Store) PutList(ctx context.Context, name string, items []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[name] = make(map[string]struct{})
	s.add(name, items)
	return nil
}

// AppendItems adds items to a list.
func (s *Store) AppendItems(ctx context.Context, name string, items []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[name]; !ok {
		s.lists[name] = make(map[string]struct{})
	}
	s.add(name, items)
	return nil
}

func (s *Store) add(name string, items []string) {
	for _, item := range store.Clean(items) {
		s.lists[name][item] = struct{}{}
	}
}

// List returns the items of a list.
func (s *Store) List(ctx context.Context, name string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.lists[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]string, 0, len(items))
	for item := range items {
		out = append(out, item)
	}
	sort.Strings(out)
	return out, true, nil
}

// Names returns the list names.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.lists))
	for n := range s.lists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteList removes a list. Deleting a missing list is not an error.
func (s *Store) DeleteList(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, name)
	return nil
}
