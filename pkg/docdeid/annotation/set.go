package annotation

import (
	"slices"
	"sync"

	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// ByToken maps each token to the annotations intersecting it, in start order.
type ByToken map[*tokenize.Token][]Annotation

type byTokenCache struct {
	version uint64
	lists   []*tokenize.List
	value   ByToken
}

// Set is a collection of unique annotations. Adding an annotation equal to
// one already present keeps the existing one. The zero value is an empty set
// ready to use.
//
// A Set is not safe for concurrent mutation.
type Set struct {
	items   map[Key]Annotation
	version uint64

	mu    sync.Mutex
	cache *byTokenCache
}

// NewSet creates a set holding annos.
func NewSet(annos ...Annotation) *Set {
	s := &Set{items: make(map[Key]Annotation, len(annos))}
	s.Add(annos...)
	return s
}

// Add inserts annotations.
func (s *Set) Add(annos ...Annotation) {
	if s.items == nil {
		s.items = make(map[Key]Annotation, len(annos))
	}
	for _, a := range annos {
		k := a.Key()
		if _, ok := s.items[k]; ok {
			continue
		}
		s.items[k] = a
		s.version++
	}
}

// Remove deletes annotations equal to the given ones.
func (s *Set) Remove(annos ...Annotation) {
	for _, a := range annos {
		k := a.Key()
		if _, ok := s.items[k]; !ok {
			continue
		}
		delete(s.items, k)
		s.version++
	}
}

// Contains reports whether an equal annotation is present.
func (s *Set) Contains(a Annotation) bool {
	_, ok := s.items[a.Key()]
	return ok
}

// Get returns the stored annotation for k.
func (s *Set) Get(k Key) (Annotation, bool) {
	a, ok := s.items[k]
	return a, ok
}

// Len returns the number of annotations.
func (s *Set) Len() int { return len(s.items) }

// Version changes whenever the membership of the set changes.
func (s *Set) Version() uint64 { return s.version }

// All returns the annotations sorted by start.
func (s *Set) All() []Annotation {
	return s.Sorted(OrderBy(Start))
}

// Sorted returns the annotations ordered by o.
func (s *Set) Sorted(o Order) []Annotation {
	type keyed struct {
		a   Annotation
		key []Value
	}
	ks := make([]keyed, 0, len(s.items))
	for _, a := range s.items {
		ks = append(ks, keyed{a: a, key: o.SortKey(a)})
	}
	slices.SortStableFunc(ks, func(x, y keyed) int {
		return CompareKeys(x.key, y.key)
	})
	out := make([]Annotation, len(ks))
	for i, k := range ks {
		out[i] = k.a
	}
	return out
}

// HasOverlap reports whether any two annotations share a position.
func (s *Set) HasOverlap() bool {
	sorted := s.Sorted(OrderBy(Start))
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].end > sorted[i+1].start {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{items: make(map[Key]Annotation, len(s.items))}
	for k, a := range s.items {
		c.items[k] = a
	}
	return c
}

// ByToken indexes the annotations by the tokens of lists they intersect.
// The result is cached until the set changes or different lists are given,
// and must not be modified.
func (s *Set) ByToken(lists ...*tokenize.List) ByToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.cache; c != nil && c.version == s.version && slices.Equal(c.lists, lists) {
		return c.value
	}

	sorted := s.Sorted(OrderBy(Start))
	out := make(ByToken)
	for _, l := range lists {
		indexList(out, l, sorted)
	}
	s.cache = &byTokenCache{version: s.version, lists: slices.Clone(lists), value: out}
	return out
}

func indexList(out ByToken, l *tokenize.List, sorted []Annotation) {
	n := l.Len()
	cur := 0
	for _, a := range sorted {
		for cur < n && l.At(cur).End <= a.start {
			cur++
		}
		if cur == n {
			return
		}
		for i := cur; i < n && l.At(i).Start < a.end; i++ {
			tok := l.At(i)
			out[tok] = append(out[tok], a)
		}
	}
}
