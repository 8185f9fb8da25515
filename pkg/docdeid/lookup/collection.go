package lookup

import (
	"fmt"
	"sort"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Collection maps dictionary names to lookup structures.
type Collection map[string]Structure

// Get returns the named structure.
func (c Collection) Get(name string) (Structure, error) {
	s, ok := c[name]
	if !ok {
		return nil, &internalerr.LookupError{Kind: "lookup", Name: name}
	}
	return s, nil
}

// Set returns the named structure, which must be a *Set.
func (c Collection) Set(name string) (*Set, error) {
	s, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	set, ok := s.(*Set)
	if !ok {
		return nil, fmt.Errorf("%w: lookup %q is a %T, expected a lookup set", internalerr.ErrTypeMismatch, name, s)
	}
	return set, nil
}

// Trie returns the named structure, which must be a *Trie.
func (c Collection) Trie(name string) (*Trie, error) {
	s, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	trie, ok := s.(*Trie)
	if !ok {
		return nil, fmt.Errorf("%w: lookup %q is a %T, expected a lookup trie", internalerr.ErrTypeMismatch, name, s)
	}
	return trie, nil
}

// Names returns the dictionary names in sorted order.
func (c Collection) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
