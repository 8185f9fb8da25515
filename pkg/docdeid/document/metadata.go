package document

import (
	"fmt"
	"sort"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Metadata holds per-document values. A key can be written only once so
// that processors cannot overwrite each other's values.
type Metadata struct {
	items map[string]any
}

// NewMetadata copies items into a new metadata map.
func NewMetadata(items map[string]any) *Metadata {
	m := &Metadata{items: make(map[string]any, len(items))}
	for k, v := range items {
		m.items[k] = v
	}
	return m
}

// Get returns the value for key, or nil when absent.
func (m *Metadata) Get(key string) any {
	return m.items[key]
}

// Lookup returns the value for key and whether it is present.
func (m *Metadata) Lookup(key string) (any, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Add stores value under a new key.
func (m *Metadata) Add(key string, value any) error {
	if _, ok := m.items[key]; ok {
		return fmt.Errorf("%w: metadata key %q is read only", internalerr.ErrDuplicate, key)
	}
	m.items[key] = value
	return nil
}

// Keys returns the keys in sorted order.
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
