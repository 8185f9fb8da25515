// Package process contains the pipeline stages that annotate, clean up, and
// redact documents, and the Group that runs them in order.
package process

import (
	"fmt"

	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Processor is one stage of a pipeline. It reads and updates doc.
type Processor interface {
	Process(doc *document.Document) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(doc *document.Document) error

func (f ProcessorFunc) Process(doc *document.Document) error { return f(doc) }

// Selection restricts which named processors run. A nil map means no
// restriction; Enabled and Disabled cannot both be set.
type Selection struct {
	Enabled  map[string]struct{}
	Disabled map[string]struct{}
}

// Enable selects only the named processors. Processors nested in a group
// run only when both the group and the processor are named.
func Enable(names ...string) Selection {
	return Selection{Enabled: toSet(names)}
}

// Disable skips the named processors.
func Disable(names ...string) Selection {
	return Selection{Disabled: toSet(names)}
}

func toSet(names []string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Selection) validate() error {
	if s.Enabled != nil && s.Disabled != nil {
		return internalerr.ErrConflictingFilters
	}
	return nil
}

func (s Selection) allows(name string) bool {
	if s.Enabled != nil {
		_, ok := s.Enabled[name]
		return ok
	}
	if s.Disabled != nil {
		_, ok := s.Disabled[name]
		return !ok
	}
	return true
}

type entry struct {
	name string
	proc Processor
}

// Group is an ordered list of named processors. A Group is itself a
// Processor, so groups nest. Mutate a group only before sharing it between
// goroutines.
type Group struct {
	entries []entry
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{}
}

func (g *Group) index(name string) int {
	for i, e := range g.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

// Add appends a processor. Names must be unique within the group.
func (g *Group) Add(name string, p Processor) error {
	return g.Insert(len(g.entries), name, p)
}

// Insert places a processor at position pos, shifting later ones. A
// position past the end appends.
func (g *Group) Insert(pos int, name string, p Processor) error {
	if g.index(name) >= 0 {
		return fmt.Errorf("%w: processor %q", internalerr.ErrDuplicate, name)
	}
	if pos < 0 || pos > len(g.entries) {
		pos = len(g.entries)
	}
	g.entries = append(g.entries, entry{})
	copy(g.entries[pos+1:], g.entries[pos:])
	g.entries[pos] = entry{name: name, proc: p}
	return nil
}

// Remove deletes the named processor.
func (g *Group) Remove(name string) error {
	i := g.index(name)
	if i < 0 {
		return &internalerr.LookupError{Kind: "processor", Name: name}
	}
	g.entries = append(g.entries[:i], g.entries[i+1:]...)
	return nil
}

// Get returns the named processor of this group, not searching nested groups.
func (g *Group) Get(name string) (Processor, error) {
	i := g.index(name)
	if i < 0 {
		return nil, &internalerr.LookupError{Kind: "processor", Name: name}
	}
	return g.entries[i].proc, nil
}

// Len returns the number of direct members.
func (g *Group) Len() int { return len(g.entries) }

// Names lists processor names in order. With recursive, the names of a
// nested group follow the group's own name.
func (g *Group) Names(recursive bool) []string {
	var names []string
	for _, e := range g.entries {
		names = append(names, e.name)
		if sub, ok := e.proc.(*Group); ok && recursive {
			names = append(names, sub.Names(true)...)
		}
	}
	return names
}

// Process runs every processor in order.
func (g *Group) Process(doc *document.Document) error {
	return g.ProcessSelected(doc, Selection{})
}

// ProcessSelected runs the processors allowed by sel, passing sel down to
// nested groups. The first error stops processing.
func (g *Group) ProcessSelected(doc *document.Document, sel Selection) error {
	if err := sel.validate(); err != nil {
		return err
	}
	for _, e := range g.entries {
		if !sel.allows(e.name) {
			continue
		}
		var err error
		if sub, ok := e.proc.(*Group); ok {
			err = sub.ProcessSelected(doc, sel)
		} else {
			err = e.proc.Process(doc)
		}
		if err != nil {
			return fmt.Errorf("processor %s: %w", e.name, err)
		}
	}
	return nil
}
