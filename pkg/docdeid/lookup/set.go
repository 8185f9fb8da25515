// Package lookup holds the dictionaries annotators match tokens against.
package lookup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
)

// Structure is a dictionary with a matching pipeline.
type Structure interface {
	Pipeline() strproc.Pipeline
	Len() int
}

// Set is a set of strings stored after its matching pipeline.
type Set struct {
	pipeline strproc.Pipeline
	items    map[string]struct{}
}

// NewSet creates an empty set. Every item added, removed, or queried is
// first passed through p.
func NewSet(p strproc.Pipeline) *Set {
	return &Set{pipeline: p, items: make(map[string]struct{})}
}

func (s *Set) Pipeline() strproc.Pipeline { return s.pipeline }

// HasPipeline reports whether the set normalizes its items.
func (s *Set) HasPipeline() bool { return len(s.pipeline) > 0 }

func (s *Set) Len() int { return len(s.items) }

// AddItems runs items through the cleaning processors, then stores them.
func (s *Set) AddItems(items []string, cleaning ...strproc.Processor) {
	for _, item := range strproc.ProcessAll(items, cleaning) {
		s.items[s.pipeline.Apply(item)] = struct{}{}
	}
}

// RemoveItems removes items, ignoring the ones not present.
func (s *Set) RemoveItems(items []string) {
	for _, item := range items {
		delete(s.items, s.pipeline.Apply(item))
	}
}

// Contains applies the matching pipeline to item and tests membership.
func (s *Set) Contains(item string) bool {
	return s.ContainsNormalized(s.pipeline.Apply(item))
}

// ContainsNormalized tests membership of an item that already went through
// the matching pipeline.
func (s *Set) ContainsNormalized(item string) bool {
	_, ok := s.items[item]
	return ok
}

// Items returns the stored items in sorted order.
func (s *Set) Items() []string {
	out := make([]string, 0, len(s.items))
	for item := range s.items {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Clear removes every item.
func (s *Set) Clear() {
	s.items = make(map[string]struct{})
}

// AddItemsFromSelf re-adds the current items through cleaning. With replace
// the original items are dropped first.
func (s *Set) AddItemsFromSelf(cleaning []strproc.Processor, replace bool) {
	items := s.Items()
	if replace {
		s.Clear()
	}
	s.AddItems(items, cleaning...)
}

// Union adds every item of other to s. Only sets can be combined.
func (s *Set) Union(other Structure) error {
	o, ok := other.(*Set)
	if !ok {
		return fmt.Errorf("%w: can only add a lookup set to a lookup set, got %T", internalerr.ErrTypeMismatch, other)
	}
	s.AddItems(o.Items())
	return nil
}

// Difference removes every item of other from s. Only sets can be combined.
func (s *Set) Difference(other Structure) error {
	o, ok := other.(*Set)
	if !ok {
		return fmt.Errorf("%w: can only subtract a lookup set from a lookup set, got %T", internalerr.ErrTypeMismatch, other)
	}
	s.RemoveItems(o.Items())
	return nil
}

// FileOptions controls how dictionary files are read.
type FileOptions struct {
	// KeepWhitespace disables trimming of each line.
	KeepWhitespace bool
	// Encoding is a WHATWG encoding label such as "utf-8" or "latin1".
	// Empty means UTF-8.
	Encoding string
	Cleaning []strproc.Processor
}

// AddItemsFromFile adds one item per line of the file at path.
func (s *Set) AddItemsFromFile(path string, opts FileOptions) error {
	items, err := opts.ReadItems(path)
	if err != nil {
		return err
	}
	s.AddItems(items)
	return nil
}

// ReadItems reads the file at path and returns its lines after trimming and
// the cleaning processors.
func (o FileOptions) ReadItems(path string) ([]string, error) {
	lines, err := ReadLines(path, o.Encoding)
	if err != nil {
		return nil, err
	}
	return strproc.ProcessAll(lines, o.cleaning()), nil
}

func (o FileOptions) cleaning() []strproc.Processor {
	if o.KeepWhitespace {
		return o.Cleaning
	}
	return append([]strproc.Processor{strproc.Strip{}}, o.Cleaning...)
}

// ReadLines reads a text file in the given encoding and splits it into lines.
func ReadLines(path, encoding string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup file: %w", err)
	}
	defer f.Close()

	lines, err := readLines(f, encoding)
	if err != nil {
		return nil, fmt.Errorf("read lookup file %s: %w", path, err)
	}
	return lines, nil
}

func readLines(r io.Reader, encoding string) ([]string, error) {
	if encoding != "" {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, &internalerr.ValidationError{Field: "encoding", Message: fmt.Sprintf("unsupported encoding %q", encoding)}
		}
		r = enc.NewDecoder().Reader(r)
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
