// Package strproc provides the string transforms and filters used to clean
// dictionary entries and to normalize text before lookup comparisons.
package strproc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Processor transforms a list of items. Modifiers map each item, filters drop
// items, expanders add variants.
type Processor interface {
	ProcessItems(items []string) []string
	// Key identifies the processor and its configuration, used as a cache key.
	Key() string
}

// Modifier is a Processor that maps one string to another.
type Modifier interface {
	Processor
	Process(item string) string
}

func modifyAll(m Modifier, items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = m.Process(item)
	}
	return out
}

// Pipeline is an ordered list of modifiers applied before storing or
// comparing text.
type Pipeline []Modifier

// Apply runs item through every modifier in order.
func (p Pipeline) Apply(item string) string {
	for _, m := range p {
		item = m.Process(item)
	}
	return item
}

// Key identifies the pipeline. Equal keys mean equal transforms.
func (p Pipeline) Key() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, len(p))
	for i, m := range p {
		keys[i] = m.Key()
	}
	return strings.Join(keys, "|")
}

// ProcessAll runs items through each processor in order.
func ProcessAll(items []string, procs []Processor) []string {
	for _, p := range procs {
		items = p.ProcessItems(items)
	}
	return items
}

// Lowercase lowercases the whole string.
type Lowercase struct{}

func (Lowercase) Process(item string) string             { return strings.ToLower(item) }
func (l Lowercase) ProcessItems(items []string) []string { return modifyAll(l, items) }
func (Lowercase) Key() string                            { return "lowercase" }

// LowercaseTail keeps the first character and lowercases the rest, so
// "JANSEN" and "Jansen" both become "Jansen".
type LowercaseTail struct{}

func (LowercaseTail) Process(item string) string {
	r, size := utf8.DecodeRuneInString(item)
	if size == 0 {
		return item
	}
	return string(r) + strings.ToLower(item[size:])
}
func (l LowercaseTail) ProcessItems(items []string) []string { return modifyAll(l, items) }
func (LowercaseTail) Key() string                            { return "lowercase_tail" }

// Strip trims whitespace, or Chars when set, from both ends.
type Strip struct {
	Chars string
}

func (s Strip) Process(item string) string {
	if s.Chars == "" {
		return strings.TrimSpace(item)
	}
	return strings.Trim(item, s.Chars)
}
func (s Strip) ProcessItems(items []string) []string { return modifyAll(s, items) }
func (s Strip) Key() string {
	if s.Chars == "" {
		return "strip"
	}
	return fmt.Sprintf("strip(%q)", s.Chars)
}

func isNonASCII(r rune) bool { return r > unicode.MaxASCII }

// RemoveNonASCII drops every non-ASCII character: "Renée" -> "Rene".
type RemoveNonASCII struct{}

func (RemoveNonASCII) Process(item string) string {
	return strings.Map(func(r rune) rune {
		if isNonASCII(r) {
			return -1
		}
		return r
	}, item)
}
func (r RemoveNonASCII) ProcessItems(items []string) []string { return modifyAll(r, items) }
func (RemoveNonASCII) Key() string                            { return "remove_non_ascii" }

// ReplaceNonASCII decomposes characters and keeps their ASCII base:
// "Renée" -> "Renee".
type ReplaceNonASCII struct{}

func (ReplaceNonASCII) Process(item string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isNonASCII)))
	out, _, err := transform.String(t, item)
	if err != nil {
		return RemoveNonASCII{}.Process(item)
	}
	return out
}
func (r ReplaceNonASCII) ProcessItems(items []string) []string { return modifyAll(r, items) }
func (ReplaceNonASCII) Key() string                            { return "replace_non_ascii" }

// ReplaceValue replaces every literal occurrence of Find with Replace.
type ReplaceValue struct {
	Find    string
	Replace string
}

func (r ReplaceValue) Process(item string) string {
	if r.Find == "" {
		return item
	}
	return strings.ReplaceAll(item, r.Find, r.Replace)
}
func (r ReplaceValue) ProcessItems(items []string) []string { return modifyAll(r, items) }
func (r ReplaceValue) Key() string                          { return fmt.Sprintf("replace(%q,%q)", r.Find, r.Replace) }

// ReplaceValueRegexp replaces every match of a regular expression.
type ReplaceValueRegexp struct {
	re      *regexp.Regexp
	replace string
}

// NewReplaceValueRegexp compiles pattern. Replace may use $1-style group references.
func NewReplaceValueRegexp(pattern, replace string) (*ReplaceValueRegexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}
	return &ReplaceValueRegexp{re: re, replace: replace}, nil
}

func (r *ReplaceValueRegexp) Process(item string) string {
	return r.re.ReplaceAllString(item, r.replace)
}
func (r *ReplaceValueRegexp) ProcessItems(items []string) []string { return modifyAll(r, items) }
func (r *ReplaceValueRegexp) Key() string {
	return fmt.Sprintf("replace_regexp(%q,%q)", r.re.String(), r.replace)
}

// FilterByLength keeps items of at least MinLen characters.
type FilterByLength struct {
	MinLen int
}

func (f FilterByLength) Filter(item string) bool {
	return utf8.RuneCountInString(item) >= f.MinLen
}

func (f FilterByLength) ProcessItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if f.Filter(item) {
			out = append(out, item)
		}
	}
	return out
}

func (f FilterByLength) Key() string { return fmt.Sprintf("min_len(%d)", f.MinLen) }

// MinimumLengthExpander adds the output of each modifier as an extra variant
// for items of at least MinLength characters. Shorter items pass unchanged.
type MinimumLengthExpander struct {
	Modifiers []Modifier
	MinLength int
}

// NewMinimumLengthExpander returns an expander with the default minimum length of 5.
func NewMinimumLengthExpander(mods ...Modifier) MinimumLengthExpander {
	return MinimumLengthExpander{Modifiers: mods, MinLength: 5}
}

// Expand returns item followed by its distinct variants.
func (e MinimumLengthExpander) Expand(item string) []string {
	out := []string{item}
	if utf8.RuneCountInString(item) < e.MinLength {
		return out
	}
	seen := map[string]struct{}{item: {}}
	for _, m := range e.Modifiers {
		v := m.Process(item)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (e MinimumLengthExpander) ProcessItems(items []string) []string {
	var out []string
	for _, item := range items {
		out = append(out, e.Expand(item)...)
	}
	return out
}

func (e MinimumLengthExpander) Key() string {
	return fmt.Sprintf("expand(%d,%s)", e.MinLength, Pipeline(e.Modifiers).Key())
}

// ModifierByName resolves the configuration name of an argument-free modifier.
func ModifierByName(name string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lowercase":
		return Lowercase{}, nil
	case "lowercase_tail":
		return LowercaseTail{}, nil
	case "strip":
		return Strip{}, nil
	case "remove_non_ascii":
		return RemoveNonASCII{}, nil
	case "replace_non_ascii":
		return ReplaceNonASCII{}, nil
	}
	return nil, fmt.Errorf("unknown string modifier %q", name)
}
