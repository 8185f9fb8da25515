package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Func selects the test applied at one sequence position.
type Func string

const (
	FuncEqual      Func = "equal"
	FuncReMatch    Func = "re_match"
	FuncIsInitial  Func = "is_initial"
	FuncIsInitials Func = "is_initials"
	FuncLikeName   Func = "like_name"
	FuncLookup     Func = "lookup"
	FuncNegLookup  Func = "neg_lookup"
	FuncTag        Func = "tag"
	FuncAnd        Func = "and"
	FuncOr         Func = "or"
)

// Position is the test for one token of a sequence. Which fields are used
// depends on Func: Value for equal, re_match, lookup, neg_lookup and tag;
// Flag for is_initial, is_initials and like_name; Children for and/or.
type Position struct {
	Func     Func
	Value    string
	Flag     bool
	Children []Position

	re *regexp.Regexp
}

// Equal matches tokens whose text is exactly s.
func Equal(s string) Position { return Position{Func: FuncEqual, Value: s} }

// ReMatch matches tokens whose text starts with a match of expr.
func ReMatch(expr string) (Position, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return Position{}, fmt.Errorf("compile re_match %q: %w", expr, err)
	}
	return Position{Func: FuncReMatch, Value: expr, re: re}, nil
}

// IsInitial matches a single uppercase letter or a common Dutch digraph
// initial (Ch, Chr, Ph, Th) when want is true, and anything else otherwise.
//
// Deprecated: use IsInitials.
func IsInitial(want bool) Position { return Position{Func: FuncIsInitial, Flag: want} }

// IsInitials matches uppercase tokens of at most four characters when want
// is true.
func IsInitials(want bool) Position { return Position{Func: FuncIsInitials, Flag: want} }

// LikeName matches title-cased tokens of at least three characters without
// digits when want is true.
func LikeName(want bool) Position { return Position{Func: FuncLikeName, Flag: want} }

// Lookup matches tokens contained in the named dictionary. A dotted name
// "key.attr" reads attr of the document metadata value stored under key.
func Lookup(name string) Position { return Position{Func: FuncLookup, Value: name} }

// NegLookup is the negation of Lookup.
func NegLookup(name string) Position { return Position{Func: FuncNegLookup, Value: name} }

// HasTag matches tokens covered by an annotation with the given tag.
func HasTag(tag string) Position { return Position{Func: FuncTag, Value: tag} }

// And matches when every child matches.
func And(children ...Position) Position { return Position{Func: FuncAnd, Children: children} }

// Or matches when any child matches.
func Or(children ...Position) Position { return Position{Func: FuncOr, Children: children} }

// Env is what a position can consult besides the token itself.
type Env struct {
	Lookups  lookup.Collection
	Metadata *document.Metadata
	ByToken  annotation.ByToken
}

var digraphInitials = map[string]struct{}{"Ch": {}, "Chr": {}, "Ph": {}, "Th": {}}

// Match tests tok.
func (p Position) Match(tok *tokenize.Token, env Env) bool {
	text := tok.Text
	switch p.Func {
	case FuncEqual:
		return text == p.Value
	case FuncReMatch:
		re := p.re
		if re == nil {
			var err error
			if re, err = cachedReMatch(p.Value); err != nil {
				return false
			}
		}
		return re.MatchString(text)
	case FuncIsInitial:
		_, digraph := digraphInitials[text]
		single := utf8.RuneCountInString(text) == 1 && isUpper(text)
		return (single || digraph) == p.Flag
	case FuncIsInitials:
		return (utf8.RuneCountInString(text) <= 4 && isUpper(text)) == p.Flag
	case FuncLikeName:
		return (utf8.RuneCountInString(text) >= 3 && isTitle(text) && !hasDigit(text)) == p.Flag
	case FuncLookup:
		return lookupMatch(p.Value, text, env)
	case FuncNegLookup:
		return !lookupMatch(p.Value, text, env)
	case FuncTag:
		for _, a := range env.ByToken[tok] {
			if a.Tag() == p.Value {
				return true
			}
		}
		return false
	case FuncAnd:
		for _, c := range p.Children {
			if !c.Match(tok, env) {
				return false
			}
		}
		return true
	case FuncOr:
		for _, c := range p.Children {
			if c.Match(tok, env) {
				return true
			}
		}
		return false
	}
	return false
}

// reCache holds re_match expressions of positions built as literals rather
// than through ReMatch, Compile or Validate.
var reCache sync.Map

func cachedReMatch(expr string) (*regexp.Regexp, error) {
	if re, ok := reCache.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	p, err := ReMatch(expr)
	if err != nil {
		return nil, err
	}
	re, _ := reCache.LoadOrStore(expr, p.re)
	return re.(*regexp.Regexp), nil
}

// Compile prepares the regular expressions of re_match positions in place,
// including nested ones, and reports the first invalid expression.
func Compile(positions []Position) error {
	for i := range positions {
		p := &positions[i]
		switch p.Func {
		case FuncReMatch:
			if p.re != nil {
				continue
			}
			compiled, err := ReMatch(p.Value)
			if err != nil {
				return &internalerr.ValidationError{Field: "pattern", Message: err.Error()}
			}
			p.re = compiled.re
		case FuncAnd, FuncOr:
			if err := Compile(p.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

// Attributer exposes named attributes of a metadata value to dotted lookups.
type Attributer interface {
	Attr(name string) (any, bool)
}

func lookupMatch(name, text string, env Env) bool {
	if key, attr, dotted := strings.Cut(name, "."); dotted {
		if env.Metadata == nil {
			return false
		}
		val, ok := metadataAttr(env.Metadata.Get(key), attr)
		if !ok {
			return false
		}
		return containsValue(val, text)
	}

	switch s := env.Lookups[name].(type) {
	case *lookup.Set:
		return s.Contains(text)
	case *lookup.Trie:
		return s.Contains([]string{text})
	}
	return false
}

func metadataAttr(v any, attr string) (any, bool) {
	switch m := v.(type) {
	case Attributer:
		return m.Attr(attr)
	case map[string]any:
		val, ok := m[attr]
		return val, ok
	case map[string]string:
		val, ok := m[attr]
		return val, ok
	}
	return nil, false
}

func containsValue(val any, text string) bool {
	switch v := val.(type) {
	case string:
		return text == v
	case []string:
		for _, s := range v {
			if s == text {
				return true
			}
		}
	case []any:
		for _, s := range v {
			if s == text {
				return true
			}
		}
	case map[string]struct{}:
		_, ok := v[text]
		return ok
	case interface{ Contains(string) bool }:
		return v.Contains(text)
	}
	return false
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether uppercase letters only follow uncased characters
// and lowercase letters only follow cased ones, with at least one cased letter.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
