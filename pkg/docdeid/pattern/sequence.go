package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Sequence is an ordered list of positions matched against consecutive
// linked tokens. Tokens whose text is in Skip are passed over without
// consuming a position.
type Sequence struct {
	Direction tokenize.Direction
	Skip      map[string]struct{}
	Positions []Position
}

// NewSequence builds a sequence walking in dir.
func NewSequence(dir tokenize.Direction, skip []string, positions ...Position) Sequence {
	return Sequence{
		Direction: dir,
		Skip:      lo.SliceToMap(skip, func(s string) (string, struct{}) { return s, struct{}{} }),
		Positions: positions,
	}
}

// Anchor returns the position tested against the start token.
func (s Sequence) Anchor() (Position, bool) {
	if len(s.Positions) == 0 {
		return Position{}, false
	}
	return s.Positions[s.Direction.Indices(len(s.Positions))[0]], true
}

// Match walks from start in the sequence direction. All positions must match
// for a hit; the returned tokens are the leftmost and rightmost of the match.
// Links are followed one token at a time and the walk stops at the first
// failing position.
func (s Sequence) Match(start *tokenize.Token, env Env) (first, last *tokenize.Token, ok bool) {
	order := s.Direction.Indices(len(s.Positions))
	tok, end := start, start
	for _, pi := range order {
		for tok != nil && s.skipped(tok) {
			tok = s.step(tok)
		}
		if tok == nil || !s.Positions[pi].Match(tok, env) {
			return nil, nil, false
		}
		end = tok
		tok = s.step(tok)
	}

	if s.Direction == tokenize.Left {
		return end, start, true
	}
	return start, end, true
}

func (s Sequence) skipped(tok *tokenize.Token) bool {
	_, ok := s.Skip[tok.Text]
	return ok
}

func (s Sequence) step(tok *tokenize.Token) *tokenize.Token {
	if s.Direction == tokenize.Left {
		return tok.Previous(1)
	}
	return tok.Next(1)
}

// ParsePosition converts the configuration form of a position, a map with
// exactly one key naming the function, into a Position.
func ParsePosition(m map[string]any) (Position, error) {
	if len(m) != 1 {
		return Position{}, &internalerr.ValidationError{
			Field:   "pattern",
			Message: fmt.Sprintf("cannot parse a token pattern which doesn't have exactly 1 key: %v", m),
		}
	}
	var (
		fn  string
		val any
	)
	for k, v := range m {
		fn, val = k, v
	}

	switch Func(fn) {
	case FuncAnd, FuncOr:
		items, ok := val.([]any)
		if !ok {
			return Position{}, positionTypeError(fn, "a list", val)
		}
		children := make([]Position, 0, len(items))
		for _, item := range items {
			cm, ok := toStringMap(item)
			if !ok {
				return Position{}, positionTypeError(fn, "a list of patterns", item)
			}
			c, err := ParsePosition(cm)
			if err != nil {
				return Position{}, err
			}
			children = append(children, c)
		}
		return Position{Func: Func(fn), Children: children}, nil
	case FuncIsInitial, FuncIsInitials, FuncLikeName:
		b, ok := val.(bool)
		if !ok {
			return Position{}, positionTypeError(fn, "a boolean", val)
		}
		return Position{Func: Func(fn), Flag: b}, nil
	case FuncEqual, FuncLookup, FuncNegLookup, FuncTag:
		s, ok := val.(string)
		if !ok {
			return Position{}, positionTypeError(fn, "a string", val)
		}
		return Position{Func: Func(fn), Value: s}, nil
	case FuncReMatch:
		s, ok := val.(string)
		if !ok {
			return Position{}, positionTypeError(fn, "a string", val)
		}
		p, err := ReMatch(s)
		if err != nil {
			return Position{}, &internalerr.ValidationError{Field: "pattern", Message: err.Error()}
		}
		return p, nil
	}
	return Position{}, &internalerr.ValidationError{Field: "pattern", Message: fmt.Sprintf("no known logic for pattern %q", fn)}
}

// ParsePositions parses a list of configuration positions.
func ParsePositions(items []map[string]any) ([]Position, error) {
	out := make([]Position, 0, len(items))
	for _, m := range items {
		p, err := ParsePosition(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	}
	return nil, false
}

func positionTypeError(fn, want string, got any) error {
	return &internalerr.ValidationError{
		Field:   "pattern",
		Message: fmt.Sprintf("%s expects %s, got %T", fn, want, got),
	}
}

// LookupNames returns the sorted dictionary names referenced by positions,
// including nested ones. Dotted metadata references are not included.
func LookupNames(positions []Position) []string {
	var names []string
	var walk func([]Position)
	walk = func(ps []Position) {
		for _, p := range ps {
			switch p.Func {
			case FuncLookup, FuncNegLookup:
				if !strings.Contains(p.Value, ".") {
					names = append(names, p.Value)
				}
			case FuncAnd, FuncOr:
				walk(p.Children)
			}
		}
	}
	walk(positions)
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

// Validate checks that positions is not empty, compiles their regular
// expressions in place and checks that every dictionary they reference
// exists in lookups. All unknown names are reported together.
func Validate(positions []Position, lookups lookup.Collection) error {
	if len(positions) == 0 {
		return &internalerr.ValidationError{Field: "pattern", Message: "missing or empty"}
	}
	if err := Compile(positions); err != nil {
		return err
	}
	names := LookupNames(positions)
	if len(names) == 0 {
		return nil
	}
	if lookups == nil {
		return &internalerr.ValidationError{Field: "pattern", Message: "no lookup structures were provided"}
	}
	unknown := lo.Filter(names, func(n string, _ int) bool {
		_, ok := lookups[n]
		return !ok
	})
	if len(unknown) > 0 {
		return &internalerr.ValidationError{
			Message: fmt.Sprintf("Unknown lookup entity types: %s.", strings.Join(unknown, ", ")),
		}
	}
	return nil
}
