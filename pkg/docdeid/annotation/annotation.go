// Package annotation models tagged spans of text and the sets they are
// collected in.
package annotation

import (
	"fmt"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Annotation is an immutable tagged span. Offsets are byte offsets into the
// document text and End-Start always equals len(Text).
//
// Two annotations are equal when text, span, and tag are equal. Priority and
// token references do not take part in equality.
type Annotation struct {
	text     string
	start    int
	end      int
	tag      string
	priority int

	startToken *tokenize.Token
	endToken   *tokenize.Token
}

// Key is the identity of an annotation within a Set.
type Key struct {
	Text  string
	Start int
	End   int
	Tag   string
}

// Option sets an optional annotation attribute.
type Option func(*Annotation)

// WithPriority sets the priority used by downstream sorting.
func WithPriority(p int) Option {
	return func(a *Annotation) { a.priority = p }
}

// WithTokens records the first and last token covered by the annotation.
func WithTokens(start, end *tokenize.Token) Option {
	return func(a *Annotation) {
		a.startToken = start
		a.endToken = end
	}
}

// New creates an annotation, failing when the span does not match the text.
func New(text string, start, end int, tag string, opts ...Option) (Annotation, error) {
	if end-start != len(text) {
		return Annotation{}, internalerr.SpanError(text, start, end)
	}
	a := Annotation{text: text, start: start, end: end, tag: tag}
	for _, opt := range opts {
		opt(&a)
	}
	return a, nil
}

// MustNew is like New but panics on a span mismatch. Use it only where the
// text is sliced from the span itself.
func MustNew(text string, start, end int, tag string, opts ...Option) Annotation {
	a, err := New(text, start, end, tag, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// FromTokens spans from the start of first to the end of last in text.
func FromTokens(text string, first, last *tokenize.Token, tag string, priority int) Annotation {
	return MustNew(text[first.Start:last.End], first.Start, last.End, tag,
		WithPriority(priority), WithTokens(first, last))
}

func (a Annotation) Text() string                { return a.text }
func (a Annotation) Start() int                  { return a.start }
func (a Annotation) End() int                    { return a.end }
func (a Annotation) Tag() string                 { return a.tag }
func (a Annotation) Priority() int               { return a.priority }
func (a Annotation) Len() int                    { return len(a.text) }
func (a Annotation) StartToken() *tokenize.Token { return a.startToken }
func (a Annotation) EndToken() *tokenize.Token   { return a.endToken }

// Key returns the identity of the annotation.
func (a Annotation) Key() Key {
	return Key{Text: a.text, Start: a.start, End: a.end, Tag: a.tag}
}

// Equal compares text, span, and tag.
func (a Annotation) Equal(o Annotation) bool { return a.Key() == o.Key() }

// Overlaps reports whether the two spans share at least one position.
func (a Annotation) Overlaps(o Annotation) bool {
	return a.start < o.end && o.start < a.end
}

func (a Annotation) String() string {
	return fmt.Sprintf("Annotation(%q, %d, %d, %s, priority=%d)", a.text, a.start, a.end, a.tag, a.priority)
}
