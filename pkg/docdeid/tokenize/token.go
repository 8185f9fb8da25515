// Package tokenize splits text into positioned tokens and indexes them for
// dictionary lookups.
package tokenize

import (
	"fmt"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Token is a span of the source text. Offsets are byte offsets, so
// End-Start always equals len(Text).
type Token struct {
	Text  string
	Start int
	End   int

	list  *List
	index int
}

// NewToken validates the span against the text.
func NewToken(text string, start, end int) (Token, error) {
	if end-start != len(text) {
		return Token{}, internalerr.SpanError(text, start, end)
	}
	return Token{Text: text, Start: start, End: end, index: -1}, nil
}

func mustToken(text string, start, end int) Token {
	t, err := NewToken(text, start, end)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the length of the token text in bytes.
func (t *Token) Len() int { return len(t.Text) }

// Index returns the position of the token in its list, or -1 if the token
// does not belong to one.
func (t *Token) Index() int {
	if t.list == nil {
		return -1
	}
	return t.index
}

// Previous follows the previous link n times. It returns nil when the chain
// ends first.
func (t *Token) Previous(n int) *Token { return t.follow(n, Left) }

// Next follows the next link n times. It returns nil when the chain ends first.
func (t *Token) Next(n int) *Token { return t.follow(n, Right) }

func (t *Token) follow(n int, dir Direction) *Token {
	if t.list == nil {
		if n == 0 {
			return t
		}
		return nil
	}
	i := t.index
	for ; n > 0; n-- {
		i = t.list.link(i, dir)
		if i < 0 {
			return nil
		}
	}
	return &t.list.tokens[i]
}

// Walk returns the token itself followed by every token reachable through
// links in the given direction.
func (t *Token) Walk(dir Direction) []*Token {
	out := []*Token{t}
	if t.list == nil {
		return out
	}
	for i := t.list.link(t.index, dir); i >= 0; i = t.list.link(i, dir) {
		out = append(out, &t.list.tokens[i])
	}
	return out
}

// Equal compares text and span only.
func (t *Token) Equal(o *Token) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Text == o.Text && t.Start == o.Start && t.End == o.End
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%q, %d, %d)", t.Text, t.Start, t.End)
}
