// Package pattern describes token-level matching rules: free-form token
// patterns and declarative sequence patterns.
package pattern

import (
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// TokenPattern matches a construct anchored at a single token.
type TokenPattern interface {
	Tag() string
	// DocPrecondition returns false to skip the document entirely.
	DocPrecondition(doc *document.Document) bool
	// TokenPrecondition returns false to skip a token.
	TokenPrecondition(tok *tokenize.Token) bool
	// Match returns the first and last token of a match anchored at tok.
	Match(tok *tokenize.Token, meta *document.Metadata) (first, last *tokenize.Token, ok bool)
}

// Base implements the preconditions of TokenPattern as always true. Embed it
// and add a Match method.
type Base struct {
	tag string
}

// NewBase returns a Base emitting tag.
func NewBase(tag string) Base { return Base{tag: tag} }

func (b Base) Tag() string                           { return b.tag }
func (Base) DocPrecondition(*document.Document) bool { return true }
func (Base) TokenPrecondition(*tokenize.Token) bool  { return true }
