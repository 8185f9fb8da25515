// Package document holds a text together with everything derived from it
// while it moves through a processing pipeline.
package document

import (
	"crypto/rand"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// DefaultTokenizer is the tokenizer name used when none is given.
const DefaultTokenizer = "default"

// Document is one text being de-identified. It is owned by a single
// goroutine while it is processed.
type Document struct {
	ID       string
	Metadata *Metadata

	text        string
	tokenizers  map[string]tokenize.Tokenizer
	tokenLists  map[string]*tokenize.List
	annotations *annotation.Set

	deidentified    string
	hasDeidentified bool
}

// Option configures a new Document.
type Option func(*Document)

// WithTokenizers sets the named tokenizers available to processors.
func WithTokenizers(t map[string]tokenize.Tokenizer) Option {
	return func(d *Document) {
		d.tokenizers = make(map[string]tokenize.Tokenizer, len(t))
		for name, tok := range t {
			d.tokenizers[name] = tok
		}
	}
}

// WithMetadata sets the initial metadata.
func WithMetadata(items map[string]any) Option {
	return func(d *Document) { d.Metadata = NewMetadata(items) }
}

// WithID sets the document identifier.
func WithID(id string) Option {
	return func(d *Document) { d.ID = id }
}

// New creates a document for text.
func New(text string, opts ...Option) *Document {
	d := &Document{
		text:        text,
		Metadata:    NewMetadata(nil),
		tokenLists:  make(map[string]*tokenize.List),
		annotations: annotation.NewSet(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Text returns the original text.
func (d *Document) Text() string { return d.text }

// TokenizerNames returns the names of the available tokenizers, sorted.
func (d *Document) TokenizerNames() []string {
	names := make([]string, 0, len(d.tokenizers))
	for n := range d.tokenizers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tokens returns the token list of the named tokenizer, tokenizing on first use.
func (d *Document) Tokens(name string) (*tokenize.List, error) {
	if len(d.tokenizers) == 0 {
		return nil, internalerr.ErrNoTokenizers
	}
	if l, ok := d.tokenLists[name]; ok {
		return l, nil
	}
	t, ok := d.tokenizers[name]
	if !ok {
		return nil, &internalerr.LookupError{Kind: "tokenizer", Name: name}
	}
	l := t.Tokenize(d.text)
	d.tokenLists[name] = l
	return l, nil
}

// DefaultTokens returns the tokens of the default tokenizer.
func (d *Document) DefaultTokens() (*tokenize.List, error) {
	return d.Tokens(DefaultTokenizer)
}

// Annotations returns the current annotation set.
func (d *Document) Annotations() *annotation.Set { return d.annotations }

// SetAnnotations replaces the annotation set.
func (d *Document) SetAnnotations(s *annotation.Set) { d.annotations = s }

// AnnosByToken indexes the current annotations by the tokens of every
// tokenizer of the document.
func (d *Document) AnnosByToken() (annotation.ByToken, error) {
	names := d.TokenizerNames()
	if len(names) == 0 {
		return nil, internalerr.ErrNoTokenizers
	}
	lists := make([]*tokenize.List, 0, len(names))
	for _, n := range names {
		l, err := d.Tokens(n)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return d.annotations.ByToken(lists...), nil
}

// DeidentifiedText returns the redacted text and whether a redactor ran.
func (d *Document) DeidentifiedText() (string, bool) {
	return d.deidentified, d.hasDeidentified
}

// SetDeidentifiedText stores the redacted text.
func (d *Document) SetDeidentifiedText(s string) {
	d.deidentified = s
	d.hasDeidentified = true
}

// IDSource hands out monotonic ULIDs. It is safe for concurrent use.
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates a new ULID source.
func NewIDSource() *IDSource {
	return &IDSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new identifier.
func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}
