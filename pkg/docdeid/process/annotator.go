package process

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/pattern"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Annotator finds spans of interest in a document.
type Annotator interface {
	Annotate(doc *document.Document) ([]annotation.Annotation, error)
}

func annotate(doc *document.Document, a Annotator) error {
	annos, err := a.Annotate(doc)
	if err != nil {
		return err
	}
	doc.Annotations().Add(annos...)
	return nil
}

// MatchValidator can reject a regular expression match before it becomes an
// annotation. loc holds the submatch byte offsets as returned by
// regexp.FindAllStringSubmatchIndex.
type MatchValidator func(doc *document.Document, loc []int) bool

type options struct {
	priority       int
	tokenizer      string
	overlapping    bool
	capturingGroup int
	preMatchWords  []string
	validator      MatchValidator
}

func newOptions(opts []Option) options {
	o := options{tokenizer: document.DefaultTokenizer}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures an annotator. Options that do not apply to an
// annotator are ignored by it.
type Option func(*options)

// WithPriority sets the priority of emitted annotations.
func WithPriority(p int) Option { return func(o *options) { o.priority = p } }

// WithTokenizer selects the tokenizer whose tokens are scanned.
func WithTokenizer(name string) Option { return func(o *options) { o.tokenizer = name } }

// WithOverlapping lets multi-token matches start inside an earlier match.
func WithOverlapping(v bool) Option { return func(o *options) { o.overlapping = v } }

// WithCapturingGroup emits the span of submatch n instead of the whole match.
func WithCapturingGroup(n int) Option { return func(o *options) { o.capturingGroup = n } }

// WithPreMatchWords skips the regular expression for documents that contain
// none of words, compared case-insensitively against the tokens.
func WithPreMatchWords(words ...string) Option {
	return func(o *options) { o.preMatchWords = words }
}

// WithMatchValidator installs a per-match filter.
func WithMatchValidator(v MatchValidator) Option { return func(o *options) { o.validator = v } }

type tagged struct {
	tag      string
	priority int
}

// Tag returns the tag of emitted annotations.
func (t tagged) Tag() string { return t.tag }

func (t tagged) fromTokens(doc *document.Document, first, last *tokenize.Token) annotation.Annotation {
	return annotation.FromTokens(doc.Text(), first, last, t.tag, t.priority)
}

// SingleTokenLookup tags every token whose text is in a lookup set.
type SingleTokenLookup struct {
	tagged
	set       *lookup.Set
	tokenizer string
}

// NewSingleTokenLookup builds a lookup set from values under pipeline p.
func NewSingleTokenLookup(tag string, values []string, p strproc.Pipeline, opts ...Option) *SingleTokenLookup {
	set := lookup.NewSet(p)
	set.AddItems(values)
	return NewSingleTokenLookupFromSet(tag, set, opts...)
}

// NewSingleTokenLookupFromSet tags tokens contained in set.
func NewSingleTokenLookupFromSet(tag string, set *lookup.Set, opts ...Option) *SingleTokenLookup {
	o := newOptions(opts)
	return &SingleTokenLookup{tagged: tagged{tag, o.priority}, set: set, tokenizer: o.tokenizer}
}

func (a *SingleTokenLookup) Annotate(doc *document.Document) ([]annotation.Annotation, error) {
	l, err := doc.Tokens(a.tokenizer)
	if err != nil {
		return nil, err
	}
	toks := l.Lookup(a.set, a.set.Pipeline())
	annos := make([]annotation.Annotation, len(toks))
	for i, tok := range toks {
		annos[i] = a.fromTokens(doc, tok, tok)
	}
	return annos, nil
}

func (a *SingleTokenLookup) Process(doc *document.Document) error { return annotate(doc, a) }

// MultiTokenLookup tags token sequences stored in a trie, preferring the
// longest match at each start token.
type MultiTokenLookup struct {
	tagged
	trie        *lookup.Trie
	tokenizer   string
	overlapping bool

	mu         sync.Mutex
	startWords tokenize.WordSet
}

// NewMultiTokenLookup matches the phrases of trie.
func NewMultiTokenLookup(tag string, trie *lookup.Trie, opts ...Option) *MultiTokenLookup {
	o := newOptions(opts)
	return &MultiTokenLookup{
		tagged:      tagged{tag, o.priority},
		trie:        trie,
		tokenizer:   o.tokenizer,
		overlapping: o.overlapping,
		startWords:  trie.StartWords(),
	}
}

// NewMultiTokenLookupFromValues tokenizes each phrase with tok and stores it
// in a new trie under pipeline p.
func NewMultiTokenLookupFromValues(tag string, values []string, tok tokenize.Tokenizer, p strproc.Pipeline, opts ...Option) *MultiTokenLookup {
	trie := lookup.NewTrie(p)
	trie.AddPhrases(values, tok)
	return NewMultiTokenLookup(tag, trie, opts...)
}

// StartWords returns the first words of the stored phrases. The set is
// recomputed when phrases with new first words were added to the trie.
func (a *MultiTokenLookup) StartWords() tokenize.WordSet {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.startWords) != a.trie.NumStartWords() {
		a.startWords = a.trie.StartWords()
	}
	return a.startWords
}

func (a *MultiTokenLookup) Annotate(doc *document.Document) ([]annotation.Annotation, error) {
	l, err := doc.Tokens(a.tokenizer)
	if err != nil {
		return nil, err
	}
	starts := l.Lookup(a.StartWords(), a.trie.Pipeline())
	texts := l.Texts()

	var annos []annotation.Annotation
	minIdx := 0
	for _, start := range starts {
		i, err := l.Index(start)
		if err != nil {
			return nil, err
		}
		if i < minIdx {
			continue
		}
		match, ok := a.trie.LongestMatchingPrefix(texts, i)
		if !ok {
			continue
		}
		annos = append(annos, a.fromTokens(doc, start, l.At(i+len(match)-1)))
		if !a.overlapping {
			minIdx = i + len(match)
		}
	}
	return annos, nil
}

func (a *MultiTokenLookup) Process(doc *document.Document) error { return annotate(doc, a) }

var lowercase = strproc.Pipeline{strproc.Lowercase{}}

// Regexp tags matches of a regular expression in the raw text. Matches are
// not aligned to tokens.
type Regexp struct {
	tagged
	re        *regexp.Regexp
	group     int
	preMatch  tokenize.WordSet
	validator MatchValidator
}

// NewRegexp compiles expr.
func NewRegexp(tag, expr string, opts ...Option) (*Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return NewRegexpFromCompiled(tag, re, opts...)
}

// NewRegexpFromCompiled uses an already compiled expression.
func NewRegexpFromCompiled(tag string, re *regexp.Regexp, opts ...Option) (*Regexp, error) {
	o := newOptions(opts)
	if o.capturingGroup < 0 || o.capturingGroup > re.NumSubexp() {
		return nil, fmt.Errorf("capturing group %d out of range for %q", o.capturingGroup, re.String())
	}
	a := &Regexp{
		tagged:    tagged{tag, o.priority},
		re:        re,
		group:     o.capturingGroup,
		validator: o.validator,
	}
	if o.preMatchWords != nil {
		a.preMatch = make(tokenize.WordSet, len(o.preMatchWords))
		for _, w := range o.preMatchWords {
			a.preMatch[strings.ToLower(w)] = struct{}{}
		}
	}
	return a, nil
}

func (a *Regexp) skip(doc *document.Document) bool {
	if a.preMatch == nil {
		return false
	}
	l, err := doc.DefaultTokens()
	if err != nil {
		// No tokens to check against; fail open.
		return false
	}
	return !l.HasAnyWord(a.preMatch, lowercase)
}

func (a *Regexp) Annotate(doc *document.Document) ([]annotation.Annotation, error) {
	if a.skip(doc) {
		return nil, nil
	}
	text := doc.Text()
	var annos []annotation.Annotation
	for _, loc := range a.re.FindAllStringSubmatchIndex(text, -1) {
		if a.validator != nil && !a.validator(doc, loc) {
			continue
		}
		start, end := loc[2*a.group], loc[2*a.group+1]
		if start < 0 {
			continue
		}
		anno, err := annotation.New(text[start:end], start, end, a.tag, annotation.WithPriority(a.priority))
		if err != nil {
			return nil, err
		}
		annos = append(annos, anno)
	}
	return annos, nil
}

func (a *Regexp) Process(doc *document.Document) error { return annotate(doc, a) }

// TokenPatternAnnotator runs a TokenPattern on every token.
type TokenPatternAnnotator struct {
	tagged
	pattern   pattern.TokenPattern
	tokenizer string
}

// NewTokenPatternAnnotator tags matches of p with p.Tag().
func NewTokenPatternAnnotator(p pattern.TokenPattern, opts ...Option) *TokenPatternAnnotator {
	o := newOptions(opts)
	return &TokenPatternAnnotator{tagged: tagged{p.Tag(), o.priority}, pattern: p, tokenizer: o.tokenizer}
}

func (a *TokenPatternAnnotator) Annotate(doc *document.Document) ([]annotation.Annotation, error) {
	if !a.pattern.DocPrecondition(doc) {
		return nil, nil
	}
	l, err := doc.Tokens(a.tokenizer)
	if err != nil {
		return nil, err
	}
	var annos []annotation.Annotation
	for _, tok := range l.Tokens() {
		if !a.pattern.TokenPrecondition(tok) {
			continue
		}
		first, last, ok := a.pattern.Match(tok, doc.Metadata)
		if !ok {
			continue
		}
		annos = append(annos, a.fromTokens(doc, first, last))
	}
	return annos, nil
}

func (a *TokenPatternAnnotator) Process(doc *document.Document) error { return annotate(doc, a) }

// SequenceAnnotator tags token sequences matching a sequence pattern.
type SequenceAnnotator struct {
	tagged
	seq       pattern.Sequence
	lookups   lookup.Collection
	tokenizer string
	// starts restricts candidate start tokens when the anchor position is a
	// plain dictionary lookup. Nested and/or anchors are not restricted.
	starts *lookup.Set
}

// NewSequenceAnnotator validates seq against lookups.
func NewSequenceAnnotator(tag string, seq pattern.Sequence, lookups lookup.Collection, opts ...Option) (*SequenceAnnotator, error) {
	if err := pattern.Validate(seq.Positions, lookups); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	a := &SequenceAnnotator{
		tagged:    tagged{tag, o.priority},
		seq:       seq,
		lookups:   lookups,
		tokenizer: o.tokenizer,
	}
	if anchor, ok := seq.Anchor(); ok && anchor.Func == pattern.FuncLookup && !strings.Contains(anchor.Value, ".") {
		set, err := lookups.Set(anchor.Value)
		if err != nil {
			return nil, fmt.Errorf("sequence start lookup: %w", err)
		}
		a.starts = set
	}
	return a, nil
}

func (a *SequenceAnnotator) Annotate(doc *document.Document) ([]annotation.Annotation, error) {
	l, err := doc.Tokens(a.tokenizer)
	if err != nil {
		return nil, err
	}
	candidates := l.Tokens()
	if a.starts != nil {
		candidates = l.Lookup(a.starts, a.starts.Pipeline())
	}

	byTok, err := doc.AnnosByToken()
	if err != nil {
		return nil, err
	}
	env := pattern.Env{Lookups: a.lookups, Metadata: doc.Metadata, ByToken: byTok}

	var annos []annotation.Annotation
	for _, tok := range candidates {
		first, last, ok := a.seq.Match(tok, env)
		if !ok {
			continue
		}
		annos = append(annos, a.fromTokens(doc, first, last))
	}
	return annos, nil
}

func (a *SequenceAnnotator) Process(doc *document.Document) error { return annotate(doc, a) }
