package tokenize

import (
	"slices"
	"sync"
	"unicode"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
)

// LinkFunc computes the previous and next neighbour of every token, or -1
// for none. It runs once when a list is built and must be linear in the
// number of tokens.
type LinkFunc func(tokens []Token) (prev, next []int)

// LinkAdjacent links every token to its literal neighbours.
func LinkAdjacent(tokens []Token) (prev, next []int) {
	prev, next = make([]int, len(tokens)), make([]int, len(tokens))
	for i := range tokens {
		prev[i], next[i] = i-1, i+1
	}
	if n := len(tokens); n > 0 {
		next[n-1] = -1
	}
	return prev, next
}

// LinkNone leaves tokens unlinked.
func LinkNone(tokens []Token) (prev, next []int) {
	prev, next = make([]int, len(tokens)), make([]int, len(tokens))
	for i := range tokens {
		prev[i], next[i] = -1, -1
	}
	return prev, next
}

// LinkAlnum links every token to the nearest neighbour containing a letter
// or digit, skipping whitespace and punctuation tokens.
func LinkAlnum(tokens []Token) (prev, next []int) {
	prev, next = make([]int, len(tokens)), make([]int, len(tokens))
	last := -1
	for i := range tokens {
		prev[i] = last
		if hasAlnum(tokens[i].Text) {
			last = i
		}
	}
	last = -1
	for i := len(tokens) - 1; i >= 0; i-- {
		next[i] = last
		if hasAlnum(tokens[i].Text) {
			last = i
		}
	}
	return prev, next
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Matcher reports membership of an already normalized word.
type Matcher interface {
	ContainsNormalized(word string) bool
}

// WordSet is a plain set of normalized words.
type WordSet map[string]struct{}

func (w WordSet) ContainsNormalized(word string) bool {
	_, ok := w[word]
	return ok
}

type wordIndex struct {
	words  WordSet
	byText map[string][]int
}

// List is the ordered token sequence of one text. Tokens live in a single
// backing array; links are indices into it and never change after NewList.
type List struct {
	tokens []Token
	prev   []int
	next   []int

	mu      sync.Mutex
	indices map[string]*wordIndex
}

// NewList takes ownership of tokens and links them with link. A nil link
// means LinkAdjacent.
func NewList(tokens []Token, link LinkFunc) *List {
	if link == nil {
		link = LinkAdjacent
	}
	l := &List{
		tokens:  tokens,
		indices: make(map[string]*wordIndex),
	}
	for i := range l.tokens {
		l.tokens[i].list = l
		l.tokens[i].index = i
	}
	l.prev, l.next = link(l.tokens)
	return l
}

func (l *List) link(i int, dir Direction) int {
	if dir == Left {
		return l.prev[i]
	}
	return l.next[i]
}

// Len returns the number of tokens.
func (l *List) Len() int { return len(l.tokens) }

// At returns the token at position i.
func (l *List) At(i int) *Token { return &l.tokens[i] }

// Tokens returns every token in order.
func (l *List) Tokens() []*Token {
	out := make([]*Token, len(l.tokens))
	for i := range l.tokens {
		out[i] = &l.tokens[i]
	}
	return out
}

// Texts returns the text of every token in order.
func (l *List) Texts() []string {
	out := make([]string, len(l.tokens))
	for i := range l.tokens {
		out[i] = l.tokens[i].Text
	}
	return out
}

// Index returns the position of tok, which must belong to this list.
func (l *List) Index(tok *Token) (int, error) {
	if tok == nil || tok.list != l {
		return -1, internalerr.ErrTokenNotIndexed
	}
	return tok.index, nil
}

func (l *List) wordIndex(p strproc.Pipeline) *wordIndex {
	key := p.Key()
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx, ok := l.indices[key]; ok {
		return idx
	}
	idx := &wordIndex{words: make(WordSet), byText: make(map[string][]int)}
	for i := range l.tokens {
		w := p.Apply(l.tokens[i].Text)
		idx.words[w] = struct{}{}
		idx.byText[w] = append(idx.byText[w], i)
	}
	l.indices[key] = idx
	return idx
}

// Words returns the set of token texts after applying p. The result is
// cached per pipeline and must not be modified.
func (l *List) Words(p strproc.Pipeline) WordSet {
	return l.wordIndex(p).words
}

// HasAnyWord reports whether any normalized token text is in words.
func (l *List) HasAnyWord(words Matcher, p strproc.Pipeline) bool {
	for w := range l.Words(p) {
		if words.ContainsNormalized(w) {
			return true
		}
	}
	return false
}

// Lookup returns, in list order, the tokens whose text after p is a member
// of values.
func (l *List) Lookup(values Matcher, p strproc.Pipeline) []*Token {
	idx := l.wordIndex(p)
	var positions []int
	for w, is := range idx.byText {
		if values.ContainsNormalized(w) {
			positions = append(positions, is...)
		}
	}
	slices.Sort(positions)
	out := make([]*Token, len(positions))
	for i, pos := range positions {
		out[i] = &l.tokens[pos]
	}
	return out
}

// Equal compares the token texts and spans of two lists.
func (l *List) Equal(o *List) bool {
	if l.Len() != o.Len() {
		return false
	}
	for i := range l.tokens {
		if !l.tokens[i].Equal(&o.tokens[i]) {
			return false
		}
	}
	return true
}
