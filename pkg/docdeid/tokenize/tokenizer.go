package tokenize

import (
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text into a linked token list.
type Tokenizer interface {
	Tokenize(text string) *List
}

// SpaceSplitTokenizer emits every maximal run of non-whitespace characters.
// Whitespace is not part of any token.
type SpaceSplitTokenizer struct {
	Link LinkFunc
}

// NewSpaceSplitTokenizer creates a tokenizer with literal neighbour links.
func NewSpaceSplitTokenizer() *SpaceSplitTokenizer {
	return &SpaceSplitTokenizer{Link: LinkAdjacent}
}

func (t *SpaceSplitTokenizer) Tokenize(text string) *List {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, mustToken(text[start:i], start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, mustToken(text[start:], start, len(text)))
	}
	return NewList(tokens, t.Link)
}

// WordBoundaryTokenizer cuts the text at every word boundary, the position
// between a word character (letter, number, underscore) and a non-word
// character. Runs of whitespace and punctuation become tokens of their own.
// Non-word text before the first or after the last word is dropped.
type WordBoundaryTokenizer struct {
	Link LinkFunc
	// DropBlanks omits tokens consisting only of whitespace.
	DropBlanks bool
}

// NewWordBoundaryTokenizer creates a tokenizer with literal neighbour links.
func NewWordBoundaryTokenizer() *WordBoundaryTokenizer {
	return &WordBoundaryTokenizer{Link: LinkAdjacent}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func (t *WordBoundaryTokenizer) Tokenize(text string) *List {
	var bounds []int
	prevWord := false
	for i, r := range text {
		w := isWordRune(r)
		if w != prevWord {
			bounds = append(bounds, i)
		}
		prevWord = w
	}
	if prevWord {
		bounds = append(bounds, len(text))
	}

	tokens := make([]Token, 0, len(bounds))
	for i := 0; i+1 < len(bounds); i++ {
		s, e := bounds[i], bounds[i+1]
		if t.DropBlanks && isBlank(text[s:e]) {
			continue
		}
		tokens = append(tokens, mustToken(text[s:e], s, e))
	}
	return NewList(tokens, t.Link)
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// RuneOffset converts a byte offset into text to a character offset.
func RuneOffset(text string, byteOffset int) int {
	return utf8.RuneCountInString(text[:byteOffset])
}
