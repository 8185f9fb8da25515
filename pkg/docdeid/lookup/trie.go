package lookup

import (
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

type trieNode struct {
	children map[string]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// Trie stores token sequences for multi-word phrase matching. The matching
// pipeline is applied to every element on insert and on query.
type Trie struct {
	pipeline strproc.Pipeline
	root     *trieNode
	size     int
}

// NewTrie creates an empty trie.
func NewTrie(p strproc.Pipeline) *Trie {
	return &Trie{pipeline: p, root: newTrieNode()}
}

func (t *Trie) Pipeline() strproc.Pipeline { return t.pipeline }

// Len returns the number of distinct sequences stored.
func (t *Trie) Len() int { return t.size }

// AddItem inserts seq. The empty sequence marks the root terminal.
func (t *Trie) AddItem(seq []string) {
	n := t.root
	for _, elem := range seq {
		key := t.pipeline.Apply(elem)
		child, ok := n.children[key]
		if !ok {
			child = newTrieNode()
			n.children[key] = child
		}
		n = child
	}
	if !n.terminal {
		n.terminal = true
		t.size++
	}
}

// AddItems inserts every sequence.
func (t *Trie) AddItems(seqs [][]string) {
	for _, seq := range seqs {
		t.AddItem(seq)
	}
}

// AddPhrases splits every item into a token sequence with tok and inserts
// it. Items that produce no tokens are skipped.
func (t *Trie) AddPhrases(items []string, tok tokenize.Tokenizer) {
	for _, item := range items {
		if phrase := tok.Tokenize(item).Texts(); len(phrase) > 0 {
			t.AddItem(phrase)
		}
	}
}

// Contains reports whether exactly seq was inserted.
func (t *Trie) Contains(seq []string) bool {
	n := t.root
	for _, elem := range seq {
		n = n.children[t.pipeline.Apply(elem)]
		if n == nil {
			return false
		}
	}
	return n.terminal
}

// LongestMatchingPrefix finds the longest stored sequence that is a prefix of
// seq[start:]. The returned elements have the pipeline applied. A prefix of
// length zero never counts as a match.
func (t *Trie) LongestMatchingPrefix(seq []string, start int) ([]string, bool) {
	if start < 0 || start >= len(seq) {
		return nil, false
	}

	longest := 0
	n := t.root
	for i := start; i < len(seq); i++ {
		n = n.children[t.pipeline.Apply(seq[i])]
		if n == nil {
			break
		}
		if n.terminal {
			longest = i - start + 1
		}
	}
	if longest == 0 {
		return nil, false
	}

	out := make([]string, longest)
	for i := range out {
		out[i] = t.pipeline.Apply(seq[start+i])
	}
	return out, true
}

// NumStartWords returns the number of distinct first elements.
func (t *Trie) NumStartWords() int { return len(t.root.children) }

// StartWords returns a copy of the distinct first elements.
func (t *Trie) StartWords() tokenize.WordSet {
	out := make(tokenize.WordSet, len(t.root.children))
	for w := range t.root.children {
		out[w] = struct{}{}
	}
	return out
}
