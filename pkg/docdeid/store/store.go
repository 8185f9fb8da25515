// Package store persists named lookup dictionaries so they can be shared
// between configurations and edited without touching list files.
package store

import (
	"context"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Store is the interface for persisting dictionary lists.
type Store interface {
	Close() error

	// PutList replaces the items of a list, creating it if needed.
	PutList(ctx context.Context, name string, items []string) error
	// AppendItems adds items to a list, creating it if needed. Items already
	// present are ignored.
	AppendItems(ctx context.Context, name string, items []string) error
	// List returns the items of a list in sorted order.
	List(ctx context.Context, name string) ([]string, bool, error)
	// Names returns all list names in sorted order.
	Names(ctx context.Context) ([]string, error)
	DeleteList(ctx context.Context, name string) error
}

// Clean drops empty items and duplicates, keeping the first occurrence.
func Clean(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, v := range items {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func load(ctx context.Context, st Store, name string) ([]string, error) {
	items, ok, err := st.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &internalerr.LookupError{Kind: "dictionary", Name: name}
	}
	return items, nil
}

// LoadSet reads the named list into a new lookup set using pipeline p.
func LoadSet(ctx context.Context, st Store, name string, p strproc.Pipeline, cleaning ...strproc.Processor) (*lookup.Set, error) {
	items, err := load(ctx, st, name)
	if err != nil {
		return nil, err
	}
	set := lookup.NewSet(p)
	set.AddItems(items, cleaning...)
	return set, nil
}

// LoadTrie reads the named list into a new trie, splitting every item into
// a phrase with tok. Items that produce no tokens are skipped.
func LoadTrie(ctx context.Context, st Store, name string, tok tokenize.Tokenizer, p strproc.Pipeline, cleaning ...strproc.Processor) (*lookup.Trie, error) {
	items, err := load(ctx, st, name)
	if err != nil {
		return nil, err
	}
	trie := lookup.NewTrie(p)
	trie.AddPhrases(strproc.ProcessAll(items, cleaning), tok)
	return trie, nil
}
