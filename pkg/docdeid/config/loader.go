package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/lookup"
	"github.com/cognicore/docdeid/pkg/docdeid/process"
	"github.com/cognicore/docdeid/pkg/docdeid/store"
	"github.com/cognicore/docdeid/pkg/docdeid/store/sqlite"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Loader loads a configuration file and constructs components
type Loader struct {
	ConfigPath string
	// BaseDir resolves relative file paths. Defaults to the directory of
	// ConfigPath.
	BaseDir string
	// Store overrides the store named in the configuration.
	Store store.Store
}

// Components holds everything built from a configuration
type Components struct {
	Tokenizers map[string]tokenize.Tokenizer
	Lookups    lookup.Collection
	Processors *process.Group
	// Store is the dictionary store opened for the configuration, if any.
	// The caller closes it.
	Store store.Store
}

// Load reads the configuration file and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	f, err := LoadFile(l.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	base := l.BaseDir
	if base == "" {
		base = filepath.Dir(l.ConfigPath)
	}
	return Build(ctx, f, base, l.Store)
}

// Build constructs components from a parsed configuration. Independent
// errors are collected and returned together.
func Build(ctx context.Context, f *File, baseDir string, st store.Store) (*Components, error) {
	comp := &Components{Store: st}

	if st == nil && f.Store != "" {
		opened, err := sqlite.OpenSQLite(ctx, resolve(baseDir, f.Store))
		if err != nil {
			return nil, fmt.Errorf("open dictionary store: %w", err)
		}
		comp.Store = opened
	}

	var errs error
	comp.Tokenizers, errs = buildTokenizers(f.Tokenizers)

	b := &builder{ctx: ctx, baseDir: baseDir, store: comp.Store, tokenizers: comp.Tokenizers}
	comp.Lookups = make(lookup.Collection, len(f.Lookups))
	for _, name := range sortedKeys(f.Lookups) {
		s, err := b.lookup(f.Lookups[name])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lookup %s: %w", name, err))
			continue
		}
		comp.Lookups[name] = s
	}
	b.lookups = comp.Lookups

	procs, err := b.group(f.Processors)
	errs = multierr.Append(errs, err)
	comp.Processors = procs

	if errs != nil {
		if comp.Store != nil && st == nil {
			comp.Store.Close()
		}
		return nil, errs
	}
	return comp, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func buildTokenizers(specs map[string]TokenizerSpec) (map[string]tokenize.Tokenizer, error) {
	if len(specs) == 0 {
		return map[string]tokenize.Tokenizer{
			document.DefaultTokenizer: tokenize.NewWordBoundaryTokenizer(),
		}, nil
	}

	var errs error
	out := make(map[string]tokenize.Tokenizer, len(specs))
	for _, name := range sortedKeys(specs) {
		spec := specs[name]
		link, err := linkFunc(spec.Link)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tokenizer %s: %w", name, err))
			continue
		}
		switch spec.Type {
		case "", "word_boundary":
			out[name] = &tokenize.WordBoundaryTokenizer{Link: link, DropBlanks: spec.DropBlanks}
		case "space_split":
			out[name] = &tokenize.SpaceSplitTokenizer{Link: link}
		default:
			errs = multierr.Append(errs, fmt.Errorf("tokenizer %s: %w", name,
				&internalerr.ValidationError{Field: "type", Message: fmt.Sprintf("unknown tokenizer type %q", spec.Type)}))
		}
	}
	return out, errs
}

func linkFunc(name string) (tokenize.LinkFunc, error) {
	switch name {
	case "", "literal":
		return tokenize.LinkAdjacent, nil
	case "alnum":
		return tokenize.LinkAlnum, nil
	case "none":
		return tokenize.LinkNone, nil
	}
	return nil, &internalerr.ValidationError{Field: "link", Message: fmt.Sprintf("unknown link %q", name)}
}

// Pipeline resolves modifier names into a matching pipeline.
func Pipeline(names []string) (strproc.Pipeline, error) {
	var p strproc.Pipeline
	for _, n := range names {
		m, err := strproc.ModifierByName(n)
		if err != nil {
			return nil, &internalerr.ValidationError{Field: "matching_pipeline", Message: err.Error()}
		}
		p = append(p, m)
	}
	return p, nil
}

// Cleaning resolves a cleaning pipeline. Besides modifier names it accepts
// "min_length:N", which drops items shorter than N characters, and
// "expand:N:mod1,mod2", which adds the output of each modifier as a variant
// of every item of at least N characters.
func Cleaning(names []string) ([]strproc.Processor, error) {
	var procs []strproc.Processor
	for _, n := range names {
		if arg, ok := strings.CutPrefix(n, "expand:"); ok {
			e, err := expander(arg)
			if err != nil {
				return nil, &internalerr.ValidationError{Field: "cleaning_pipeline", Message: fmt.Sprintf("%q: %v", n, err)}
			}
			procs = append(procs, e)
			continue
		}
		if arg, ok := strings.CutPrefix(n, "min_length:"); ok {
			minLen, err := strconv.Atoi(arg)
			if err != nil || minLen < 0 {
				return nil, &internalerr.ValidationError{Field: "cleaning_pipeline", Message: fmt.Sprintf("bad length in %q", n)}
			}
			procs = append(procs, strproc.FilterByLength{MinLen: minLen})
			continue
		}
		m, err := strproc.ModifierByName(n)
		if err != nil {
			return nil, &internalerr.ValidationError{Field: "cleaning_pipeline", Message: err.Error()}
		}
		procs = append(procs, m)
	}
	return procs, nil
}

func expander(arg string) (strproc.MinimumLengthExpander, error) {
	lenArg, modArg, ok := strings.Cut(arg, ":")
	if !ok || modArg == "" {
		return strproc.MinimumLengthExpander{}, fmt.Errorf("expected expand:N:modifiers")
	}
	minLen, err := strconv.Atoi(lenArg)
	if err != nil || minLen < 0 {
		return strproc.MinimumLengthExpander{}, fmt.Errorf("bad length %q", lenArg)
	}
	e := strproc.MinimumLengthExpander{MinLength: minLen}
	for _, name := range strings.Split(modArg, ",") {
		m, err := strproc.ModifierByName(name)
		if err != nil {
			return strproc.MinimumLengthExpander{}, err
		}
		e.Modifiers = append(e.Modifiers, m)
	}
	return e, nil
}

type builder struct {
	ctx        context.Context
	baseDir    string
	store      store.Store
	tokenizers map[string]tokenize.Tokenizer
	lookups    lookup.Collection
}

func (b *builder) tokenizer(name string) (tokenize.Tokenizer, error) {
	if name == "" {
		name = document.DefaultTokenizer
	}
	t, ok := b.tokenizers[name]
	if !ok {
		return nil, &internalerr.LookupError{Kind: "tokenizer", Name: name}
	}
	return t, nil
}

// lookup builds a set, or a trie when tok is not nil, from the first of file,
// items or store given in spec.
func (b *builder) lookup(spec LookupSpec) (lookup.Structure, error) {
	p, err := Pipeline(spec.MatchingPipeline)
	if err != nil {
		return nil, err
	}
	cleaning, err := Cleaning(spec.CleaningPipeline)
	if err != nil {
		return nil, err
	}

	var tok tokenize.Tokenizer
	switch spec.Type {
	case "", "set":
	case "trie":
		if tok, err = b.tokenizer(spec.Tokenizer); err != nil {
			return nil, err
		}
	default:
		return nil, &internalerr.ValidationError{Field: "type", Message: fmt.Sprintf("unknown lookup type %q", spec.Type)}
	}

	switch {
	case spec.File != "":
		opts := lookup.FileOptions{
			KeepWhitespace: spec.StripLines != nil && !*spec.StripLines,
			Encoding:       spec.Encoding,
			Cleaning:       cleaning,
		}
		path := resolve(b.baseDir, spec.File)
		if tok == nil {
			set := lookup.NewSet(p)
			if err := set.AddItemsFromFile(path, opts); err != nil {
				return nil, err
			}
			return set, nil
		}
		items, err := opts.ReadItems(path)
		if err != nil {
			return nil, err
		}
		trie := lookup.NewTrie(p)
		trie.AddPhrases(items, tok)
		return trie, nil
	case spec.Items != nil:
		if tok == nil {
			set := lookup.NewSet(p)
			set.AddItems(spec.Items, cleaning...)
			return set, nil
		}
		trie := lookup.NewTrie(p)
		trie.AddPhrases(strproc.ProcessAll(spec.Items, cleaning), tok)
		return trie, nil
	case spec.Store != "":
		if b.store == nil {
			return nil, &internalerr.ValidationError{Field: "store", Message: "no dictionary store configured"}
		}
		if tok == nil {
			return store.LoadSet(b.ctx, b.store, spec.Store, p, cleaning...)
		}
		return store.LoadTrie(b.ctx, b.store, spec.Store, tok, p, cleaning...)
	}
	return nil, &internalerr.ValidationError{Message: "one of file, items, or store is required"}
}
