package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/pattern"
	"github.com/cognicore/docdeid/pkg/docdeid/process"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// group builds every spec into a new group. All failing specs are reported.
func (b *builder) group(specs []ProcessorSpec) (*process.Group, error) {
	g := process.NewGroup()
	var errs error
	for i, spec := range specs {
		if spec.Name == "" {
			errs = multierr.Append(errs, &internalerr.ValidationError{
				Field: "processors", Message: fmt.Sprintf("entry %d has no name", i),
			})
			continue
		}
		p, err := b.processor(spec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("processor %s: %w", spec.Name, err))
			continue
		}
		if err := g.Add(spec.Name, p); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return g, errs
}

func (b *builder) options(spec ProcessorSpec) []process.Option {
	opts := []process.Option{process.WithPriority(spec.Priority), process.WithOverlapping(spec.Overlapping)}
	if spec.Tokenizer != "" {
		opts = append(opts, process.WithTokenizer(spec.Tokenizer))
	}
	return opts
}

func requireTag(spec ProcessorSpec) error {
	if spec.Tag == "" {
		return &internalerr.ValidationError{Field: "tag", Message: "required"}
	}
	return nil
}

func (b *builder) processor(spec ProcessorSpec) (process.Processor, error) {
	switch spec.Type {
	case "single_token_lookup":
		return b.singleTokenLookup(spec)
	case "multi_token_lookup":
		return b.multiTokenLookup(spec)
	case "regexp":
		if err := requireTag(spec); err != nil {
			return nil, err
		}
		opts := append(b.options(spec), process.WithCapturingGroup(spec.CapturingGroup))
		if len(spec.PreMatchWords) > 0 {
			opts = append(opts, process.WithPreMatchWords(spec.PreMatchWords...))
		}
		return process.NewRegexp(spec.Tag, spec.Pattern, opts...)
	case "sequence":
		return b.sequence(spec)
	case "overlap_resolver":
		return overlapResolver(spec)
	case "merge_adjacent":
		opts := []process.MergeOption{}
		if spec.SlackRegexp != "" {
			opts = append(opts, process.WithSlack(spec.SlackRegexp))
		}
		if spec.CheckOverlap != nil && !*spec.CheckOverlap {
			opts = append(opts, process.WithoutOverlapCheck())
		}
		return process.NewMergeAdjacent(opts...)
	case "simple_redactor":
		r := process.NewSimpleRedactor()
		setBrackets(&r.Open, &r.Close, spec)
		if spec.CheckOverlap != nil {
			r.CheckOverlap = *spec.CheckOverlap
		}
		return r, nil
	case "redact_all":
		r := process.NewRedactAllText()
		setBrackets(&r.Open, &r.Close, spec)
		return r, nil
	case "group":
		return b.group(spec.Processors)
	}
	return nil, &internalerr.ValidationError{Field: "type", Message: fmt.Sprintf("unknown processor type %q", spec.Type)}
}

func setBrackets(openCh, closeCh *string, spec ProcessorSpec) {
	if spec.OpenChar != "" {
		*openCh = spec.OpenChar
	}
	if spec.CloseChar != "" {
		*closeCh = spec.CloseChar
	}
}

func (b *builder) singleTokenLookup(spec ProcessorSpec) (process.Processor, error) {
	if err := requireTag(spec); err != nil {
		return nil, err
	}
	if spec.Lookup != "" {
		set, err := b.lookups.Set(spec.Lookup)
		if err != nil {
			return nil, err
		}
		return process.NewSingleTokenLookupFromSet(spec.Tag, set, b.options(spec)...), nil
	}
	p, err := Pipeline(spec.MatchingPipeline)
	if err != nil {
		return nil, err
	}
	return process.NewSingleTokenLookup(spec.Tag, spec.Values, p, b.options(spec)...), nil
}

func (b *builder) multiTokenLookup(spec ProcessorSpec) (process.Processor, error) {
	if err := requireTag(spec); err != nil {
		return nil, err
	}
	if spec.Lookup != "" {
		trie, err := b.lookups.Trie(spec.Lookup)
		if err != nil {
			return nil, err
		}
		return process.NewMultiTokenLookup(spec.Tag, trie, b.options(spec)...), nil
	}
	p, err := Pipeline(spec.MatchingPipeline)
	if err != nil {
		return nil, err
	}
	tok, err := b.tokenizer(spec.Tokenizer)
	if err != nil {
		return nil, err
	}
	return process.NewMultiTokenLookupFromValues(spec.Tag, spec.Values, tok, p, b.options(spec)...), nil
}

func (b *builder) sequence(spec ProcessorSpec) (process.Processor, error) {
	if err := requireTag(spec); err != nil {
		return nil, err
	}
	positions, err := pattern.ParsePositions(spec.Sequence)
	if err != nil {
		return nil, err
	}
	dir := tokenize.Right
	if spec.Direction != "" {
		if dir, err = tokenize.ParseDirection(spec.Direction); err != nil {
			return nil, err
		}
	}
	seq := pattern.NewSequence(dir, spec.Skip, positions...)
	var lookups = b.lookups
	if len(lookups) == 0 {
		lookups = nil
	}
	return process.NewSequenceAnnotator(spec.Tag, seq, lookups, b.options(spec)...)
}

func overlapResolver(spec ProcessorSpec) (process.Processor, error) {
	if len(spec.SortBy) == 0 {
		return nil, &internalerr.ValidationError{Field: "sort_by", Message: "required"}
	}
	fields := make([]annotation.Field, len(spec.SortBy))
	for i, name := range spec.SortBy {
		f, err := annotation.ParseField(name)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	order := annotation.OrderBy(fields...)
	for _, name := range spec.Reverse {
		f, err := annotation.ParseField(name)
		if err != nil {
			return nil, err
		}
		order = order.WithCallback(f, annotation.Reverse)
	}
	return process.NewOverlapResolver(order), nil
}
