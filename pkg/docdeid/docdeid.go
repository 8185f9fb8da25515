// Package docdeid is the entry point for de-identifying text: a set of named
// tokenizers plus an ordered group of processors that annotate and redact.
package docdeid

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/process"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// Deidentifier is the main de-identification facade
type Deidentifier struct {
	tokenizers map[string]tokenize.Tokenizer
	processors *process.Group
	logger     *zap.Logger
	ids        *document.IDSource
}

// Options configures a Deidentifier instance
type Options struct {
	Tokenizers map[string]tokenize.Tokenizer
	Processors *process.Group
	// Logger receives debug records per document. Nil disables logging.
	Logger *zap.Logger
}

// New creates a Deidentifier with the given tokenizers and processors
func New(opts Options) *Deidentifier {
	d := &Deidentifier{
		tokenizers: make(map[string]tokenize.Tokenizer, len(opts.Tokenizers)),
		processors: opts.Processors,
		logger:     opts.Logger,
		ids:        document.NewIDSource(),
	}
	maps.Copy(d.tokenizers, opts.Tokenizers)
	if d.processors == nil {
		d.processors = process.NewGroup()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// SetTokenizer registers a tokenizer under name, replacing any previous one.
// Call it before processing starts.
func (d *Deidentifier) SetTokenizer(name string, t tokenize.Tokenizer) {
	d.tokenizers[name] = t
}

// Processors returns the top-level processor group for editing.
func (d *Deidentifier) Processors() *process.Group { return d.processors }

type settings struct {
	sel      process.Selection
	metadata map[string]any
	id       string
}

// Option adjusts a single Deidentify call.
type Option func(*settings)

// WithEnabled runs only the named processors.
func WithEnabled(names ...string) Option {
	return func(s *settings) { s.sel.Enabled = process.Enable(names...).Enabled }
}

// WithDisabled skips the named processors.
func WithDisabled(names ...string) Option {
	return func(s *settings) { s.sel.Disabled = process.Disable(names...).Disabled }
}

// WithMetadata attaches metadata that processors can consult.
func WithMetadata(m map[string]any) Option {
	return func(s *settings) { s.metadata = m }
}

// WithID sets the document ID instead of generating one.
func WithID(id string) Option {
	return func(s *settings) { s.id = id }
}

// Deidentify runs the processors over text and returns the processed
// document, holding the annotations and, when a redactor ran, the
// de-identified text.
func (d *Deidentifier) Deidentify(text string, opts ...Option) (*document.Document, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.id == "" {
		s.id = d.ids.Next()
	}

	doc := document.New(text,
		document.WithID(s.id),
		document.WithTokenizers(d.tokenizers),
		document.WithMetadata(s.metadata),
	)

	start := time.Now()
	if err := d.processors.ProcessSelected(doc, s.sel); err != nil {
		return nil, fmt.Errorf("deidentify %s: %w", doc.ID, err)
	}
	d.logger.Debug("document processed",
		zap.String("id", doc.ID),
		zap.Int("chars", len(text)),
		zap.Int("annotations", doc.Annotations().Len()),
		zap.Duration("took", time.Since(start)),
	)
	return doc, nil
}

// Input is one document of a batch.
type Input struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// DeidentifyBatch processes inputs concurrently with at most workers
// documents in flight. Results are in input order. The first error cancels
// the remaining work.
func (d *Deidentifier) DeidentifyBatch(ctx context.Context, inputs []Input, workers int, opts ...Option) ([]*document.Document, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]*document.Document, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	start := time.Now()
	for i, in := range inputs {
		i, in := i, in // per-iteration copy (pre-Go 1.22 loop semantics)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docOpts := append([]Option{WithMetadata(in.Metadata)}, opts...)
			if in.ID != "" {
				docOpts = append(docOpts, WithID(in.ID))
			}
			doc, err := d.Deidentify(in.Text, docOpts...)
			if err != nil {
				return err
			}
			out[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.logger.Debug("batch processed",
		zap.Int("documents", len(inputs)),
		zap.Int("workers", workers),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}
