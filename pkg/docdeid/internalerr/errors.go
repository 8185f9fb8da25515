package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("duplicate entry")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrSpanMismatch       = errors.New("span does not match text length")
	ErrConflictingFilters = errors.New("cannot specify both enabled and disabled processors")
	ErrTypeMismatch       = errors.New("incompatible lookup structures")
	ErrOverlap            = errors.New("annotations overlap")
	ErrNoTokenizers       = errors.New("no tokenizers available")
	ErrTokenNotIndexed    = errors.New("token is not part of this list")
)

// ValidationError reports a configuration value that failed validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfig
}

// LookupError reports a named resource (tokenizer, lookup, processor) that
// could not be resolved.
type LookupError struct {
	Kind string
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// SpanError reports a span whose length differs from its text.
func SpanError(text string, start, end int) error {
	return fmt.Errorf("%w: %q has length %d, span [%d, %d)", ErrSpanMismatch, text, len(text), start, end)
}
