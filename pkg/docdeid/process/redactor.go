package process

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Redactor produces the de-identified text from the annotations.
type Redactor interface {
	Redact(text string, annos *annotation.Set) (string, error)
}

func redact(doc *document.Document, r Redactor) error {
	out, err := r.Redact(doc.Text(), doc.Annotations())
	if err != nil {
		return err
	}
	doc.SetDeidentifiedText(out)
	return nil
}

// RedactAllText replaces the whole text with a fixed marker.
type RedactAllText struct {
	Open  string
	Close string
}

// NewRedactAllText returns a redactor producing "[REDACTED]".
func NewRedactAllText() *RedactAllText {
	return &RedactAllText{Open: "[", Close: "]"}
}

func (r *RedactAllText) Redact(string, *annotation.Set) (string, error) {
	return r.Open + "REDACTED" + r.Close, nil
}

func (r *RedactAllText) Process(doc *document.Document) error { return redact(doc, r) }

// SimpleRedactor replaces each annotation with its upper-cased tag and a
// counter, such as "[NAME-2]". Within a tag every distinct text gets its own
// number, assigned in order of appearance; repeated texts reuse it.
type SimpleRedactor struct {
	Open         string
	Close        string
	CheckOverlap bool
}

// NewSimpleRedactor returns a redactor with square brackets that rejects
// overlapping annotations.
func NewSimpleRedactor() *SimpleRedactor {
	return &SimpleRedactor{Open: "[", Close: "]", CheckOverlap: true}
}

type tagText struct {
	tag, text string
}

func (r *SimpleRedactor) Redact(text string, annos *annotation.Set) (string, error) {
	if r.CheckOverlap && annos.HasOverlap() {
		return "", fmt.Errorf("%w: cannot redact", internalerr.ErrOverlap)
	}

	counters := make(map[tagText]int)
	perTag := make(map[string]int)
	for _, a := range annos.Sorted(annotation.OrderBy(annotation.End)) {
		k := tagText{a.Tag(), a.Text()}
		if _, ok := counters[k]; ok {
			continue
		}
		perTag[a.Tag()]++
		counters[k] = perTag[a.Tag()]
	}

	rightToLeft := annotation.OrderBy(annotation.End).WithCallback(annotation.End, annotation.Reverse)
	for _, a := range annos.Sorted(rightToLeft) {
		var b strings.Builder
		b.WriteString(text[:a.Start()])
		b.WriteString(r.Open)
		b.WriteString(strings.ToUpper(a.Tag()))
		b.WriteString("-")
		b.WriteString(strconv.Itoa(counters[tagText{a.Tag(), a.Text()}]))
		b.WriteString(r.Close)
		b.WriteString(text[a.End():])
		text = b.String()
	}
	return text, nil
}

func (r *SimpleRedactor) Process(doc *document.Document) error { return redact(doc, r) }
