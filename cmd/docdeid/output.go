package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/docdeid/internal/textsrc"
	"github.com/cognicore/docdeid/pkg/docdeid"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/markup"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

// annotationJSON uses rune offsets so non-Go consumers can slice the text.
type annotationJSON struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

type resultJSON struct {
	ID          string           `json:"id"`
	Text        string           `json:"text"`
	Redacted    string           `json:"redacted,omitempty"`
	Annotations []annotationJSON `json:"annotations"`
}

func render(doc *document.Document, mode string) (string, error) {
	switch mode {
	case "flat":
		return markup.Intext(doc.Text(), doc.Annotations()), nil
	case "nested":
		return markup.Nested(doc.Text(), doc.Annotations()), nil
	case "", "redacted":
		if out, ok := doc.DeidentifiedText(); ok {
			return out, nil
		}
		return doc.Text(), nil
	default:
		return "", fmt.Errorf("unknown output mode %q", mode)
	}
}

func toResult(doc *document.Document) resultJSON {
	text := doc.Text()
	res := resultJSON{
		ID:          doc.ID,
		Text:        text,
		Annotations: []annotationJSON{},
	}
	res.Redacted, _ = doc.DeidentifiedText()
	for _, a := range doc.Annotations().All() {
		res.Annotations = append(res.Annotations, annotationJSON{
			Text:  a.Text(),
			Start: tokenize.RuneOffset(text, a.Start()),
			End:   tokenize.RuneOffset(text, a.End()),
			Tag:   a.Tag(),
		})
	}
	return res
}

func writeResults(w io.Writer, docs []*document.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, doc := range docs {
		if err := enc.Encode(toResult(doc)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func toInputs(records []textsrc.Record) []docdeid.Input {
	inputs := make([]docdeid.Input, len(records))
	for i, r := range records {
		inputs[i] = docdeid.Input{ID: r.ID, Text: r.Text, Metadata: r.Metadata}
	}
	return inputs
}

func parseMeta(pairs []string) (map[string]any, error) {
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", p)
		}
		meta[k] = v
	}
	return meta, nil
}
