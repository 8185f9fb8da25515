package process

import (
	"errors"
	"testing"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

func TestRedactAllText(t *testing.T) {
	r := NewRedactAllText()
	got, err := r.Redact("Hello I'm Bob", annotation.NewSet(annotation.MustNew("Bob", 10, 13, "name")))
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	if got != "[REDACTED]" {
		t.Errorf("Redact = %q", got)
	}

	r.Open, r.Close = "<", ">"
	if got, _ := r.Redact("x", annotation.NewSet()); got != "<REDACTED>" {
		t.Errorf("custom brackets: %q", got)
	}
}

func TestSimpleRedactor(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		annos []annotation.Annotation
		want  string
	}{
		{
			name: "no annotations",
			text: "Hello I'm Bob",
			want: "Hello I'm Bob",
		},
		{
			name: "repeated text",
			text: "Hello I'm Bob, and Bob is my name",
			annos: []annotation.Annotation{
				annotation.MustNew("Bob", 10, 13, "name"),
				annotation.MustNew("Bob", 19, 22, "name"),
			},
			want: "Hello I'm [NAME-1], and [NAME-1] is my name",
		},
		{
			name: "distinct texts",
			text: "Bob met Alice and Bob",
			annos: []annotation.Annotation{
				annotation.MustNew("Bob", 0, 3, "name"),
				annotation.MustNew("Alice", 8, 13, "name"),
				annotation.MustNew("Bob", 18, 21, "name"),
			},
			want: "[NAME-1] met [NAME-2] and [NAME-1]",
		},
		{
			name: "counters per tag",
			text: "Bob lives in Paris and Bob",
			annos: []annotation.Annotation{
				annotation.MustNew("Bob", 0, 3, "name"),
				annotation.MustNew("Paris", 13, 18, "location"),
				annotation.MustNew("Bob", 23, 26, "name"),
			},
			want: "[NAME-1] lives in [LOCATION-1] and [NAME-1]",
		},
		{
			name: "same text different tags",
			text: "Paris Paris",
			annos: []annotation.Annotation{
				annotation.MustNew("Paris", 0, 5, "name"),
				annotation.MustNew("Paris", 6, 11, "location"),
			},
			want: "[NAME-1] [LOCATION-1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSimpleRedactor().Redact(tt.text, annotation.NewSet(tt.annos...))
			if err != nil {
				t.Fatalf("Redact: %v", err)
			}
			if got != tt.want {
				t.Errorf("Redact = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSimpleRedactorOverlap(t *testing.T) {
	annos := annotation.NewSet(
		annotation.MustNew("Billy Bob", 11, 20, "name"),
		annotation.MustNew("Bob Thornton", 17, 29, "name"),
	)
	const text = "My name is Billy Bob Thornton"

	if _, err := NewSimpleRedactor().Redact(text, annos); !errors.Is(err, internalerr.ErrOverlap) {
		t.Errorf("err = %v, want ErrOverlap", err)
	}

	r := &SimpleRedactor{Open: "<", Close: ">"}
	if _, err := r.Redact(text, annos); err != nil {
		t.Errorf("unchecked redactor: %v", err)
	}
}

func TestRedactorProcess(t *testing.T) {
	doc := document.New("Hello I'm Bob")
	if _, ok := doc.DeidentifiedText(); ok {
		t.Fatal("deidentified text set before redaction")
	}
	doc.Annotations().Add(annotation.MustNew("Bob", 10, 13, "name"))

	if err := NewSimpleRedactor().Process(doc); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got, ok := doc.DeidentifiedText()
	if !ok || got != "Hello I'm [NAME-1]" {
		t.Errorf("DeidentifiedText = %q, %v", got, ok)
	}
}
