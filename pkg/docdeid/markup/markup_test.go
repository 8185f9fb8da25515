package markup

import (
	"testing"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
)

func TestIntext(t *testing.T) {
	const text = "My name is John and I live in Japan"
	annos := annotation.NewSet(
		annotation.MustNew("John", 11, 15, "name"),
		annotation.MustNew("Japan", 30, 35, "location"),
	)
	want := "My name is <NAME>John</NAME> and I live in <LOCATION>Japan</LOCATION>"
	if got := Intext(text, annos); got != want {
		t.Errorf("Intext = %q, want %q", got, want)
	}
	if got := Intext(text, annotation.NewSet()); got != text {
		t.Errorf("Intext without annotations = %q", got)
	}
}

func TestNested(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		annos []annotation.Annotation
		want  string
	}{
		{
			name: "flat",
			text: "My name is John and I live in Japan",
			annos: []annotation.Annotation{
				annotation.MustNew("John", 11, 15, "name"),
				annotation.MustNew("Japan", 30, 35, "location"),
			},
			want: "My name is <NAME>John</NAME> and I live in <LOCATION>Japan</LOCATION>",
		},
		{
			name: "nested",
			text: "Dr. John Smith",
			annos: []annotation.Annotation{
				annotation.MustNew("John", 4, 8, "first_name"),
				annotation.MustNew("Dr. John Smith", 0, 14, "person"),
			},
			want: "<PERSON>Dr. <FIRST_NAME>John</FIRST_NAME> Smith</PERSON>",
		},
		{
			name: "shared boundaries",
			text: "John Smith",
			annos: []annotation.Annotation{
				annotation.MustNew("John", 0, 4, "first_name"),
				annotation.MustNew("Smith", 5, 10, "surname"),
				annotation.MustNew("John Smith", 0, 10, "name"),
			},
			want: "<NAME><FIRST_NAME>John</FIRST_NAME> <SURNAME>Smith</SURNAME></NAME>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Nested(tt.text, annotation.NewSet(tt.annos...)); got != tt.want {
				t.Errorf("Nested = %q, want %q", got, tt.want)
			}
		})
	}
}
