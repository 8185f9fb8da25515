package textsrc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTMLText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Hello Bob", want: "Hello Bob"},
		{name: "inline", in: "<p>Hello <b>Bob</b></p>", want: "Hello Bob"},
		{
			name: "blocks",
			in:   "<html><head><style>p{}</style></head><body><h1>Note</h1><p>Patient Jan</p><script>x()</script><div>Age 42</div></body></html>",
			want: "Note\nPatient Jan\nAge 42",
		},
		{name: "entities", in: "Caf&eacute; &amp; bar", want: "Café & bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLText(tt.in); got != tt.want {
				t.Errorf("HTMLText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadJSONL(t *testing.T) {
	in := strings.Join([]string{
		`{"id": "a", "text": "Hello Bob"}`,
		``,
		`{not json`,
		`{"id": "b", "text": "<p>Hi <i>Jan</i></p>", "html": true, "metadata": {"patient": "Jan"}}`,
	}, "\n")

	core, logs := observer.New(zap.WarnLevel)
	got, err := ReadJSONL(strings.NewReader(in), "input", zap.New(core))
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}

	want := []Record{
		{ID: "a", Text: "Hello Bob"},
		{ID: "b", Text: "Hi Jan", HTML: true, Metadata: map[string]any{"patient": "Jan"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	if line := logs.All()[0].ContextMap()["line"]; line != int64(3) {
		t.Errorf("logged line = %v, want 3", line)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	if err := os.WriteFile(path, []byte(`{"id":"x","text":"t"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadJSONL(path, nil)
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Errorf("got %v", got)
	}

	if _, err := LoadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
