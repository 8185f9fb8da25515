package strproc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModifiers(t *testing.T) {
	re, err := NewReplaceValueRegexp(`\d+`, "number")
	if err != nil {
		t.Fatalf("NewReplaceValueRegexp: %v", err)
	}

	tests := []struct {
		name string
		mod  Modifier
		in   string
		want string
	}{
		{"lowercase", Lowercase{}, "Albert", "albert"},
		{"lowercase tail", LowercaseTail{}, "JANSEN", "Jansen"},
		{"lowercase tail empty", LowercaseTail{}, "", ""},
		{"strip", Strip{}, " test\n", "test"},
		{"strip chars", Strip{Chars: "."}, "..a.b..", "a.b"},
		{"remove non ascii", RemoveNonASCII{}, "Renée", "Rene"},
		{"remove non ascii all", RemoveNonASCII{}, "áóçëū", ""},
		{"replace non ascii", ReplaceNonASCII{}, "Renée", "Renee"},
		{"replace non ascii all", ReplaceNonASCII{}, "áóçëū", "aoceu"},
		{"replace value", ReplaceValue{Find: "cat", Replace: "dog"}, "a cat", "a dog"},
		{"replace value untouched", ReplaceValue{Find: "cat", Replace: "dog"}, "test", "test"},
		{"replace regexp", re, "1 is smaller than 2", "number is smaller than number"},
		{"replace regexp untouched", re, "one", "one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mod.Process(tt.in); got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterByLength(t *testing.T) {
	f := FilterByLength{MinLen: 5}
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"test", false},
		{"12345", true},
		{"longer phrase", true},
	}
	for _, tt := range tests {
		if got := f.Filter(tt.in); got != tt.want {
			t.Errorf("Filter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	got := f.ProcessItems([]string{"a", "abcde", "abc", "abcdef"})
	if diff := cmp.Diff([]string{"abcde", "abcdef"}, got); diff != "" {
		t.Errorf("ProcessItems mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline(t *testing.T) {
	p := Pipeline{Strip{}, Lowercase{}, ReplaceNonASCII{}}
	if got := p.Apply("  Renée "); got != "renee" {
		t.Errorf("Apply = %q, want %q", got, "renee")
	}
	if got := (Pipeline{}).Apply("Same"); got != "Same" {
		t.Errorf("empty Apply = %q, want %q", got, "Same")
	}

	if p.Key() == (Pipeline{Lowercase{}, Strip{}, ReplaceNonASCII{}}).Key() {
		t.Error("pipelines in different order should have different keys")
	}
	if p.Key() != (Pipeline{Strip{}, Lowercase{}, ReplaceNonASCII{}}).Key() {
		t.Error("equal pipelines should have equal keys")
	}
	if (Pipeline{}).Key() != Pipeline(nil).Key() {
		t.Error("empty and nil pipelines should share a key")
	}
}

func TestMinimumLengthExpander(t *testing.T) {
	e := NewMinimumLengthExpander(Lowercase{}, ReplaceValue{Find: "-", Replace: " "})

	tests := []struct {
		in   string
		want []string
	}{
		{"Jan", []string{"Jan"}},
		{"Van-Dijk", []string{"Van-Dijk", "van-dijk", "Van Dijk"}},
		{"lower", []string{"lower"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, e.Expand(tt.in)); diff != "" {
			t.Errorf("Expand(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	got := ProcessAll([]string{" Jan ", " Van-Dijk"}, []Processor{Strip{}, e})
	want := []string{"Jan", "Van-Dijk", "van-dijk", "Van Dijk"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ProcessAll mismatch (-want +got):\n%s", diff)
	}
}

func TestModifierByName(t *testing.T) {
	for _, name := range []string{"lowercase", "Strip", "replace_non_ascii", "remove_non_ascii", "lowercase_tail"} {
		if _, err := ModifierByName(name); err != nil {
			t.Errorf("ModifierByName(%q) error: %v", name, err)
		}
	}
	if _, err := ModifierByName("uppercase"); err == nil {
		t.Error("ModifierByName(uppercase) should fail")
	}
}
