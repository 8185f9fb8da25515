package annotation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/tokenize"
)

func fixture() []Annotation {
	return []Annotation{
		MustNew("Hello", 0, 5, "word", WithPriority(10)),
		MustNew("I'm", 6, 9, "word", WithPriority(10)),
		MustNew("Bob", 10, 13, "name", WithPriority(5)),
	}
}

func keys(annos []Annotation) []Key {
	out := make([]Key, len(annos))
	for i, a := range annos {
		out[i] = a.Key()
	}
	return out
}

func TestNew(t *testing.T) {
	a, err := New("cat", 0, 3, "animal")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Text() != "cat" || a.Start() != 0 || a.End() != 3 || a.Tag() != "animal" || a.Len() != 3 {
		t.Errorf("unexpected annotation %v", a)
	}

	if _, err := New("cat", 0, 100, "animal"); !errors.Is(err, internalerr.ErrSpanMismatch) {
		t.Errorf("New with bad span: err = %v, want ErrSpanMismatch", err)
	}
}

func TestNewWithTokens(t *testing.T) {
	l := tokenize.NewSpaceSplitTokenizer().Tokenize("cat and dog")
	a := FromTokens("cat and dog", l.At(0), l.At(2), "animal", 3)

	if a.StartToken() != l.At(0) || a.EndToken() != l.At(2) {
		t.Error("token references not kept")
	}
	if a.Text() != "cat and dog" || a.Priority() != 3 {
		t.Errorf("FromTokens = %v", a)
	}
}

func TestEquality(t *testing.T) {
	tests := []struct {
		name string
		a, b Annotation
		want bool
	}{
		{"same", MustNew("cat", 0, 3, "animal"), MustNew("cat", 0, 3, "animal"), true},
		{"priority ignored", MustNew("cat", 0, 3, "animal", WithPriority(1)), MustNew("cat", 0, 3, "animal", WithPriority(9)), true},
		{"tag differs", MustNew("cat", 0, 3, "animal"), MustNew("cat", 0, 3, "living_being"), false},
		{"span differs", MustNew("cat", 0, 3, "animal"), MustNew("cat", 4, 7, "animal"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSortKey(t *testing.T) {
	a := MustNew("cat", 0, 3, "animal")

	key := OrderBy(Text, Tag).Loose().SortKey(a)
	if len(key) != 2 || key[0].Str() != "cat" || key[1].Str() != "animal" {
		t.Errorf("SortKey(text, tag) = %v", key)
	}

	if n := len(OrderBy(Start).SortKey(a)); n != 6 {
		t.Errorf("deterministic key has %d components, want 6", n)
	}
	if n := len(OrderBy(Start).Loose().SortKey(a)); n != 1 {
		t.Errorf("loose key has %d components, want 1", n)
	}

	want := []Field{Start, End, Length, Priority, Tag, Text}
	if diff := cmp.Diff(want, OrderBy(Start).Fields()); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseField(t *testing.T) {
	for _, name := range []string{"start_char", "end_char", "length", "tag", "priority", "text", "start"} {
		f, err := ParseField(name)
		if err != nil {
			t.Errorf("ParseField(%q): %v", name, err)
			continue
		}
		if name != "start" && f.String() != name {
			t.Errorf("ParseField(%q).String() = %q", name, f.String())
		}
	}
	if _, err := ParseField("colour"); err == nil {
		t.Error("ParseField(colour) should fail")
	}
}

func TestSetMembership(t *testing.T) {
	annos := fixture()
	s := NewSet(annos[0])
	if !s.Contains(annos[0]) || s.Contains(annos[1]) {
		t.Error("Contains is wrong after NewSet")
	}

	s.Add(annos...)
	s.Add(MustNew("Hello", 0, 5, "word", WithPriority(99)))
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if got, _ := s.Get(annos[0].Key()); got.Priority() != 10 {
		t.Errorf("duplicate add replaced the stored annotation: %v", got)
	}

	v := s.Version()
	s.Remove(annos[0])
	if s.Contains(annos[0]) || s.Len() != 2 {
		t.Error("Remove did not remove")
	}
	if s.Version() == v {
		t.Error("Version should change on Remove")
	}
	v = s.Version()
	s.Remove(annos[0])
	if s.Version() != v {
		t.Error("Version should not change when nothing is removed")
	}
}

func TestSetZeroValue(t *testing.T) {
	var s Set
	if s.Len() != 0 || s.HasOverlap() {
		t.Error("zero set should be empty")
	}
	s.Remove(fixture()[0])

	s.Add(fixture()...)
	if s.Len() != len(fixture()) {
		t.Errorf("Len() = %d, want %d", s.Len(), len(fixture()))
	}
	if s.Version() == 0 {
		t.Error("Version should change on Add")
	}
}

func TestSetSorted(t *testing.T) {
	annos := fixture()
	s := NewSet(annos...)

	tests := []struct {
		name  string
		order Order
		want  []Annotation
	}{
		{
			name:  "tag then end descending",
			order: OrderBy(Tag, End).WithCallback(End, Reverse),
			want:  []Annotation{annos[2], annos[1], annos[0]},
		},
		{
			name:  "priority then length descending",
			order: OrderBy(Priority, Length).WithCallback(Length, Reverse),
			want:  []Annotation{annos[2], annos[0], annos[1]},
		},
		{
			name:  "end descending",
			order: OrderBy(End).WithCallback(End, func(v Value) Value { return IntValue(-v.Int()) }),
			want:  []Annotation{annos[2], annos[1], annos[0]},
		},
		{
			name:  "text descending",
			order: OrderBy(Text).WithCallback(Text, Reverse),
			want:  []Annotation{annos[1], annos[0], annos[2]},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(keys(tt.want), keys(s.Sorted(tt.order))); diff != "" {
				t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetSortedDeterministic(t *testing.T) {
	s := NewSet(
		MustNew("b", 0, 1, "x"),
		MustNew("a", 0, 1, "x"),
		MustNew("a", 0, 1, "w"),
		MustNew("ab", 0, 2, "x"),
	)
	want := []Key{
		{"a", 0, 1, "w"},
		{"a", 0, 1, "x"},
		{"b", 0, 1, "x"},
		{"ab", 0, 2, "x"},
	}
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(want, keys(s.Sorted(OrderBy(Start)))); diff != "" {
			t.Fatalf("Sorted run %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestHasOverlap(t *testing.T) {
	tests := []struct {
		name  string
		spans [][2]int
		want  bool
	}{
		{"empty", nil, false},
		{"disjoint", [][2]int{{0, 5}, {6, 9}, {10, 13}}, false},
		{"touching", [][2]int{{0, 5}, {5, 9}}, false},
		{"overlap", [][2]int{{11, 20}, {17, 29}}, true},
		{"nested", [][2]int{{0, 10}, {2, 4}}, true},
		{"unordered", [][2]int{{17, 29}, {0, 3}, {11, 20}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet()
			for _, sp := range tt.spans {
				text := make([]byte, sp[1]-sp[0])
				for i := range text {
					text[i] = 'x'
				}
				s.Add(MustNew(string(text), sp[0], sp[1], "tag"))
			}
			if got := s.HasOverlap(); got != tt.want {
				t.Errorf("HasOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByToken(t *testing.T) {
	text := "Hello I'm Bob Smith"
	l := tokenize.NewWordBoundaryTokenizer().Tokenize(text)
	// Hello, " ", I, ', m, " ", Bob, " ", Smith
	bob := MustNew("Bob", 10, 13, "first_name")
	full := MustNew("Bob Smith", 10, 19, "name")
	hello := MustNew("Hello", 0, 5, "word")
	s := NewSet(bob, full, hello)

	byTok := s.ByToken(l)

	tagsAt := func(i int) []string {
		var tags []string
		for _, a := range byTok[l.At(i)] {
			tags = append(tags, a.Tag())
		}
		return tags
	}

	tests := []struct {
		idx  int
		want []string
	}{
		{0, []string{"word"}},
		{1, nil},
		{5, nil},
		{6, []string{"first_name", "name"}},
		{7, []string{"name"}},
		{8, []string{"name"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tagsAt(tt.idx)); diff != "" {
			t.Errorf("token %d (%q) mismatch (-want +got):\n%s", tt.idx, l.At(tt.idx).Text, diff)
		}
	}

	if again := s.ByToken(l); len(again) != len(byTok) {
		t.Error("cached result differs")
	}

	s.Remove(full)
	if got := s.ByToken(l)[l.At(8)]; len(got) != 0 {
		t.Errorf("stale cache after Remove: %v", got)
	}
}
