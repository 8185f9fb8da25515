package process

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// recorder appends its name to a shared log when it runs.
func recorder(log *[]string, name string) Processor {
	return ProcessorFunc(func(*document.Document) error {
		*log = append(*log, name)
		return nil
	})
}

func buildGroup(t *testing.T, log *[]string) *Group {
	t.Helper()
	inner := NewGroup()
	for _, n := range []string{"inner_a", "inner_b"} {
		if err := inner.Add(n, recorder(log, n)); err != nil {
			t.Fatalf("Add %s: %v", n, err)
		}
	}

	g := NewGroup()
	for _, e := range []struct {
		name string
		p    Processor
	}{
		{"first", recorder(log, "first")},
		{"names", inner},
		{"last", recorder(log, "last")},
	} {
		if err := g.Add(e.name, e.p); err != nil {
			t.Fatalf("Add %s: %v", e.name, err)
		}
	}
	return g
}

func TestGroupNames(t *testing.T) {
	var log []string
	g := buildGroup(t, &log)

	if diff := cmp.Diff([]string{"first", "names", "last"}, g.Names(false)); diff != "" {
		t.Errorf("Names(false) mismatch (-want +got):\n%s", diff)
	}
	want := []string{"first", "names", "inner_a", "inner_b", "last"}
	if diff := cmp.Diff(want, g.Names(true)); diff != "" {
		t.Errorf("Names(true) mismatch (-want +got):\n%s", diff)
	}
	if g.Len() != 3 {
		t.Errorf("Len = %d, want 3", g.Len())
	}
}

func TestGroupInsertRemove(t *testing.T) {
	var log []string
	g := buildGroup(t, &log)

	if err := g.Insert(0, "zero", recorder(&log, "zero")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := g.Insert(2, "two", recorder(&log, "two")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := g.Insert(100, "end", recorder(&log, "end")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := g.Insert(1, "first", recorder(&log, "first")); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("duplicate Insert: err = %v", err)
	}
	want := []string{"zero", "first", "two", "names", "last", "end"}
	if diff := cmp.Diff(want, g.Names(false)); diff != "" {
		t.Errorf("after insert (-want +got):\n%s", diff)
	}

	if err := g.Remove("two"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := g.Remove("two"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("second Remove: err = %v", err)
	}
	if _, err := g.Get("names"); err != nil {
		t.Errorf("Get names: %v", err)
	}
	if _, err := g.Get("inner_a"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Get of nested name: err = %v", err)
	}
}

func TestGroupProcessSelected(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{name: "all", want: []string{"first", "inner_a", "inner_b", "last"}},
		{name: "enabled", sel: Enable("first", "last"), want: []string{"first", "last"}},
		{name: "enabled nested", sel: Enable("names", "inner_b"), want: []string{"inner_b"}},
		{name: "nested without group", sel: Enable("inner_a"), want: nil},
		{name: "disabled", sel: Disable("first"), want: []string{"inner_a", "inner_b", "last"}},
		{name: "disabled group", sel: Disable("names"), want: []string{"first", "last"}},
		{name: "disabled nested", sel: Disable("inner_a"), want: []string{"first", "inner_b", "last"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			g := buildGroup(t, &log)
			if err := g.ProcessSelected(document.New("text"), tt.sel); err != nil {
				t.Fatalf("ProcessSelected: %v", err)
			}
			if diff := cmp.Diff(tt.want, log); diff != "" {
				t.Errorf("run order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupConflictingFilters(t *testing.T) {
	var log []string
	g := buildGroup(t, &log)
	sel := Selection{Enabled: Enable("first").Enabled, Disabled: Disable("last").Disabled}
	if err := g.ProcessSelected(document.New("text"), sel); !errors.Is(err, internalerr.ErrConflictingFilters) {
		t.Errorf("err = %v, want ErrConflictingFilters", err)
	}
	if len(log) != 0 {
		t.Errorf("processors ran: %v", log)
	}
}

func TestGroupProcessError(t *testing.T) {
	boom := errors.New("boom")
	var log []string
	g := NewGroup()
	_ = g.Add("ok", recorder(&log, "ok"))
	_ = g.Add("failing", ProcessorFunc(func(*document.Document) error { return boom }))
	_ = g.Add("after", recorder(&log, "after"))

	err := g.Process(document.New("text"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err.Error() != "processor failing: boom" {
		t.Errorf("err = %q", err.Error())
	}
	if diff := cmp.Diff([]string{"ok"}, log); diff != "" {
		t.Errorf("run order mismatch (-want +got):\n%s", diff)
	}
}
