package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/docdeid/pkg/docdeid/store"
	"github.com/cognicore/docdeid/pkg/docdeid/strproc"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "dicts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestSQLiteLists tests basic list operations
func TestSQLiteLists(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	if err := st.PutList(ctx, "first_names", []string{"Jan", "Piet", "", "Jan"}); err != nil {
		t.Fatalf("PutList: %v", err)
	}
	got, ok, err := st.List(ctx, "first_names")
	if err != nil || !ok {
		t.Fatalf("List: %v, %v", ok, err)
	}
	if diff := cmp.Diff([]string{"Jan", "Piet"}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	if err := st.AppendItems(ctx, "first_names", []string{"Anna", "Jan"}); err != nil {
		t.Fatalf("AppendItems: %v", err)
	}
	got, _, _ = st.List(ctx, "first_names")
	if diff := cmp.Diff([]string{"Anna", "Jan", "Piet"}, got); diff != "" {
		t.Errorf("after append (-want +got):\n%s", diff)
	}

	if err := st.PutList(ctx, "first_names", []string{"Karel"}); err != nil {
		t.Fatalf("PutList: %v", err)
	}
	got, _, _ = st.List(ctx, "first_names")
	if diff := cmp.Diff([]string{"Karel"}, got); diff != "" {
		t.Errorf("after replace (-want +got):\n%s", diff)
	}

	if _, ok, err := st.List(ctx, "missing"); ok || err != nil {
		t.Errorf("List missing = %v, %v", ok, err)
	}
}

func TestSQLiteEmptyList(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	if err := st.PutList(ctx, "empty", nil); err != nil {
		t.Fatalf("PutList: %v", err)
	}
	got, ok, err := st.List(ctx, "empty")
	if err != nil || !ok || len(got) != 0 {
		t.Errorf("List empty = %v, %v, %v", got, ok, err)
	}
}

func TestSQLiteNamesAndDelete(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	for _, name := range []string{"surnames", "cities", "first_names"} {
		if err := st.PutList(ctx, name, []string{name}); err != nil {
			t.Fatalf("PutList %s: %v", name, err)
		}
	}
	names, err := st.Names(ctx)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if diff := cmp.Diff([]string{"cities", "first_names", "surnames"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if err := st.DeleteList(ctx, "cities"); err != nil {
		t.Fatalf("DeleteList: %v", err)
	}
	if err := st.DeleteList(ctx, "cities"); err != nil {
		t.Errorf("DeleteList twice: %v", err)
	}
	if _, ok, _ := st.List(ctx, "cities"); ok {
		t.Error("deleted list still present")
	}

	// Recreating the list must not resurrect its old items.
	if err := st.AppendItems(ctx, "cities", []string{"Utrecht"}); err != nil {
		t.Fatalf("AppendItems: %v", err)
	}
	got, _, _ := st.List(ctx, "cities")
	if diff := cmp.Diff([]string{"Utrecht"}, got); diff != "" {
		t.Errorf("recreated list (-want +got):\n%s", diff)
	}
}

func TestSQLitePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dicts.db")

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.PutList(ctx, "names", []string{"Bob"}); err != nil {
		t.Fatalf("PutList: %v", err)
	}
	st.Close()

	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	set, err := store.LoadSet(ctx, st, "names", strproc.Pipeline{strproc.Lowercase{}})
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if !set.Contains("BOB") {
		t.Error("persisted item not loaded")
	}
}

func TestSQLiteConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	if err := st.PutList(ctx, "names", nil); err != nil {
		t.Fatalf("PutList: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.AppendItems(ctx, "names", []string{string(rune('a' + i))})
		}(i)
	}
	wg.Wait()
	close(errs)

	failed := 0
	for err := range errs {
		if err != nil {
			failed++
		}
	}
	got, _, err := st.List(ctx, "names")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got)+failed != 8 {
		t.Errorf("got %d items and %d failures, want 8 total", len(got), failed)
	}
}
