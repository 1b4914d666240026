package record

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestSQLiteSource(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := NewSQLiteSource(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteSource failed: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestSQLiteSource_SaveAndFetch(t *testing.T) {
	src := newTestSQLiteSource(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, rec := range []Record{
		{BlockKey: "b2", Completion: 1.0, Modified: base.Add(2 * time.Hour)},
		{BlockKey: "b1", Completion: 0.5, Modified: base},
	} {
		if err := src.Save(ctx, "alice", "scope", rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	records, err := src.Fetch(ctx, "alice", "scope")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].BlockKey != "b1" || records[1].BlockKey != "b2" {
		t.Errorf("records not ordered by modified time: %v", records)
	}
	if !records[0].Modified.Equal(base) {
		t.Errorf("modified time round-trip failed: %v", records[0].Modified)
	}
}

func TestFetchOrdersMixedPrecisionTimestamps(t *testing.T) {
	// Fractional seconds with different digit counts break lexicographic
	// ordering when stored as trimmed text ("...00.15Z" sorts before
	// "...00.1Z"), so a storage format that is not a true time ordering
	// returns these out of order and the wrong record ends up latest.
	type saveSource interface {
		Source
		Save(ctx context.Context, user, scope string, rec Record) error
	}
	sources := map[string]saveSource{
		"sqlite": newTestSQLiteSource(t),
		"memory": NewMemSource(),
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	recs := []Record{
		{BlockKey: "b-tenth", Completion: 1.0, Modified: base.Add(100 * time.Millisecond)},
		{BlockKey: "b-mid", Completion: 1.0, Modified: base.Add(150 * time.Millisecond)},
		{BlockKey: "b-nanos", Completion: 1.0, Modified: base.Add(time.Second + 5*time.Nanosecond)},
		{BlockKey: "b-whole", Completion: 1.0, Modified: base.Add(2 * time.Second)},
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			// Saved newest-first so storage order disagrees with time order.
			for i := len(recs) - 1; i >= 0; i-- {
				if err := src.Save(ctx, "alice", "scope", recs[i]); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}

			got, err := src.Fetch(ctx, "alice", "scope")
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(got) != len(recs) {
				t.Fatalf("expected %d records, got %d", len(recs), len(got))
			}
			for i, want := range recs {
				if got[i].BlockKey != want.BlockKey {
					t.Errorf("position %d: got %s, want %s", i, got[i].BlockKey, want.BlockKey)
				}
				if !got[i].Modified.Equal(want.Modified) {
					t.Errorf("%s: modified round-trip failed: %v", want.BlockKey, got[i].Modified)
				}
			}
		})
	}
}

func TestSQLiteSource_UpsertKeepsOneRowPerBlock(t *testing.T) {
	src := newTestSQLiteSource(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b1", Completion: 0.25, Modified: base})
	if err := src.Save(ctx, "alice", "scope", Record{BlockKey: "b1", Completion: 1.0, Modified: base.Add(time.Hour)}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	records, err := src.Fetch(ctx, "alice", "scope")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(records))
	}
	if records[0].Completion != 1.0 {
		t.Errorf("expected upserted completion 1.0, got %v", records[0].Completion)
	}
}

func TestSQLiteSource_EmptyFetchIsNotAnError(t *testing.T) {
	src := newTestSQLiteSource(t)

	records, err := src.Fetch(context.Background(), "nobody", "nowhere")
	if err != nil {
		t.Fatalf("empty fetch should succeed, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %v", records)
	}
}

func TestSQLiteSource_Closed(t *testing.T) {
	src := newTestSQLiteSource(t)
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Double close is a no-op.
	if err := src.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}

	if _, err := src.Fetch(context.Background(), "alice", "scope"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Fetch, got %v", err)
	}
	err := src.Save(context.Background(), "alice", "scope", Record{BlockKey: "b"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Save, got %v", err)
	}
}

func TestSQLiteSource_Ping(t *testing.T) {
	src := newTestSQLiteSource(t)
	if err := src.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if src.Path() != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", src.Path())
	}
}
