package record

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemSource_FetchOrdering(t *testing.T) {
	src := NewMemSource()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// Saved out of order; Fetch must sort by Modified ascending.
	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b2", Completion: 1.0, Modified: base.Add(2 * time.Hour)})
	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b1", Completion: 0.5, Modified: base})
	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b3", Completion: 1.0, Modified: base.Add(time.Hour)})

	records, err := src.Fetch(ctx, "alice", "scope")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := []string{"b1", "b3", "b2"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, key := range want {
		if records[i].BlockKey != key {
			t.Errorf("position %d: got %s, want %s", i, records[i].BlockKey, key)
		}
	}
}

func TestMemSource_SaveReplacesBlock(t *testing.T) {
	src := NewMemSource()
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b1", Completion: 0.25, Modified: at})
	_ = src.Save(ctx, "alice", "scope", Record{BlockKey: "b1", Completion: 1.0, Modified: at.Add(time.Hour)})

	records, err := src.Fetch(ctx, "alice", "scope")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single record per block, got %d", len(records))
	}
	if records[0].Completion != 1.0 {
		t.Errorf("expected the replacement to win, got %v", records[0].Completion)
	}
}

func TestMemSource_Isolation(t *testing.T) {
	src := NewMemSource()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = src.Save(ctx, "alice", "scope-1", Record{BlockKey: "b1", Completion: 1.0, Modified: at})
	_ = src.Save(ctx, "bob", "scope-1", Record{BlockKey: "b2", Completion: 1.0, Modified: at})
	_ = src.Save(ctx, "alice", "scope-2", Record{BlockKey: "b3", Completion: 1.0, Modified: at})

	records, err := src.Fetch(ctx, "alice", "scope-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 || records[0].BlockKey != "b1" {
		t.Errorf("expected only alice's scope-1 record, got %v", records)
	}

	empty, err := src.Fetch(ctx, "carol", "scope-1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown user should fetch no records, got %v", empty)
	}
}

func TestMemSource_ConcurrentAccess(t *testing.T) {
	src := NewMemSource()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = src.Save(ctx, "alice", "scope", Record{
				BlockKey:   "b",
				Completion: 1.0,
				Modified:   at.Add(time.Duration(n) * time.Minute),
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = src.Fetch(ctx, "alice", "scope")
		}()
	}
	wg.Wait()

	records, err := src.Fetch(ctx, "alice", "scope")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected one record for block b, got %d", len(records))
	}
}
