package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"herald/internal/engine"
	logx "herald/pkg/logx"
)

func testRecords() map[string]*engine.EventRecord {
	return map[string]*engine.EventRecord{
		"e1": {
			ID:      "e1",
			Start:   1754000000,
			End:     1754003600,
			VenueID: "v1",
			Notified: map[engine.Category]string{
				engine.CategoryWeek: "2025-06-08",
			},
		},
		"e2": {ID: "e2", Start: 1754100000, End: 1754100000},
	}
}

func openTestStore(t *testing.T, driver, path string) Store {
	t.Helper()
	st, err := Open(Config{Driver: driver, Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		file   string
	}{
		{driver: "file", file: "records.json"},
		{driver: "sqlite", file: "records.db"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st := openTestStore(t, tt.driver, filepath.Join(t.TempDir(), tt.file))

			// Missing store yields empty, not an error.
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load (empty): %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty map, got %d records", len(got))
			}

			want := testRecords()
			if err := st.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err = st.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("loaded %d records, want %d", len(got), len(want))
			}
			r := got["e1"]
			if r == nil || r.Start != 1754000000 || r.VenueID != "v1" {
				t.Fatalf("e1 = %+v", r)
			}
			if r.Notified[engine.CategoryWeek] != "2025-06-08" {
				t.Fatalf("e1 notified = %+v", r.Notified)
			}
			if zero := got["e2"]; zero == nil || zero.Start != zero.End {
				t.Fatalf("e2 = %+v (zero-duration event must round-trip)", zero)
			}
		})
	}
}

func TestSaveOverwritesChangedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openTestStore(t, "sqlite", filepath.Join(t.TempDir(), "records.db"))

	records := testRecords()
	if err := st.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records["e1"].Start += 3600
	records["e1"].Notified[engine.CategoryToday] = "2025-06-09"
	if err := st.Save(ctx, records); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got["e1"].Start != 1754000000+3600 {
		t.Fatalf("e1 start = %d", got["e1"].Start)
	}
	if got["e1"].Notified[engine.CategoryToday] != "2025-06-09" {
		t.Fatalf("e1 notified = %+v", got["e1"].Notified)
	}
}

func TestFileStoreCorruptSnapshotDegrades(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	st := openTestStore(t, "file", path)
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("corrupt snapshot must degrade to empty, got %d", len(got))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
