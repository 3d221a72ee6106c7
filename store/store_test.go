package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "probeops.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult(id string) *batch.Result {
	return &batch.Result{
		BatchID: id,
		Items: []batch.ItemResult{
			{ID: "web", Outcome: check.Success("ok").WithElapsed(120 * time.Millisecond).WithRaw(map[string]any{"status_code": 200})},
			{ID: "db", Outcome: check.Warning("slow").WithElapsed(900 * time.Millisecond)},
			{ID: "mail", Outcome: check.Failure("refused").WithElapsed(10 * time.Millisecond)},
		},
		Summary: batch.Summary{Success: 1, Warning: 1, Error: 1},
		Elapsed: time.Second,
	}
}

func TestSaveAndLoadBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	res := sampleResult("batch-1")
	if err := db.SaveBatch(ctx, startedAt, res); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	stored, err := db.Batch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if stored == nil {
		t.Fatal("Batch() = nil, want stored batch")
	}

	if stored.ID != "batch-1" {
		t.Errorf("ID = %q, want batch-1", stored.ID)
	}
	if !stored.StartedAt.Equal(startedAt) {
		t.Errorf("StartedAt = %v, want %v", stored.StartedAt, startedAt)
	}
	if stored.Summary != res.Summary {
		t.Errorf("Summary = %+v, want %+v", stored.Summary, res.Summary)
	}
	if len(stored.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(stored.Results))
	}

	// Results come back in submission order.
	wantIDs := []string{"web", "db", "mail"}
	wantKinds := []check.Kind{check.KindSuccess, check.KindWarning, check.KindError}
	for i, r := range stored.Results {
		if r.Identity != wantIDs[i] {
			t.Errorf("Results[%d].Identity = %q, want %q", i, r.Identity, wantIDs[i])
		}
		if r.Kind != wantKinds[i] {
			t.Errorf("Results[%d].Kind = %v, want %v", i, r.Kind, wantKinds[i])
		}
	}

	if got := stored.Results[0].Raw["status_code"]; got != float64(200) {
		t.Errorf("Results[0].Raw[status_code] = %v (%T), want 200", got, got)
	}
}

func TestBatchNotFound(t *testing.T) {
	db := openTestDB(t)

	stored, err := db.Batch(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if stored != nil {
		t.Errorf("Batch(missing) = %+v, want nil", stored)
	}
}

func TestSaveBatchRejectsDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	res := sampleResult("batch-1")
	if err := db.SaveBatch(ctx, time.Now(), res); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if err := db.SaveBatch(ctx, time.Now(), res); err == nil {
		t.Error("SaveBatch() with duplicate id returned nil error")
	}
}

func TestRecentBatchesNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := db.SaveBatch(ctx, base.Add(time.Duration(i)*time.Hour), sampleResult(id)); err != nil {
			t.Fatalf("SaveBatch(%s) error = %v", id, err)
		}
	}

	rows, err := db.RecentBatches(ctx, 2)
	if err != nil {
		t.Fatalf("RecentBatches() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].ID != "new" || rows[1].ID != "mid" {
		t.Errorf("order = %q, %q; want new, mid", rows[0].ID, rows[1].ID)
	}
}
