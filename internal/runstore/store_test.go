package runstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runcoord"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, outcome string, started time.Time) Run {
	return Run{
		RunID:            id,
		InputPath:        "/data/segments.json",
		StartedAt:        started,
		FinishedAt:       started.Add(90 * time.Second),
		Outcome:          outcome,
		ClipCount:        12,
		SelectedDuration: 1180,
		MeanScore:        0.74,
		PartCount:        1,
		DiagnosticCount:  2,
		StageTimings: []runcoord.StageTiming{
			{Stage: "scoring", Duration: 70 * time.Second},
			{Stage: "selection", Duration: 2 * time.Second},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleRun("run-1", OutcomeSucceeded, started)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Outcome != OutcomeSucceeded || got.ClipCount != 12 || got.PartCount != 1 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if len(got.StageTimings) != 2 || got.StageTimings[0].Stage != "scoring" {
		t.Fatalf("stage timings not round-tripped: %+v", got.StageTimings)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecordIsUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	run := sampleRun("run-1", OutcomeFailed, started)
	run.ErrorMessage = "judge unreachable"
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	run.Outcome = OutcomeSucceeded
	run.ErrorMessage = ""
	run.ClipCount = 20
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("re-Record: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Outcome != OutcomeSucceeded || got.ClipCount != 20 || got.ErrorMessage != "" {
		t.Fatalf("re-record did not overwrite: %+v", got)
	}

	runs, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected a single row after upsert, got %d", len(runs))
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, sampleRun("run-old", OutcomeSucceeded, base)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleRun("run-mid", OutcomeFailed, base.Add(time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleRun("run-new", OutcomeSucceeded, base.Add(2*time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].RunID != "run-new" || runs[2].RunID != "run-old" {
		t.Fatalf("expected newest-first ordering, got %+v", runIDs(runs))
	}

	failed, err := store.List(ctx, ListFilter{Outcome: OutcomeFailed})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].RunID != "run-mid" {
		t.Fatalf("outcome filter returned %+v", runIDs(failed))
	}

	limited, err := store.List(ctx, ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit ignored, got %d rows", len(limited))
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openTestStore(t)

	if err := store.Record(context.Background(), Run{}); err == nil {
		t.Fatal("expected an error for a missing run id")
	}
}

func TestOpenUsesStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = store.Close() }()

	if filepath.Dir(store.Path()) != cfg.Paths.StateDir {
		t.Fatalf("database at %s, want it under %s", store.Path(), cfg.Paths.StateDir)
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.RunID
	}
	return ids
}
