package runcoord

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
)

func TestBeginEndLifecycle(t *testing.T) {
	coord := New("", logging.NewNop())

	identity, err := coord.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if identity.RunID == "" || !identity.Active {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	current, ok := coord.Current()
	if !ok || current.RunID != identity.RunID {
		t.Fatalf("Current() = %+v, %v", current, ok)
	}

	coord.End(identity.RunID)
	if _, ok := coord.Current(); ok {
		t.Fatal("coordinator must be idle after End")
	}

	// Idle again: a new run may begin.
	if _, err := coord.Begin(); err != nil {
		t.Fatalf("Begin after End: %v", err)
	}
}

func TestBeginWhileRunningFails(t *testing.T) {
	coord := New("", logging.NewNop())

	first, err := coord.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err = coord.Begin()
	if err == nil {
		t.Fatal("second Begin must fail while a run is active")
	}
	var active *AlreadyRunningError
	if !errors.As(err, &active) {
		t.Fatalf("expected AlreadyRunningError, got %T", err)
	}
	if active.ActiveRunID != first.RunID {
		t.Fatalf("error names run %s, active run is %s", active.ActiveRunID, first.RunID)
	}
}

func TestRunIDsAreUniqueAndOrdered(t *testing.T) {
	coord := New("", logging.NewNop())

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		identity, err := coord.Begin()
		if err != nil {
			t.Fatalf("Begin #%d: %v", i, err)
		}
		if seen[identity.RunID] {
			t.Fatalf("duplicate run id %s", identity.RunID)
		}
		seen[identity.RunID] = true
		coord.End(identity.RunID)
	}
}

func TestStageTimingsAggregatePerRun(t *testing.T) {
	coord := New("", logging.NewNop())

	identity, err := coord.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	coord.RecordStage(identity.RunID, "scoring", 3*time.Second)
	coord.RecordStage(identity.RunID, "selection", time.Second)
	coord.RecordStage("stale-run", "scoring", time.Hour) // dropped

	timings := coord.End(identity.RunID)
	if len(timings) != 2 {
		t.Fatalf("got %d timings, want 2", len(timings))
	}
	if timings[0].Stage != "scoring" || timings[0].Duration != 3*time.Second {
		t.Fatalf("unexpected first timing: %+v", timings[0])
	}
}

func TestEndWithWrongRunIDIsIgnored(t *testing.T) {
	coord := New("", logging.NewNop())

	identity, err := coord.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if timings := coord.End("not-the-run"); timings != nil {
		t.Fatal("ending a foreign run id must return nothing")
	}
	if _, ok := coord.Current(); !ok {
		t.Fatal("the active run must survive a mismatched End")
	}
	coord.End(identity.RunID)
}

func TestFileLockBlocksSecondCoordinator(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")

	first := New(lockPath, logging.NewNop())
	identity, err := first.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	second := New(lockPath, logging.NewNop())
	if _, err := second.Begin(); err == nil {
		t.Fatal("second coordinator must not acquire the held file lock")
	}

	first.End(identity.RunID)
	if _, err := second.Begin(); err != nil {
		t.Fatalf("Begin after the lock was released: %v", err)
	}
}
