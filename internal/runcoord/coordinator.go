package runcoord

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
)

// State is the coordinator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RunIdentity tags every artifact and log line of one pipeline invocation.
type RunIdentity struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Active    bool      `json:"active"`
}

// StageTiming records how long one pipeline stage took within a run.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// AlreadyRunningError reports a Begin attempt while another run is active.
type AlreadyRunningError struct {
	ActiveRunID string
	StartedAt   time.Time
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("a run is already active (run_id=%s, started %s)",
		e.ActiveRunID, e.StartedAt.UTC().Format(time.RFC3339))
}

// Coordinator enforces single-flight pipeline execution: at most one run may
// be active process-wide, and a file lock extends the same discipline across
// processes sharing a state directory.
type Coordinator struct {
	mu      sync.Mutex
	state   State
	current RunIdentity
	timings []StageTiming

	lock   *flock.Flock
	logger *slog.Logger
}

// New builds a coordinator. lockPath may be empty to skip the cross-process
// file lock (used by tests).
func New(lockPath string, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		state:  StateIdle,
		logger: logging.NewComponentLogger(logger, "runcoord"),
	}
	if strings.TrimSpace(lockPath) != "" {
		c.lock = flock.New(lockPath)
	}
	return c
}

// Begin atomically transitions Idle -> Running and issues a new run identity.
// It fails fast with an AlreadyRunningError naming the active run when one is
// in flight; it never queues or blocks.
func (c *Coordinator) Begin() (RunIdentity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return RunIdentity{}, &AlreadyRunningError{
			ActiveRunID: c.current.RunID,
			StartedAt:   c.current.StartedAt,
		}
	}

	if c.lock != nil {
		ok, err := c.lock.TryLock()
		if err != nil {
			return RunIdentity{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return RunIdentity{}, fmt.Errorf("another process holds the run lock at %s", c.lock.Path())
		}
	}

	now := time.Now().UTC()
	c.current = RunIdentity{
		RunID:     newRunID(now),
		StartedAt: now,
		Active:    true,
	}
	c.state = StateRunning
	c.timings = nil

	c.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String(logging.FieldRunID, c.current.RunID))

	return c.current, nil
}

// End transitions Running -> Idle and releases the lock, returning the stage
// timings accumulated during the run. It must be reached on every outcome;
// callers defer it immediately after a successful Begin. Ending with a stale
// or mismatched run id is a no-op.
func (c *Coordinator) End(runID string) []StageTiming {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.current.RunID != runID {
		c.logger.Warn("end ignored for unknown run",
			logging.String(logging.FieldEventType, "run_end_ignored"),
			logging.String(logging.FieldRunID, runID),
			logging.String("active_run_id", c.current.RunID))
		return nil
	}

	if c.lock != nil {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}

	timings := c.timings
	c.timings = nil
	c.current.Active = false
	c.state = StateIdle

	c.logger.Info("run ended",
		logging.String(logging.FieldEventType, "run_end"),
		logging.String(logging.FieldRunID, runID),
		logging.Int("stage_count", len(timings)))

	return timings
}

// RecordStage appends a stage timing to the active run. Timings recorded
// against a non-active run id are dropped.
func (c *Coordinator) RecordStage(runID, stage string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || c.current.RunID != runID {
		return
	}
	c.timings = append(c.timings, StageTiming{Stage: stage, Duration: duration})
}

// Current returns the active run identity, if any.
func (c *Coordinator) Current() (RunIdentity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return RunIdentity{}, false
	}
	return c.current, true
}

// newRunID issues a time-ordered identifier with a random suffix so ids stay
// unique even within one clock second.
func newRunID(now time.Time) string {
	return now.Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
