package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/config"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/runcoord"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrRunNotFound indicates the requested run id has no history row.
var ErrRunNotFound = errors.New("run not found")

// Outcome labels how a run finished.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	RunID             string
	InputPath         string
	InputFingerprint  string
	ConfigFingerprint string
	StartedAt         time.Time
	FinishedAt        time.Time
	Outcome           string
	ErrorMessage      string
	ClipCount         int
	SelectedDuration  float64
	MeanScore         float64
	PartCount         int
	DiagnosticCount   int
	StageTimings      []runcoord.StageTiming
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Outcome string
	Limit   int
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the run history database under the state
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "runs.db"))
}

// OpenPath opens the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record upserts one run's history row. Re-recording the same run id
// overwrites the earlier row, which keeps retries idempotent.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("run id is required")
	}
	timings, err := json.Marshal(run.StageTimings)
	if err != nil {
		return fmt.Errorf("marshal stage timings: %w", err)
	}

	query, args, err := sq.Insert("runs").
		Columns("run_id", "input_path", "input_fingerprint", "config_fingerprint",
			"started_at", "finished_at", "outcome", "error_message",
			"clip_count", "selected_duration", "mean_score", "part_count",
			"diagnostic_count", "stage_timings").
		Values(run.RunID, run.InputPath, run.InputFingerprint, run.ConfigFingerprint,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.Outcome, run.ErrorMessage,
			run.ClipCount, run.SelectedDuration, run.MeanScore, run.PartCount,
			run.DiagnosticCount, string(timings)).
		Suffix("ON CONFLICT(run_id) DO UPDATE SET " +
			"finished_at=excluded.finished_at, outcome=excluded.outcome, " +
			"error_message=excluded.error_message, clip_count=excluded.clip_count, " +
			"selected_duration=excluded.selected_duration, mean_score=excluded.mean_score, " +
			"part_count=excluded.part_count, diagnostic_count=excluded.diagnostic_count, " +
			"stage_timings=excluded.stage_timings").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

var runColumns = []string{
	"run_id", "input_path", "input_fingerprint", "config_fingerprint",
	"started_at", "finished_at", "outcome", "error_message",
	"clip_count", "selected_duration", "mean_score", "part_count",
	"diagnostic_count", "stage_timings",
}

// Get fetches a single run by id.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	ctx = ensureContext(ctx)
	query, args, err := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return Run{}, fmt.Errorf("build select: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// List returns runs newest first, optionally filtered by outcome and capped.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Run, error) {
	ctx = ensureContext(ctx)

	builder := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC")
	if strings.TrimSpace(filter.Outcome) != "" {
		builder = builder.Where(sq.Eq{"outcome": filter.Outcome})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                 Run
		startedAt, finished string
		timingsJSON         string
	)
	err := row.Scan(&run.RunID, &run.InputPath, &run.InputFingerprint, &run.ConfigFingerprint,
		&startedAt, &finished, &run.Outcome, &run.ErrorMessage,
		&run.ClipCount, &run.SelectedDuration, &run.MeanScore, &run.PartCount,
		&run.DiagnosticCount, &timingsJSON)
	if err != nil {
		return Run{}, err
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at for %s: %w", run.RunID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at for %s: %w", run.RunID, err)
	}
	if timingsJSON != "" {
		if err := json.Unmarshal([]byte(timingsJSON), &run.StageTimings); err != nil {
			return Run{}, fmt.Errorf("decode stage timings for %s: %w", run.RunID, err)
		}
	}
	return run, nil
}
