// Package history keeps a SQLite record of past reconciliation runs.
// Only run metadata and statistics are stored, never the records themselves.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/conciliar-dev/conciliar/internal/reconcile"
)

// Run origins.
const (
	OriginCLI = "cli"
	OriginAPI = "api"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 20

// timeLayout is fixed width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one recorded reconciliation.
type Run struct {
	ID                  string
	StartedAt           time.Time
	Duration            time.Duration
	Origin              string
	BankFile            string
	SystemFile          string
	Days                int
	ReconciledDays      int
	DaysWithDifferences int
	BankRecords         int
	SystemRecords       int
	ToAdd               int
	ToRemove            int
	Rejected            int
	Rate                decimal.Decimal
}

// SetStats copies a result's headline numbers onto the run.
func (r *Run) SetStats(st reconcile.Stats) {
	r.Days = st.Days
	r.ReconciledDays = st.ReconciledDays
	r.DaysWithDifferences = st.DaysWithDifferences
	r.BankRecords = st.BankRecords
	r.SystemRecords = st.SystemRecords
	r.ToAdd = st.ToAdd
	r.ToRemove = st.ToRemove
	r.Rate = st.Rate
}

// Recorder stores and lists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
	Close() error
}

// Store is the SQLite Recorder.
type Store struct {
	db *sql.DB
}

var _ Recorder = (*Store)(nil)

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO runs
	(id, started_at, duration_ms, origin, bank_file, system_file,
	 days, reconciled_days, days_with_differences, bank_records, system_records,
	 to_add, to_remove, rejected, rate)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(),
		run.Origin,
		run.BankFile,
		run.SystemFile,
		run.Days,
		run.ReconciledDays,
		run.DaysWithDifferences,
		run.BankRecords,
		run.SystemRecords,
		run.ToAdd,
		run.ToRemove,
		run.Rejected,
		run.Rate.String(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, started_at, duration_ms, origin, bank_file, system_file,
	       days, reconciled_days, days_with_differences, bank_records, system_records,
	       to_add, to_remove, rejected, rate
	FROM runs`

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		durationMS int64
		rate       string
	)
	err := sc.Scan(
		&run.ID,
		&startedAt,
		&durationMS,
		&run.Origin,
		&run.BankFile,
		&run.SystemFile,
		&run.Days,
		&run.ReconciledDays,
		&run.DaysWithDifferences,
		&run.BankRecords,
		&run.SystemRecords,
		&run.ToAdd,
		&run.ToRemove,
		&run.Rejected,
		&rate,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Rate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("parsing rate %q: %w", rate, err)
	}
	return &run, nil
}
