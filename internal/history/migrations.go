package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conciliar-dev/conciliar/internal/logger"
)

// Migration is one schema change, applied inside a transaction.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs",
		Up:      migration001CreateRuns,
	},
	{
		Version: 2,
		Name:    "index_runs_started_at",
		Up:      migration002IndexStartedAt,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if _, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}

	for _, m := range allMigrations {
		if applied[m.Version] {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.Version, err)
		}

		log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("applied history migration")
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001CreateRuns(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		origin TEXT NOT NULL,
		bank_file TEXT NOT NULL DEFAULT '',
		system_file TEXT NOT NULL DEFAULT '',
		days INTEGER NOT NULL DEFAULT 0,
		reconciled_days INTEGER NOT NULL DEFAULT 0,
		days_with_differences INTEGER NOT NULL DEFAULT 0,
		bank_records INTEGER NOT NULL DEFAULT 0,
		system_records INTEGER NOT NULL DEFAULT 0,
		to_add INTEGER NOT NULL DEFAULT 0,
		to_remove INTEGER NOT NULL DEFAULT 0,
		rejected INTEGER NOT NULL DEFAULT 0,
		rate TEXT NOT NULL DEFAULT '0'
	)`)
	return err
}

func migration002IndexStartedAt(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`)
	return err
}
