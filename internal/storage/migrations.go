package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// migration is one versioned schema step.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// schema lists every migration in version order.
var schema = []migration{
	{Version: 1, Name: "report_schema", Apply: migrateV001},
}

// journalModes are the values accepted by PRAGMA journal_mode.
var journalModes = map[string]bool{
	"delete":   true,
	"truncate": true,
	"persist":  true,
	"memory":   true,
	"wal":      true,
	"off":      true,
}

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// MigrationRunner brings a report database up to the current schema.
type MigrationRunner struct {
	db          *sql.DB
	journalMode string
	migrations  []migration
}

// NewMigrationRunner returns a runner for db using WAL journaling.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, journalMode: "wal", migrations: schema}
}

// SetJournalMode selects the journal mode applied before migrating. An
// empty mode keeps WAL.
func (r *MigrationRunner) SetJournalMode(mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return nil
	}
	if !journalModes[mode] {
		return fmt.Errorf("unsupported journal mode %q", mode)
	}
	r.journalMode = mode
	return nil
}

// Run configures the connection and applies every migration not yet listed
// in schema_migrations. It returns the versions it applied.
func (r *MigrationRunner) Run(ctx context.Context) ([]int, error) {
	setup := []struct{ step, stmt string }{
		{"set journal mode " + r.journalMode, "PRAGMA journal_mode = " + r.journalMode},
		{"enable foreign keys", "PRAGMA foreign_keys = ON"},
		{"create schema_migrations table", createSchemaMigrations},
	}
	for _, s := range setup {
		if _, err := r.db.ExecContext(ctx, s.stmt); err != nil {
			return nil, fmt.Errorf("%s: %w", s.step, err)
		}
	}

	done, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}

	var applied []int
	for _, m := range r.migrations {
		if done[m.Version] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return applied, fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		slog.Debug("applied migration", "version", m.Version, "name", m.Name)
		applied = append(applied, m.Version)
	}
	return applied, nil
}

func (r *MigrationRunner) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// apply runs m and records it in one transaction.
func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
