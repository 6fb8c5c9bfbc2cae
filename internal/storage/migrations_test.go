package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func migrate(t *testing.T, db *sql.DB) []int {
	t.Helper()
	applied, err := NewMigrationRunner(db).Run(context.Background())
	require.NoError(t, err)
	return applied
}

func sqliteObject(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&n))
	return n == 1
}

func TestMigrationRunner_CreatesSchema(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, []int{1}, migrate(t, db))

	for _, obj := range []struct{ kind, name string }{
		{"table", "schema_migrations"},
		{"table", "runs"},
		{"table", "run_rows"},
		{"table", "category_totals"},
		{"table", "path_aggregates"},
		{"table", "skipped_urls"},
		{"index", "idx_runs_created_at"},
		{"index", "idx_run_rows_category"},
		{"index", "idx_path_aggregates_path"},
		{"index", "idx_skipped_urls_run"},
	} {
		assert.True(t, sqliteObject(t, db, obj.kind, obj.name), "%s %s should exist", obj.kind, obj.name)
	}
}

func TestMigrationRunner_SecondRunAppliesNothing(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)
	assert.Empty(t, migrate(t, db))

	var names []string
	rows, err := db.Query("SELECT name FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"report_schema"}, names)
}

func TestMigrationRunner_AppliesOnlyNewVersions(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)

	runner := NewMigrationRunner(db)
	runner.migrations = append(append([]migration{}, schema...), migration{
		Version: 2,
		Name:    "run_notes",
		Apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE runs ADD COLUMN notes TEXT NOT NULL DEFAULT ''`)
			return err
		},
	})

	applied, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, applied)

	_, err = db.Exec(`INSERT INTO runs (id, url_column, traffic_column, keyword_column, notes) VALUES ('r1', 'u', 't', 'k', 'x')`)
	assert.NoError(t, err)
}

func TestMigrationRunner_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)

	runner := NewMigrationRunner(db)
	runner.migrations = append(append([]migration{}, schema...), migration{
		Version: 2,
		Name:    "broken",
		Apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE nowhere ADD COLUMN x TEXT`)
			return err
		},
	})

	applied, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 2 (broken)")
	assert.Equal(t, []int{1}, applied)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrationRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMigrationRunner(openTestDB(t)).Run(ctx)
	assert.Error(t, err)
}

func TestMigrationRunner_RunsTrackSkippedURLs(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)

	_, err := db.Exec(`
		INSERT INTO runs (id, url_column, traffic_column, keyword_column, skipped_urls)
		VALUES ('r1', 'u', 't', 'k', 3)
	`)
	require.NoError(t, err)

	var skipped int
	require.NoError(t, db.QueryRow("SELECT skipped_urls FROM runs WHERE id = 'r1'").Scan(&skipped))
	assert.Equal(t, 3, skipped)
}

func TestMigrationRunner_JournalMode(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	// In-memory databases always report "memory".
	assert.Contains(t, []string{"wal", "memory"}, mode)
}

func TestMigrationRunner_SetJournalMode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "wal"},
		{in: " DELETE ", want: "delete"},
		{in: "truncate", want: "truncate"},
		{in: "wal; DROP TABLE runs", want: "wal", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			runner := NewMigrationRunner(openTestDB(t))
			err := runner.SetJournalMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, runner.journalMode)
		})
	}
}

func TestMigrationRunner_ForeignKeys(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err := db.Exec(`
		INSERT INTO run_rows (run_id, position, url_match, keyword_match, category, values_json)
		VALUES ('missing', 0, 1, 0, 'URL matches only', '[]')
	`)
	assert.Error(t, err, "rows must belong to a run")
}

func TestMigrationRunner_PathKindCheck(t *testing.T) {
	db := openTestDB(t)
	migrate(t, db)

	_, err := db.Exec(`INSERT INTO runs (id, url_column, traffic_column, keyword_column) VALUES ('r1', 'u', 't', 'k')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO path_aggregates (run_id, kind, position, path, traffic, urls) VALUES ('r1', 'other', 0, '/a', 1, 1)`)
	assert.Error(t, err)
}
