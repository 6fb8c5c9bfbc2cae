package storage

import "database/sql"

// migrateV001 creates the report schema: one runs row per analysis pass
// plus its filtered rows, category totals, path aggregates and the rows
// left out of the aggregates for an unparsable URL. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			source         TEXT NOT NULL DEFAULT '',
			url_column     TEXT NOT NULL,
			traffic_column TEXT NOT NULL,
			keyword_column TEXT NOT NULL,
			url_path       TEXT NOT NULL DEFAULT '',
			keywords       TEXT NOT NULL DEFAULT '',
			min_traffic    REAL NOT NULL DEFAULT 0,
			input_rows     INTEGER NOT NULL DEFAULT 0,
			matched_rows   INTEGER NOT NULL DEFAULT 0,
			skipped_urls   INTEGER NOT NULL DEFAULT 0,
			columns_json   TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS run_rows (
			run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position      INTEGER NOT NULL,
			line          INTEGER NOT NULL DEFAULT 0,
			url_match     BOOLEAN NOT NULL,
			keyword_match BOOLEAN NOT NULL,
			category      TEXT NOT NULL,
			traffic       REAL NOT NULL DEFAULT 0,
			values_json   TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS category_totals (
			run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			dimension TEXT NOT NULL,
			traffic   REAL NOT NULL,
			row_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, dimension)
		)`,

		`CREATE TABLE IF NOT EXISTS path_aggregates (
			run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind          TEXT NOT NULL CHECK (kind IN ('full', 'progressive')),
			position      INTEGER NOT NULL,
			path          TEXT NOT NULL,
			traffic       REAL NOT NULL,
			urls          INTEGER NOT NULL,
			traffic_share REAL,
			url_share     REAL,
			PRIMARY KEY (run_id, kind, position)
		)`,

		`CREATE TABLE IF NOT EXISTS skipped_urls (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			line   INTEGER NOT NULL,
			url    TEXT NOT NULL,
			error  TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_created_at        ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_rows_category      ON run_rows(run_id, category)`,
		`CREATE INDEX IF NOT EXISTS idx_path_aggregates_path   ON path_aggregates(run_id, path)`,
		`CREATE INDEX IF NOT EXISTS idx_skipped_urls_run       ON skipped_urls(run_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
