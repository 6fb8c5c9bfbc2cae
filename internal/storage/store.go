package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/rankscope/internal/analysis"
)

// Store defines the export sink for analysis reports.
type Store interface {
	SaveReport(ctx context.Context, rec *RunRecord) (string, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	owned  bool
	closed bool

	// Prepared statements
	insertRun      *sql.Stmt
	insertRow      *sql.Stmt
	insertCategory *sql.Stmt
	insertPath     *sql.Stmt
	insertSkipped  *sql.Stmt
}

// Open opens (or creates) the SQLite file at path, applies migrations with
// the given journal mode and returns a store that owns the connection.
func Open(ctx context.Context, path, journalMode string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	runner := NewMigrationRunner(db)
	if err := runner.SetJournalMode(journalMode); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := runner.Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		s.closeStatements()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRun, err = s.db.Prepare(`
		INSERT INTO runs (id, created_at, source, url_column, traffic_column, keyword_column,
		                  url_path, keywords, min_traffic, input_rows, matched_rows, skipped_urls, columns_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertRow, err = s.db.Prepare(`
		INSERT INTO run_rows (run_id, position, line, url_match, keyword_match, category, traffic, values_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertCategory, err = s.db.Prepare(`
		INSERT INTO category_totals (run_id, dimension, traffic, row_count)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertPath, err = s.db.Prepare(`
		INSERT INTO path_aggregates (run_id, kind, position, path, traffic, urls, traffic_share, url_share)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertSkipped, err = s.db.Prepare(`
		INSERT INTO skipped_urls (run_id, line, url, error)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

// SaveReport writes one run and everything derived from it in a single
// transaction. It returns the run ID, generating a UUID when rec.ID is
// empty.
func (s *SQLiteStore) SaveReport(ctx context.Context, rec *RunRecord) (string, error) {
	if rec == nil || rec.Report == nil {
		return "", errors.New("save report: nil report")
	}
	r := rec.Report

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	columns, err := json.Marshal(r.Filtered.Columns)
	if err != nil {
		return "", fmt.Errorf("encode columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	p := r.Params
	_, err = tx.StmtContext(ctx, s.insertRun).ExecContext(ctx,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339), rec.Source,
		p.URLColumn, p.TrafficColumn, p.KeywordColumn,
		p.URLPathQuery, p.Keywords, p.MinTraffic,
		r.InputRows, r.Filtered.Len(), len(r.SkippedURLs), string(columns),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if err := s.saveRows(ctx, tx, rec.ID, r); err != nil {
		return "", err
	}
	if err := s.saveCategories(ctx, tx, rec.ID, r.Summary); err != nil {
		return "", err
	}
	if err := s.savePaths(ctx, tx, rec.ID, r); err != nil {
		return "", err
	}

	skipped := tx.StmtContext(ctx, s.insertSkipped)
	for _, u := range r.SkippedURLs {
		if _, err := skipped.ExecContext(ctx, rec.ID, u.Line, u.URL, u.Err.Error()); err != nil {
			return "", fmt.Errorf("insert skipped url (line %d): %w", u.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return rec.ID, nil
}

func (s *SQLiteStore) saveRows(ctx context.Context, tx *sql.Tx, runID string, r *analysis.Report) error {
	stmt := tx.StmtContext(ctx, s.insertRow)
	trafficIx := r.Filtered.Index(r.Params.TrafficColumn)

	for i, row := range r.Filtered.Rows {
		vals, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		m := r.Matches[i]
		if _, err := stmt.ExecContext(ctx,
			runID, i, row.Line, m.URLMatch, m.KeywordMatch, m.Category.String(),
			analysis.Traffic(row.Cell(trafficIx)), string(vals),
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLiteStore) saveCategories(ctx context.Context, tx *sql.Tx, runID string, sum analysis.Summary) error {
	stmt := tx.StmtContext(ctx, s.insertCategory)
	counts := []int{sum.URLOnly.Rows, sum.KeywordOnly.Rows, sum.Both.Rows, sum.Total().Rows}

	for i, row := range sum.Rows() {
		if _, err := stmt.ExecContext(ctx, runID, row.Dimension, row.Traffic, counts[i]); err != nil {
			return fmt.Errorf("insert category %q: %w", row.Dimension, err)
		}
	}
	return nil
}

func (s *SQLiteStore) savePaths(ctx context.Context, tx *sql.Tx, runID string, r *analysis.Report) error {
	stmt := tx.StmtContext(ctx, s.insertPath)

	for i, a := range r.Paths {
		if _, err := stmt.ExecContext(ctx, runID, KindFull, i, a.Path, a.Traffic, a.URLs, nil, nil); err != nil {
			return fmt.Errorf("insert path %q: %w", a.Path, err)
		}
	}
	for i, a := range r.Progressive {
		if _, err := stmt.ExecContext(ctx, runID, KindProgressive, i, a.Path, a.Traffic, a.URLs, a.TrafficShare, a.URLShare); err != nil {
			return fmt.Errorf("insert progressive path %q: %w", a.Path, err)
		}
	}
	return nil
}

func (s *SQLiteStore) closeStatements() {
	for _, stmt := range []*sql.Stmt{s.insertRun, s.insertRow, s.insertCategory, s.insertPath, s.insertSkipped} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

// Close releases prepared statements, and the database when the store
// opened it. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.closeStatements()
	if s.owned {
		return s.db.Close()
	}
	return nil
}
