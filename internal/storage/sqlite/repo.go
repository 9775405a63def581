// Package sqlite is the default report store, mirroring the single-file
// deployment model: one app-local database, no external service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"csvaudit/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Timestamps are stored as RFC3339Nano strings. modernc.org/sqlite gives
// TEXT affinity to everything that is not intentionally INTEGER/REAL, so
// strings round-trip reliably where native timestamps would not.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	filename       TEXT NOT NULL,
	content_hash   TEXT NOT NULL,
	row_count      INTEGER NOT NULL,
	column_count   INTEGER NOT NULL,
	missing_json   TEXT,
	format_json    TEXT,
	logical_json   TEXT,
	duplicate_json TEXT,
	outlier_json   TEXT,
	summary_json   TEXT,
	read_error     TEXT NOT NULL DEFAULT '',
	uploaded_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_content_hash ON reports(content_hash);
`

// New opens (and if needed initializes) a SQLite report store.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY churn and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) Save(ctx context.Context, rec storage.ReportRecord) error {
	cols, err := storage.MarshalReport(rec.Report)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, filename, content_hash, row_count, column_count,
			missing_json, format_json, logical_json, duplicate_json,
			outlier_json, summary_json, read_error, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.ContentHash, rec.RowCount, rec.ColumnCount,
		cols.Missing, cols.Format, cols.Logical, cols.Duplicate,
		cols.Outlier, cols.Summary, rec.ReadError,
		formatTime(rec.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]storage.ReportRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, content_hash, row_count, column_count,
		       summary_json, read_error, uploaded_at
		FROM reports
		ORDER BY uploaded_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.ReportRecord
	for rows.Next() {
		var rec storage.ReportRecord
		var summary, uploaded string
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.ContentHash,
			&rec.RowCount, &rec.ColumnCount,
			&summary, &rec.ReadError, &uploaded,
		); err != nil {
			return nil, err
		}
		if rec.Report, err = storage.UnmarshalReport(
			storage.ReportColumns{Summary: summary}, rec.RowCount, rec.ColumnCount,
		); err != nil {
			return nil, err
		}
		if rec.UploadedAt, err = parseTime(uploaded); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (storage.ReportRecord, error) {
	var rec storage.ReportRecord
	var cols storage.ReportColumns
	var uploaded string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, row_count, column_count,
		       missing_json, format_json, logical_json, duplicate_json,
		       outlier_json, summary_json, read_error, uploaded_at
		FROM reports WHERE id = ?`, id).Scan(
		&rec.ID, &rec.Filename, &rec.ContentHash,
		&rec.RowCount, &rec.ColumnCount,
		&cols.Missing, &cols.Format, &cols.Logical, &cols.Duplicate,
		&cols.Outlier, &cols.Summary, &rec.ReadError, &uploaded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ReportRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ReportRecord{}, err
	}

	if rec.Report, err = storage.UnmarshalReport(cols, rec.RowCount, rec.ColumnCount); err != nil {
		return storage.ReportRecord{}, err
	}
	if rec.UploadedAt, err = parseTime(uploaded); err != nil {
		return storage.ReportRecord{}, err
	}
	return rec, nil
}

func (r *Repo) SeenHash(ctx context.Context, hash string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM reports WHERE content_hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("sqlite: unsupported time format %q", s)
}
