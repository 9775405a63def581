// Package postgres stores reports in PostgreSQL, for deployments where
// several service instances share one history.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvaudit/internal/storage"
)

type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
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
	uploaded_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_content_hash ON reports(content_hash);
`

// New connects a pgx pool and ensures the reports table exists.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) Save(ctx context.Context, rec storage.ReportRecord) error {
	cols, err := storage.MarshalReport(rec.Report)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO reports (
			id, filename, content_hash, row_count, column_count,
			missing_json, format_json, logical_json, duplicate_json,
			outlier_json, summary_json, read_error, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.Filename, rec.ContentHash, rec.RowCount, rec.ColumnCount,
		cols.Missing, cols.Format, cols.Logical, cols.Duplicate,
		cols.Outlier, cols.Summary, rec.ReadError, rec.UploadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]storage.ReportRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, filename, content_hash, row_count, column_count,
		       summary_json, read_error, uploaded_at
		FROM reports
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.ReportRecord
	for rows.Next() {
		var rec storage.ReportRecord
		var summary string
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.ContentHash,
			&rec.RowCount, &rec.ColumnCount,
			&summary, &rec.ReadError, &rec.UploadedAt,
		); err != nil {
			return nil, err
		}
		if rec.Report, err = storage.UnmarshalReport(
			storage.ReportColumns{Summary: summary}, rec.RowCount, rec.ColumnCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (storage.ReportRecord, error) {
	var rec storage.ReportRecord
	var cols storage.ReportColumns

	err := r.pool.QueryRow(ctx, `
		SELECT id, filename, content_hash, row_count, column_count,
		       missing_json, format_json, logical_json, duplicate_json,
		       outlier_json, summary_json, read_error, uploaded_at
		FROM reports WHERE id = $1`, id).Scan(
		&rec.ID, &rec.Filename, &rec.ContentHash,
		&rec.RowCount, &rec.ColumnCount,
		&cols.Missing, &cols.Format, &cols.Logical, &cols.Duplicate,
		&cols.Outlier, &cols.Summary, &rec.ReadError, &rec.UploadedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ReportRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ReportRecord{}, err
	}

	if rec.Report, err = storage.UnmarshalReport(cols, rec.RowCount, rec.ColumnCount); err != nil {
		return storage.ReportRecord{}, err
	}
	return rec, nil
}

func (r *Repo) SeenHash(ctx context.Context, hash string) (bool, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(1) FROM reports WHERE content_hash = $1`, hash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
