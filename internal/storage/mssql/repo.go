// Package mssql stores reports in SQL Server for shops standardized on it.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"csvaudit/internal/storage"
)

type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

const schema = `
IF OBJECT_ID('reports', 'U') IS NULL
CREATE TABLE reports (
	id             NVARCHAR(64) PRIMARY KEY,
	filename       NVARCHAR(512) NOT NULL,
	content_hash   NVARCHAR(64) NOT NULL,
	row_count      INT NOT NULL,
	column_count   INT NOT NULL,
	missing_json   NVARCHAR(MAX),
	format_json    NVARCHAR(MAX),
	logical_json   NVARCHAR(MAX),
	duplicate_json NVARCHAR(MAX),
	outlier_json   NVARCHAR(MAX),
	summary_json   NVARCHAR(MAX),
	read_error     NVARCHAR(1024) NOT NULL DEFAULT '',
	uploaded_at    DATETIMEOFFSET NOT NULL
)
`

// New connects to SQL Server and ensures the reports table exists.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
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
		) VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11, @p12, @p13)`,
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
	rows, err := r.db.QueryContext(ctx, `
		SELECT TOP (@p1) id, filename, content_hash, row_count, column_count,
		       summary_json, read_error, uploaded_at
		FROM reports
		ORDER BY uploaded_at DESC, id DESC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.ReportRecord
	for rows.Next() {
		var rec storage.ReportRecord
		var summary sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.ContentHash,
			&rec.RowCount, &rec.ColumnCount,
			&summary, &rec.ReadError, &rec.UploadedAt,
		); err != nil {
			return nil, err
		}
		if rec.Report, err = storage.UnmarshalReport(
			storage.ReportColumns{Summary: summary.String}, rec.RowCount, rec.ColumnCount,
		); err != nil {
			return nil, err
		}
		rec.UploadedAt = rec.UploadedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (storage.ReportRecord, error) {
	var rec storage.ReportRecord
	var missing, format, logical, duplicate, outlier, summary sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, row_count, column_count,
		       missing_json, format_json, logical_json, duplicate_json,
		       outlier_json, summary_json, read_error, uploaded_at
		FROM reports WHERE id = @p1`, id).Scan(
		&rec.ID, &rec.Filename, &rec.ContentHash,
		&rec.RowCount, &rec.ColumnCount,
		&missing, &format, &logical, &duplicate,
		&outlier, &summary, &rec.ReadError, &rec.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ReportRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ReportRecord{}, err
	}

	cols := storage.ReportColumns{
		Missing:   missing.String,
		Format:    format.String,
		Logical:   logical.String,
		Duplicate: duplicate.String,
		Outlier:   outlier.String,
		Summary:   summary.String,
	}
	if rec.Report, err = storage.UnmarshalReport(cols, rec.RowCount, rec.ColumnCount); err != nil {
		return storage.ReportRecord{}, err
	}
	rec.UploadedAt = rec.UploadedAt.UTC()
	return rec, nil
}

func (r *Repo) SeenHash(ctx context.Context, hash string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM reports WHERE content_hash = @p1`, hash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
