// Package storage persists audit reports. Backends register themselves
// by kind from an init function and are selected by configuration, so
// the rest of the service depends only on the Repository interface.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"csvaudit/internal/quality"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("storage: report not found")

// Config selects and configures a backend.
type Config struct {
	Kind string // registered backend kind: "sqlite", "postgres", "mssql"
	DSN  string
}

// ReportRecord is one persisted audit run. Report is nil when the CSV
// could not be parsed at all; ReadError then says why.
type ReportRecord struct {
	ID          string
	Filename    string
	ContentHash string
	RowCount    int
	ColumnCount int
	Report      *quality.Report
	ReadError   string
	UploadedAt  time.Time
}

// Repository stores and retrieves audit reports.
type Repository interface {
	// Save persists one record. The id must be unique.
	Save(ctx context.Context, rec ReportRecord) error

	// List returns up to limit records, newest first, without issue
	// detail beyond the summary (cheap history view).
	List(ctx context.Context, limit int) ([]ReportRecord, error)

	// Get returns a full record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (ReportRecord, error)

	// SeenHash reports whether any record carries this content hash.
	SeenHash(ctx context.Context, hash string) (bool, error)

	// Close releases backend resources. Call once at shutdown.
	Close()
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register makes a backend available under a kind. Backend packages call
// this from init; registering a kind twice panics to fail fast on
// ambiguous wiring.
func Register(kind string, f factory) {
	if kind == "" {
		panic("storage: Register with empty kind")
	}
	if f == nil {
		panic("storage: Register with nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("storage: kind %q registered twice", kind))
	}
	factories[kind] = f
}

// New constructs the repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, Kinds())
	}

	repo, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	return repo, nil
}

// Kinds lists the registered backend kinds.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}

// ReportColumns is the serialized form shared by all SQL backends: one
// JSON document per issue kind plus the summary map.
type ReportColumns struct {
	Missing   string
	Format    string
	Logical   string
	Duplicate string
	Outlier   string
	Summary   string
}

// MarshalReport flattens a report into per-kind JSON columns. A nil
// report (failed read) produces empty strings, which round-trip back to
// nil.
func MarshalReport(r *quality.Report) (ReportColumns, error) {
	if r == nil {
		return ReportColumns{}, nil
	}

	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal report: %w", err)
		}
		return string(b), nil
	}

	var c ReportColumns
	var err error
	if c.Missing, err = enc(r.Missing); err != nil {
		return c, err
	}
	if c.Format, err = enc(r.Format); err != nil {
		return c, err
	}
	if c.Logical, err = enc(r.Logical); err != nil {
		return c, err
	}
	if c.Duplicate, err = enc(r.Duplicate); err != nil {
		return c, err
	}
	if c.Outlier, err = enc(r.Outlier); err != nil {
		return c, err
	}
	if c.Summary, err = enc(r.Summary); err != nil {
		return c, err
	}
	return c, nil
}

// UnmarshalReport rebuilds a report from stored columns. rowCount and
// columnCount live in their own table columns, so they are passed in.
func UnmarshalReport(c ReportColumns, rowCount, columnCount int) (*quality.Report, error) {
	if c.Summary == "" {
		return nil, nil
	}

	r := &quality.Report{RowCount: rowCount, ColumnCount: columnCount}
	dec := func(s string, v any) error {
		if s == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(s), v); err != nil {
			return fmt.Errorf("unmarshal report: %w", err)
		}
		return nil
	}

	if err := dec(c.Missing, &r.Missing); err != nil {
		return nil, err
	}
	if err := dec(c.Format, &r.Format); err != nil {
		return nil, err
	}
	if err := dec(c.Logical, &r.Logical); err != nil {
		return nil, err
	}
	if err := dec(c.Duplicate, &r.Duplicate); err != nil {
		return nil, err
	}
	if err := dec(c.Outlier, &r.Outlier); err != nil {
		return nil, err
	}
	if err := dec(c.Summary, &r.Summary); err != nil {
		return nil, err
	}
	return r, nil
}
