// Package tabular turns an uploaded CSV stream into the engine's table
// representation. It owns only parsing concerns: header cleanup, row
// shaping, size ceilings, and a content hash for re-upload detection.
// What the values mean is entirely the quality package's business.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/xxh3"

	"csvaudit/internal/quality"
)

// ErrTooManyRows is returned when the input exceeds the configured row
// ceiling. The ceiling exists so one upload cannot exhaust memory; it is
// gatekeeping, not a data-quality finding.
var ErrTooManyRows = errors.New("tabular: too many rows")

// ErrNoHeader is returned for inputs without a single header row.
var ErrNoHeader = errors.New("tabular: csv has no header row")

// Result is a parsed upload: the table plus the xxh3 hash of the raw
// bytes, used to recognize files that were audited before.
type Result struct {
	Table       *quality.Table
	ContentHash string
}

// Read parses CSV from r into a Table. maxRows caps the number of data
// rows (0 disables the cap). Rows may be ragged: cells past the end of a
// short row become explicit-absent values rather than errors.
func Read(r io.Reader, maxRows int) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	hash := xxh3.Hash128(raw)

	cr := csv.NewReader(strings.NewReader(string(raw)))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns, err := cleanHeader(header)
	if err != nil {
		return nil, err
	}

	table := &quality.Table{Columns: columns}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Rows)+1, err)
		}
		if maxRows > 0 && len(table.Rows) >= maxRows {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManyRows, maxRows)
		}

		row := make(quality.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = quality.Cell(rec[i])
			} else {
				row[col] = quality.Absent()
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return &Result{
		Table:       table,
		ContentHash: fmt.Sprintf("%016x%016x", hash.Hi, hash.Lo),
	}, nil
}

// cleanHeader trims header cells, strips a UTF-8 BOM off the first one,
// names blank headers positionally, and rejects duplicates (the engine
// treats duplicate columns as a contract violation, so surface it here
// where the file is still identifiable).
func cleanHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if prev, dup := seen[h]; dup {
			return nil, fmt.Errorf("duplicate header %q (positions %d and %d)", h, prev+1, i+1)
		}
		seen[h] = i
		columns[i] = h
	}
	return columns, nil
}
