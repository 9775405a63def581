// Package quality implements the data-quality validation engine.
//
// The engine is a pure function over an in-memory Table: given the same
// table and rule set it always produces the same Report. It never mutates
// its input, holds no state between runs, and is safe to call from
// concurrent request handlers as long as each call gets its own Table.
//
// Data-quality problems (missing values, bad formats, rule violations,
// duplicates, outliers) are findings in the Report, not errors. The only
// hard failures are structural: a nil table or a table with duplicate
// column names, which indicate a broken caller rather than bad data.
package quality

import "fmt"

// Value is a single cell. Present is false when the row has no cell for
// the column at all, which is distinct from an empty string.
type Value struct {
	Raw     string
	Present bool
}

// Cell returns a present value holding raw.
func Cell(raw string) Value {
	return Value{Raw: raw, Present: true}
}

// Absent returns the explicit-absent marker.
func Absent() Value {
	return Value{}
}

// Row maps column names to cell values. Columns missing from the map are
// treated the same as an explicit Absent value.
type Row map[string]Value

// Table is an in-memory tabular dataset with named columns and ordered
// rows. It is constructed by the caller (typically from a parsed CSV) and
// passed read-only into the engine.
type Table struct {
	Columns []string
	Rows    []Row
}

// validate checks the structural contract the engine relies on.
// Data problems are never reported here; only a malformed table is.
func (t *Table) validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("table contract violation: duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// cell returns the value for col in row i, treating out-of-range rows and
// missing map entries as absent.
func (t *Table) cell(i int, col string) Value {
	if i < 0 || i >= len(t.Rows) || t.Rows[i] == nil {
		return Absent()
	}
	return t.Rows[i][col]
}

// IssueKind identifies which check produced an issue.
type IssueKind string

const (
	KindMissing   IssueKind = "missing_value"
	KindFormat    IssueKind = "format"
	KindLogical   IssueKind = "logical"
	KindDuplicate IssueKind = "duplicate"
	KindOutlier   IssueKind = "outlier"
)

// Kinds lists all issue kinds in report order.
func Kinds() []IssueKind {
	return []IssueKind{KindMissing, KindFormat, KindLogical, KindDuplicate, KindOutlier}
}

// Issue is one discrete data-quality finding. Issues are value types and
// never modified after creation.
//
// Row is the 0-based index of the offending row, or -1 for aggregate
// issues (missing-value and duplicate findings), which list all affected
// indices in Rows instead.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Column  string    `json:"column,omitempty"`
	Columns []string  `json:"columns,omitempty"`
	Row     int       `json:"row"`
	Rows    []int     `json:"rows,omitempty"`
	Value   string    `json:"value,omitempty"`
	Count   int       `json:"count,omitempty"`
	Message string    `json:"message"`
}

// Report is the complete result of one validation run. It is created
// fresh by every engine call and owned by the caller afterwards.
type Report struct {
	RowCount    int               `json:"row_count"`
	ColumnCount int               `json:"column_count"`
	Missing     []Issue           `json:"missing_values"`
	Format      []Issue           `json:"format_violations"`
	Logical     []Issue           `json:"logical_inconsistencies"`
	Duplicate   []Issue           `json:"duplicate_records"`
	Outlier     []Issue           `json:"outliers"`
	Summary     map[IssueKind]int `json:"summary"`
}

// ByKind returns the issue sequence for a kind.
func (r *Report) ByKind(k IssueKind) []Issue {
	switch k {
	case KindMissing:
		return r.Missing
	case KindFormat:
		return r.Format
	case KindLogical:
		return r.Logical
	case KindDuplicate:
		return r.Duplicate
	case KindOutlier:
		return r.Outlier
	default:
		return nil
	}
}

// TotalIssues returns the sum of all summary counts.
func (r *Report) TotalIssues() int {
	var n int
	for _, c := range r.Summary {
		n += c
	}
	return n
}
