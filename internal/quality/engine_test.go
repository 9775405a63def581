package quality

import (
	"reflect"
	"testing"
	"time"
)

// Fixed validation clock so future-date checks are deterministic.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	e := New(DefaultRuleSet())
	e.now = func() time.Time { return testNow }
	return e
}

// newTable builds a table from string rows; cells absent from a row map
// become explicit-absent values.
func newTable(cols []string, rows ...map[string]string) *Table {
	t := &Table{Columns: cols}
	for _, r := range rows {
		row := make(Row, len(r))
		for col, raw := range r {
			row[col] = Cell(raw)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestRun_Counts(t *testing.T) {
	tbl := newTable([]string{"email", "status", "extra_column"},
		map[string]string{"email": "a@x.com", "status": "active", "extra_column": "x"},
		map[string]string{"email": "b@x.com", "status": "pending", "extra_column": "y"},
	)

	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", rep.RowCount)
	}
	if rep.ColumnCount != 3 {
		t.Errorf("ColumnCount = %d, want 3", rep.ColumnCount)
	}
}

func TestRun_EmptyTable(t *testing.T) {
	rep, err := testEngine().Run(&Table{Columns: []string{"email"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0", rep.RowCount)
	}
	for _, k := range Kinds() {
		if n := rep.Summary[k]; n != 0 {
			t.Errorf("Summary[%s] = %d, want 0", k, n)
		}
	}
}

func TestRun_NilTable(t *testing.T) {
	if _, err := testEngine().Run(nil); err != ErrNilTable {
		t.Fatalf("Run(nil) error = %v, want ErrNilTable", err)
	}
}

func TestRun_DuplicateColumnIsContractViolation(t *testing.T) {
	tbl := &Table{Columns: []string{"email", "email"}}
	if _, err := testEngine().Run(tbl); err == nil {
		t.Fatal("Run() with duplicate column = nil error, want failure")
	}
}

func TestRun_AbsentColumnsProduceNoIssues(t *testing.T) {
	// No payment_method, no prices, no dates: every column-gated check
	// must skip quietly instead of erroring.
	tbl := newTable([]string{"unrelated"},
		map[string]string{"unrelated": "whatever"},
		map[string]string{"unrelated": "INVALID_METHOD"},
	)

	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, k := range Kinds() {
		if n := rep.Summary[k]; n != 0 {
			t.Errorf("Summary[%s] = %d, want 0", k, n)
		}
	}
}

func TestRun_Idempotent(t *testing.T) {
	tbl := newTable([]string{"email", "selling_price", "cost_price", "status"},
		map[string]string{"email": "a@x.com", "selling_price": "5", "cost_price": "10", "status": "bogus"},
		map[string]string{"email": "a@x.com", "selling_price": "20", "cost_price": "10", "status": "active"},
		map[string]string{"email": ""},
	)

	e := testEngine()
	first, err := e.Run(tbl)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	second, err := e.Run(tbl)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reports differ across runs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRun_AppendingCleanRowKeepsExistingIssues(t *testing.T) {
	cols := []string{"email", "selling_price", "cost_price"}
	dirty := map[string]string{"email": "a@x.com", "selling_price": "5", "cost_price": "10"}
	clean := map[string]string{"email": "b@x.com", "selling_price": "30", "cost_price": "10"}

	before, err := testEngine().Run(newTable(cols, dirty))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	after, err := testEngine().Run(newTable(cols, dirty, clean))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if after.RowCount != before.RowCount+1 {
		t.Errorf("RowCount = %d, want %d", after.RowCount, before.RowCount+1)
	}
	if !reflect.DeepEqual(before.Logical, after.Logical) {
		t.Errorf("existing logical issues changed: %+v vs %+v", before.Logical, after.Logical)
	}
}

func TestRun_EndToEndScenario(t *testing.T) {
	tbl := newTable([]string{"email", "status", "current_stock", "reorder_level"},
		map[string]string{"email": "", "status": "active", "current_stock": "10", "reorder_level": "5"},
		map[string]string{"email": "one@x.com", "status": "bogus", "current_stock": "10", "reorder_level": "5"},
		map[string]string{"email": "two@x.com", "status": "completed", "current_stock": "2", "reorder_level": "5"},
	)

	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[IssueKind]int{
		KindMissing:   1,
		KindFormat:    1,
		KindLogical:   1,
		KindDuplicate: 0,
		KindOutlier:   0,
	}
	if !reflect.DeepEqual(rep.Summary, want) {
		t.Fatalf("Summary = %v, want %v", rep.Summary, want)
	}

	if rep.Missing[0].Column != "email" || rep.Missing[0].Count != 1 {
		t.Errorf("missing issue = %+v, want 1 missing email", rep.Missing[0])
	}
	if rep.Format[0].Column != "status" || rep.Format[0].Row != 1 {
		t.Errorf("format issue = %+v, want status violation on row 1", rep.Format[0])
	}
	if rep.Logical[0].Row != 2 || rep.Logical[0].Message != "stock below reorder threshold" {
		t.Errorf("logical issue = %+v, want stock/reorder violation on row 2", rep.Logical[0])
	}
}

func TestCheckLogic_PriceBelowCost(t *testing.T) {
	tests := []struct {
		name    string
		selling string
		cost    string
		want    int
	}{
		{"price below cost", "5", "10", 1},
		{"price above cost", "10", "5", 0},
		{"price equals cost", "10", "10", 0},
		{"unparseable side skipped", "abc", "10", 0},
		{"missing side skipped", "", "10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable([]string{"selling_price", "cost_price"},
				map[string]string{"selling_price": tt.selling, "cost_price": tt.cost},
			)
			rep, err := testEngine().Run(tbl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := len(rep.Logical); got != tt.want {
				t.Errorf("logical issues = %d, want %d (%+v)", got, tt.want, rep.Logical)
			}
		})
	}
}

func TestRun_BothLogicalRulesIndependent(t *testing.T) {
	tbl := newTable(
		[]string{"selling_price", "cost_price", "current_stock", "reorder_level"},
		map[string]string{
			"selling_price": "5", "cost_price": "10",
			"current_stock": "2", "reorder_level": "8",
		},
	)
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Logical) != 2 {
		t.Fatalf("logical issues = %d, want 2 (%+v)", len(rep.Logical), rep.Logical)
	}
}
