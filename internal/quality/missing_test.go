package quality

import (
	"reflect"
	"testing"
)

func TestAnalyzeMissing_CountsAndRows(t *testing.T) {
	tbl := newTable([]string{"email", "status"},
		map[string]string{"email": "a@x.com", "status": "active"},
		map[string]string{"email": "", "status": "active"},
		map[string]string{"email": "   ", "status": "active"},
		map[string]string{"status": "active"}, // email cell absent entirely
	)

	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Missing) != 1 {
		t.Fatalf("missing issues = %d, want 1 (%+v)", len(rep.Missing), rep.Missing)
	}

	got := rep.Missing[0]
	if got.Column != "email" || got.Count != 3 {
		t.Errorf("issue = %+v, want 3 missing emails", got)
	}
	if !reflect.DeepEqual(got.Rows, []int{1, 2, 3}) {
		t.Errorf("rows = %v, want [1 2 3]", got.Rows)
	}
}

func TestAnalyzeMissing_NullTokens(t *testing.T) {
	for _, tok := range []string{"nan", "NaN", "null", "NA", "n/a", "None"} {
		tbl := newTable([]string{"total_amount"},
			map[string]string{"total_amount": tok})
		rep, err := testEngine().Run(tbl)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(rep.Missing) != 1 {
			t.Errorf("token %q not counted as missing", tok)
		}
	}
}

func TestAnalyzeMissing_SparseReport(t *testing.T) {
	// Columns with zero missing values get no entry, not a zero-filled one.
	tbl := newTable([]string{"email"},
		map[string]string{"email": "a@x.com"},
	)
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Missing) != 0 {
		t.Errorf("missing issues = %+v, want none", rep.Missing)
	}
}

func TestResolvePresence(t *testing.T) {
	rules := DefaultRuleSet()
	tbl := &Table{Columns: []string{"email", "Status", "current_stock", "unrelated"}}

	p := ResolvePresence(tbl, rules)
	if !p.Has("email") || !p.Has("current_stock") {
		t.Errorf("presence missing expected columns: %v", p)
	}
	if p.Has("Status") || p.Has("status") {
		t.Errorf("presence matched case-insensitively: %v", p)
	}
	if p.Has("unrelated") {
		t.Errorf("presence includes unexpected column: %v", p)
	}
}
