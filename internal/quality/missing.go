package quality

import (
	"fmt"
	"strings"
)

// isMissing reports whether a cell counts as a missing value: the
// explicit-absent marker, whitespace-only content, or one of the
// configured null tokens ("nan", "null", ...) that CSV exports commonly
// use for absent numerics.
func (rs RuleSet) isMissing(v Value) bool {
	if !v.Present {
		return true
	}
	raw := strings.TrimSpace(v.Raw)
	if raw == "" {
		return true
	}
	for _, tok := range rs.MissingTokens {
		if strings.EqualFold(raw, tok) {
			return true
		}
	}
	return false
}

// analyzeMissing emits one aggregate issue per present column that has at
// least one missing value, carrying the count and the affected row
// indices. Columns with nothing missing produce no entry at all.
func analyzeMissing(t *Table, presence Presence, rules RuleSet) []Issue {
	var issues []Issue
	for _, col := range rules.ExpectedColumns() {
		if !presence.Has(col) {
			continue
		}

		var rows []int
		for i := range t.Rows {
			if rules.isMissing(t.cell(i, col)) {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			continue
		}

		issues = append(issues, Issue{
			Kind:    KindMissing,
			Column:  col,
			Row:     -1,
			Rows:    rows,
			Count:   len(rows),
			Message: fmt.Sprintf("%d missing value(s) in %q", len(rows), col),
		})
	}
	return issues
}
