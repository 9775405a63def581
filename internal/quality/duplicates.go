package quality

import (
	"fmt"
	"strings"
)

// findDuplicates groups rows by the normalized (trimmed, lower-cased)
// value of the configured key column and emits one issue per colliding
// key, listing every participating row index. Rows with a missing key
// are excluded from grouping: an absent identity is not a shared one.
// If the key column is absent from the table, there is nothing to do.
func findDuplicates(t *Table, presence Presence, rules RuleSet) []Issue {
	key := rules.DuplicateKey
	if key == "" || !presence.Has(key) {
		return nil
	}

	groups := make(map[string][]int)
	var order []string // first-occurrence order keeps output deterministic

	for i := range t.Rows {
		v := t.cell(i, key)
		if rules.isMissing(v) {
			continue
		}
		norm := strings.ToLower(strings.TrimSpace(v.Raw))
		if _, seen := groups[norm]; !seen {
			order = append(order, norm)
		}
		groups[norm] = append(groups[norm], i)
	}

	var issues []Issue
	for _, norm := range order {
		rows := groups[norm]
		if len(rows) < 2 {
			continue
		}
		issues = append(issues, Issue{
			Kind:    KindDuplicate,
			Column:  key,
			Row:     -1,
			Rows:    rows,
			Value:   norm,
			Count:   len(rows),
			Message: fmt.Sprintf("%d rows share %s %q", len(rows), key, norm),
		})
	}
	return issues
}
