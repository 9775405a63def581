package quality

import (
	"fmt"
	"strings"
)

// checkLogic evaluates cross-field rules per row. A rule fires only when
// both of its columns are present and both values parse as numbers;
// unparseable values were already reported by the format validator and
// are not re-reported here. Rules are independent: one row can trip any
// subset of them.
func checkLogic(t *Table, presence Presence, rules RuleSet) []Issue {
	var issues []Issue
	for i := range t.Rows {
		for _, rule := range rules.CrossRules {
			if !presence.HasAll(rule.Column, rule.Floor) {
				continue
			}

			lv := t.cell(i, rule.Column)
			fv := t.cell(i, rule.Floor)
			if rules.isMissing(lv) || rules.isMissing(fv) {
				continue
			}

			left, ok := ParseNumber(lv.Raw)
			if !ok {
				continue
			}
			floor, ok := ParseNumber(fv.Raw)
			if !ok {
				continue
			}

			if left < floor {
				issues = append(issues, Issue{
					Kind:    KindLogical,
					Columns: []string{rule.Column, rule.Floor},
					Row:     i,
					Value: fmt.Sprintf("%s=%s, %s=%s",
						rule.Column, strings.TrimSpace(lv.Raw),
						rule.Floor, strings.TrimSpace(fv.Raw)),
					Message: rule.Message,
				})
			}
		}
	}
	return issues
}
