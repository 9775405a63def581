package quality

import (
	"fmt"
	"strings"
)

// findOutliers runs the single-field plausibility rules. Unlike the
// format validator these operate on well-formed values: an unparseable
// numeric cell is a format violation and is ignored here, except for the
// configured unknown-sentinels, which are outliers by definition.
func findOutliers(t *Table, presence Presence, rules RuleSet) []Issue {
	var issues []Issue

	add := func(row int, rule OutlierRule, raw, detail string) {
		msg := rule.Message
		if detail != "" {
			msg = fmt.Sprintf("%s: %s", rule.Message, detail)
		}
		issues = append(issues, Issue{
			Kind:    KindOutlier,
			Column:  rule.Column,
			Row:     row,
			Value:   raw,
			Message: msg,
		})
	}

	for i := range t.Rows {
		for _, rule := range rules.OutlierRules {
			if !presence.Has(rule.Column) {
				continue
			}
			v := t.cell(i, rule.Column)
			if rules.isMissing(v) {
				continue
			}
			raw := strings.TrimSpace(v.Raw)

			if containsFold(rule.Sentinels, raw) {
				add(i, rule, v.Raw, "unknown-value sentinel")
				continue
			}

			if len(rule.AllowList) > 0 && !containsFold(rule.AllowList, raw) {
				add(i, rule, v.Raw, "")
				continue
			}

			if rule.Min == nil && rule.Max == nil && !rule.DisallowZero {
				continue
			}
			n, ok := ParseNumber(raw)
			if !ok {
				continue // syntactic failure, format validator's finding
			}
			switch {
			case rule.DisallowZero && n == 0:
				add(i, rule, v.Raw, "zero is not a valid value")
			case rule.Min != nil && n < *rule.Min:
				add(i, rule, v.Raw, fmt.Sprintf("below minimum %g", *rule.Min))
			case rule.Max != nil && n > *rule.Max:
				add(i, rule, v.Raw, fmt.Sprintf("above maximum %g", *rule.Max))
			}
		}
	}
	return issues
}
