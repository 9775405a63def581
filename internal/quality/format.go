package quality

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// format.go holds the syntactic checks: does each value parse into the
// shape its column expects. Semantic plausibility of parseable values is
// the outlier detector's job; cross-field rules belong to the logical
// checker.

// Pre-compiled once; matching per cell is the hot path.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Date layouts accepted for date fields, unambiguous 4-digit years only.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses a calendar date in any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric cell, tolerating currency symbols,
// thousands separators, and the accounting negative form "(123.45)".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// yearsBetween returns whole years from born to now, negative when born
// is in the future.
func yearsBetween(born, now time.Time) int {
	years := now.Year() - born.Year()
	if now.Month() < born.Month() ||
		(now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years
}

// validateFormats runs every field rule against every row, producing one
// issue per violating (row, column) pair. Missing values are skipped
// entirely; the missing-value analyzer already reported them. Numeric
// cells equal to a configured unknown-sentinel are skipped too, because
// the outlier detector owns those.
func validateFormats(t *Table, presence Presence, rules RuleSet, now time.Time) []Issue {
	var issues []Issue

	add := func(row int, col, raw, msg string) {
		issues = append(issues, Issue{
			Kind:    KindFormat,
			Column:  col,
			Row:     row,
			Value:   raw,
			Message: msg,
		})
	}

	for i := range t.Rows {
		for _, field := range rules.Fields {
			if !presence.Has(field.Name) {
				continue
			}
			v := t.cell(i, field.Name)
			if rules.isMissing(v) {
				continue
			}
			raw := strings.TrimSpace(v.Raw)

			switch field.Type {
			case FieldEmail:
				if !emailRegex.MatchString(raw) {
					add(i, field.Name, v.Raw, "malformed email address")
				}

			case FieldDate:
				d, ok := ParseDate(raw)
				if !ok {
					add(i, field.Name, v.Raw, "unparseable date")
					continue
				}
				if field.NoFuture && d.After(now) {
					add(i, field.Name, v.Raw, "date in the future")
					continue
				}
				if field.MaxAge > 0 {
					if age := yearsBetween(d, now); age < field.MinAge || age > field.MaxAge {
						add(i, field.Name, v.Raw, fmt.Sprintf(
							"implied age outside %d-%d years", field.MinAge, field.MaxAge))
					}
				}

			case FieldEnum:
				if !containsFold(field.EnumValues, raw) {
					add(i, field.Name, v.Raw, fmt.Sprintf(
						"value not one of: %s", strings.Join(field.EnumValues, ", ")))
				}

			case FieldNumeric:
				if containsFold(rules.sentinelsFor(field.Name), raw) {
					continue
				}
				if _, ok := ParseNumber(raw); !ok {
					add(i, field.Name, v.Raw, "not a number")
				}

			case FieldText:
				// Free text has no shape to violate.
			}
		}
	}
	return issues
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
