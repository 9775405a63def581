package quality

import (
	"errors"
	"time"
)

// ErrNilTable is returned when a caller hands the engine no table at all.
// It signals a collaborator contract breach, never a data-quality finding.
var ErrNilTable = errors.New("quality: nil table")

// Engine runs the full set of checks against a table. It carries only
// immutable rule configuration and a clock, so one engine can serve any
// number of concurrent runs.
type Engine struct {
	rules RuleSet
	now   func() time.Time
}

// New creates an engine for the given rule set.
func New(rules RuleSet) *Engine {
	return &Engine{rules: rules, now: time.Now}
}

// Rules returns the engine's rule configuration.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Run validates a table and assembles the report. The table is read-only
// to the engine; the returned report is freshly allocated and owned by
// the caller. Two runs over the same unmodified table produce equal
// reports, modulo the validation-time clock used by future-date checks.
//
// Only structural contract violations (nil or malformed table) fail the
// call. Bad data degrades into findings, never into an error.
func (e *Engine) Run(t *Table) (*Report, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	presence := ResolvePresence(t, e.rules)

	missing := analyzeMissing(t, presence, e.rules)
	format := validateFormats(t, presence, e.rules, e.now())
	logical := checkLogic(t, presence, e.rules)
	duplicate := findDuplicates(t, presence, e.rules)
	outlier := findOutliers(t, presence, e.rules)

	return assemble(t, missing, format, logical, duplicate, outlier), nil
}

// assemble merges the check outputs with the table's dimensions. It adds
// no findings of its own.
func assemble(t *Table, missing, format, logical, duplicate, outlier []Issue) *Report {
	r := &Report{
		RowCount:    len(t.Rows),
		ColumnCount: len(t.Columns),
		Missing:     nonNil(missing),
		Format:      nonNil(format),
		Logical:     nonNil(logical),
		Duplicate:   nonNil(duplicate),
		Outlier:     nonNil(outlier),
		Summary:     make(map[IssueKind]int, 5),
	}
	for _, k := range Kinds() {
		r.Summary[k] = len(r.ByKind(k))
	}
	return r
}

func nonNil(issues []Issue) []Issue {
	if issues == nil {
		return []Issue{}
	}
	return issues
}
