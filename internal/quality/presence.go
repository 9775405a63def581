package quality

// Presence is the subset of expected columns actually found in a table.
// Every check consults it before touching a column; an absent column
// means the check silently produces nothing for it.
type Presence map[string]struct{}

// Has reports whether col was found in the table.
func (p Presence) Has(col string) bool {
	_, ok := p[col]
	return ok
}

// HasAll reports whether every named column was found.
func (p Presence) HasAll(cols ...string) bool {
	for _, c := range cols {
		if !p.Has(c) {
			return false
		}
	}
	return true
}

// ResolvePresence matches the table's headers against the rule set's
// expected columns. Matching is a case-sensitive exact comparison. An
// empty table simply yields an empty set; that is not a failure.
func ResolvePresence(t *Table, rules RuleSet) Presence {
	have := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		have[c] = struct{}{}
	}

	p := make(Presence)
	for _, want := range rules.ExpectedColumns() {
		if _, ok := have[want]; ok {
			p[want] = struct{}{}
		}
	}
	return p
}
