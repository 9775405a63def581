package quality

// ruleset.go defines the rule configuration the engine runs against.
//
// Every enum, threshold, and cross-field comparison is plain data held in
// an immutable RuleSet built once at startup. The checks themselves are
// uniform loops over these rule values, so adding a rule means adding a
// value here, not touching dispatch logic.

// FieldType is the expected syntactic shape of a column's values.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEmail
	FieldDate
	FieldNumeric
	FieldEnum
)

// FieldSpec is a per-column format rule. Only columns listed here (plus
// those referenced by cross-field and outlier rules) are considered
// expected columns; anything else in the input is ignored.
type FieldSpec struct {
	Name       string
	Type       FieldType
	EnumValues []string // FieldEnum: allowed values, matched case-insensitively

	// Date-only settings.
	NoFuture bool // a date strictly after validation time is a format violation
	MinAge   int  // derived-age window in years; active when MaxAge > 0
	MaxAge   int
}

// CrossFieldRule flags rows where Column's numeric value is less than
// Floor's. Rows where either side is missing or unparseable are skipped;
// the format validator already owns unparseable values.
type CrossFieldRule struct {
	Name    string
	Column  string
	Floor   string
	Message string
}

// OutlierRule is a single-field plausibility check on well-formed values.
// Exactly which check applies depends on which fields are set:
//
//   - AllowList: value must be one of these (case-insensitive)
//   - Sentinels: value equal to one of these is a known "unknown" marker
//   - Min/Max/DisallowZero: numeric sanity bounds on parseable values
type OutlierRule struct {
	Name         string
	Column       string
	AllowList    []string
	Sentinels    []string
	Min          *float64
	Max          *float64
	DisallowZero bool
	Message      string
}

// RuleSet is the full, immutable configuration for one engine instance.
type RuleSet struct {
	Fields       []FieldSpec
	CrossRules   []CrossFieldRule
	OutlierRules []OutlierRule

	// DuplicateKey is the column whose normalized value groups duplicate
	// rows. Empty disables duplicate detection.
	DuplicateKey string

	// MissingTokens are string values counted as missing in addition to
	// absent cells and whitespace-only strings. Matched case-insensitively.
	MissingTokens []string
}

// ExpectedColumns returns the ordered, de-duplicated union of every
// column any rule refers to. The schema guard matches table headers
// against this list.
func (rs RuleSet) ExpectedColumns() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(col string) {
		if col == "" {
			return
		}
		if _, ok := seen[col]; ok {
			return
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}

	for _, f := range rs.Fields {
		add(f.Name)
	}
	for _, r := range rs.CrossRules {
		add(r.Column)
		add(r.Floor)
	}
	for _, r := range rs.OutlierRules {
		add(r.Column)
	}
	add(rs.DuplicateKey)
	return out
}

// sentinelsFor returns the configured unknown-sentinels for a column, so
// the format validator can leave sentinel values to the outlier detector.
func (rs RuleSet) sentinelsFor(col string) []string {
	for _, r := range rs.OutlierRules {
		if r.Column == col && len(r.Sentinels) > 0 {
			return r.Sentinels
		}
	}
	return nil
}

// Defaults for business parameters that are deliberate, documented
// guesses; override by building a custom RuleSet.
const (
	// DefaultPriceCeiling is the largest plausible unit price.
	DefaultPriceCeiling = 1_000_000

	// DefaultMinAge / DefaultMaxAge bound directly-supplied ages.
	DefaultMinAge = 18
	DefaultMaxAge = 100

	// Derived-age window for birth dates.
	maxYearsSinceBirth = 120
)

func f64(v float64) *float64 { return &v }

// DefaultRuleSet builds the rule configuration for retail transaction
// exports: customer email, pricing, stock levels, payment metadata.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Fields: []FieldSpec{
			{Name: "email", Type: FieldEmail},
			{Name: "date_of_birth", Type: FieldDate, MinAge: 0, MaxAge: maxYearsSinceBirth},
			{Name: "transaction_date", Type: FieldDate, NoFuture: true},
			{Name: "status", Type: FieldEnum, EnumValues: []string{
				"active", "inactive", "pending", "completed", "cancelled",
			}},
			{Name: "selling_price", Type: FieldNumeric},
			{Name: "cost_price", Type: FieldNumeric},
			{Name: "current_stock", Type: FieldNumeric},
			{Name: "reorder_level", Type: FieldNumeric},
			{Name: "total_amount", Type: FieldNumeric},
			{Name: "age", Type: FieldNumeric},
		},
		CrossRules: []CrossFieldRule{
			{
				Name:    "price_below_cost",
				Column:  "selling_price",
				Floor:   "cost_price",
				Message: "selling price below cost",
			},
			{
				Name:    "stock_below_reorder",
				Column:  "current_stock",
				Floor:   "reorder_level",
				Message: "stock below reorder threshold",
			},
		},
		OutlierRules: []OutlierRule{
			{
				Name:   "invalid_payment_method",
				Column: "payment_method",
				AllowList: []string{
					"cash", "credit_card", "debit_card", "bank_transfer", "mobile_payment",
				},
				Message: "payment method not in allow-list",
			},
			{
				Name:      "implausible_total_amount",
				Column:    "total_amount",
				Min:       f64(0),
				Sentinels: []string{"UNKNOWN"},
				Message:   "implausible total amount",
			},
			{
				Name:         "implausible_selling_price",
				Column:       "selling_price",
				Max:          f64(DefaultPriceCeiling),
				DisallowZero: true,
				Message:      "implausible selling price",
			},
			{
				Name:         "implausible_cost_price",
				Column:       "cost_price",
				Max:          f64(DefaultPriceCeiling),
				DisallowZero: true,
				Message:      "implausible cost price",
			},
			{
				Name:    "unrealistic_age",
				Column:  "age",
				Min:     f64(DefaultMinAge),
				Max:     f64(DefaultMaxAge),
				Message: "unrealistic age",
			},
		},
		DuplicateKey:  "email",
		MissingTokens: []string{"nan", "null", "na", "n/a", "none"},
	}
}
