package quality

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   float64
	}{
		{"plain integer", "123", true, 123},
		{"negative", "-456", true, -456},
		{"decimal", "123.45", true, 123.45},
		{"leading dot", ".99", true, 0.99},
		{"currency and separators", "$1,234.56", true, 1234.56},
		{"accounting negative", "(123.45)", true, -123.45},
		{"accounting with currency", "($1,234.56)", true, -1234.56},
		{"scientific", "1.5e3", true, 1500},
		{"empty", "", false, 0},
		{"word", "abc", false, 0},
		{"trailing junk", "12abc", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
	}{
		{"2024-01-05", true},
		{"2024/01/05", true},
		{"01/05/2024", true},
		{"Jan 5, 2024", true},
		{"not-a-date", false},
		{"2024-13-40", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := ParseDate(tt.input); ok != tt.wantOK {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
		}
	}
}

func TestValidateFormats_Email(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  int
	}{
		{"valid short", "a@b.co", 0},
		{"valid with subdomain", "user@mail.example.com", 0},
		{"no at sign", "not-an-email", 1},
		{"no domain dot", "a@b", 1},
		{"embedded space", "a b@x.com", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable([]string{"email"}, map[string]string{"email": tt.email})
			rep, err := testEngine().Run(tbl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := len(rep.Format); got != tt.want {
				t.Errorf("email %q: format issues = %d, want %d", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidateFormats_Dates(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		value   string
		wantMsg string // empty means no issue expected
	}{
		{"past transaction ok", "transaction_date", "2024-01-05", ""},
		{"future transaction flagged", "transaction_date", "2026-01-01", "date in the future"},
		{"garbage date flagged", "transaction_date", "bogus", "unparseable date"},
		{"reasonable birth date ok", "date_of_birth", "1990-03-20", ""},
		{"birth date too old", "date_of_birth", "1890-01-01", "implied age outside 0-120 years"},
		{"birth date in future", "date_of_birth", "2030-01-01", "implied age outside 0-120 years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable([]string{tt.column}, map[string]string{tt.column: tt.value})
			rep, err := testEngine().Run(tbl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if tt.wantMsg == "" {
				if len(rep.Format) != 0 {
					t.Fatalf("format issues = %+v, want none", rep.Format)
				}
				return
			}
			if len(rep.Format) != 1 {
				t.Fatalf("format issues = %d, want 1 (%+v)", len(rep.Format), rep.Format)
			}
			if rep.Format[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", rep.Format[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateFormats_StatusEnum(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{"active", 0},
		{"COMPLETED", 0}, // membership is case-insensitive
		{"cancelled", 0},
		{"bogus", 1},
	}

	for _, tt := range tests {
		tbl := newTable([]string{"status"}, map[string]string{"status": tt.status})
		rep, err := testEngine().Run(tbl)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := len(rep.Format); got != tt.want {
			t.Errorf("status %q: format issues = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestValidateFormats_NumericParsing(t *testing.T) {
	tbl := newTable([]string{"selling_price"},
		map[string]string{"selling_price": "12.50"},
		map[string]string{"selling_price": "twelve"},
	)
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Format) != 1 || rep.Format[0].Row != 1 {
		t.Fatalf("format issues = %+v, want one on row 1", rep.Format)
	}
}

func TestValidateFormats_SentinelLeftToOutlierCheck(t *testing.T) {
	// "UNKNOWN" on total_amount is a configured sentinel: the format
	// validator must not double-report it as an unparseable number.
	tbl := newTable([]string{"total_amount"}, map[string]string{"total_amount": "UNKNOWN"})
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Format) != 0 {
		t.Errorf("format issues = %+v, want none", rep.Format)
	}
	if len(rep.Outlier) != 1 {
		t.Errorf("outlier issues = %+v, want exactly one", rep.Outlier)
	}
}

func TestValidateFormats_MissingValuesSkipped(t *testing.T) {
	tbl := newTable([]string{"email", "selling_price"},
		map[string]string{"email": "", "selling_price": "  "},
	)
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Format) != 0 {
		t.Errorf("format issues = %+v, want none for missing cells", rep.Format)
	}
	if len(rep.Missing) != 2 {
		t.Errorf("missing issues = %d, want 2", len(rep.Missing))
	}
}
