package quality

import "testing"

func TestFindOutliers_PaymentMethodAllowList(t *testing.T) {
	tests := []struct {
		method string
		want   int
	}{
		{"cash", 0},
		{"credit_card", 0},
		{"Bank_Transfer", 0}, // allow-list match is case-insensitive
		{"INVALID_METHOD", 1},
		{"bitcoin", 1},
	}

	for _, tt := range tests {
		tbl := newTable([]string{"payment_method"},
			map[string]string{"payment_method": tt.method})
		rep, err := testEngine().Run(tbl)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := len(rep.Outlier); got != tt.want {
			t.Errorf("payment %q: outlier issues = %d, want %d", tt.method, got, tt.want)
		}
	}
}

func TestFindOutliers_TotalAmount(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"positive ok", "99.90", 0},
		{"zero ok", "0", 0},
		{"negative flagged", "-5", 1},
		{"unknown sentinel flagged", "UNKNOWN", 1},
		{"unparseable is format territory", "garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable([]string{"total_amount"},
				map[string]string{"total_amount": tt.value})
			rep, err := testEngine().Run(tbl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := len(rep.Outlier); got != tt.want {
				t.Errorf("total %q: outlier issues = %d, want %d (%+v)",
					tt.value, got, tt.want, rep.Outlier)
			}
		})
	}
}

func TestFindOutliers_PriceBounds(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  int
	}{
		{"normal price", "19.99", 0},
		{"at ceiling", "1000000", 0},
		{"above ceiling", "1000001", 1},
		{"zero price", "0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newTable([]string{"selling_price"},
				map[string]string{"selling_price": tt.price})
			rep, err := testEngine().Run(tbl)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := len(rep.Outlier); got != tt.want {
				t.Errorf("price %q: outlier issues = %d, want %d", tt.price, got, tt.want)
			}
		})
	}
}

func TestFindOutliers_DirectAgeBounds(t *testing.T) {
	tests := []struct {
		age  string
		want int
	}{
		{"30", 0},
		{"18", 0},
		{"100", 0},
		{"17", 1},
		{"150", 1},
	}

	for _, tt := range tests {
		tbl := newTable([]string{"age"}, map[string]string{"age": tt.age})
		rep, err := testEngine().Run(tbl)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := len(rep.Outlier); got != tt.want {
			t.Errorf("age %q: outlier issues = %d, want %d", tt.age, got, tt.want)
		}
	}
}

func TestFindOutliers_MissingValuesSkipped(t *testing.T) {
	tbl := newTable([]string{"payment_method", "total_amount"},
		map[string]string{"payment_method": "", "total_amount": "nan"},
	)
	rep, err := testEngine().Run(tbl)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Outlier) != 0 {
		t.Errorf("outlier issues = %+v, want none for missing cells", rep.Outlier)
	}
}
