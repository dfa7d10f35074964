package pipeline

import (
	"math"
	"testing"

	"churnserve/data"
)

func rawFrame(t *testing.T) *data.Frame {
	t.Helper()
	frame, err := data.NewFrame(
		data.NewCategoricalColumn("customerID", []string{"a", "b", "c"}, nil),
		data.NewNumericColumn("tenure", []float64{1, 0, 12}),
		data.NewCategoricalColumn("TotalCharges", []string{"29.85", " ", "1889.5"}, nil),
		data.NewCategoricalColumn("Churn", []string{"No", "Yes", "No"}, nil),
	)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return frame
}

func TestNewDataCleaner(t *testing.T) {
	cleaner := NewDataCleaner("customerID", "TotalCharges")
	if cleaner == nil {
		t.Fatal("NewDataCleaner returned nil")
	}
	if len(cleaner.rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(cleaner.rules))
	}

	if rules := NewDataCleaner("").rules; len(rules) != 0 {
		t.Errorf("empty id column should add no rule, got %d", len(rules))
	}
}

func TestDataCleaner_Clean(t *testing.T) {
	cleaner := NewDataCleaner("customerID", "TotalCharges")
	cleaned := cleaner.Clean(rawFrame(t))

	if cleaned.Has("customerID") {
		t.Error("customerID should be dropped")
	}
	if cleaned.Rows() != 3 {
		t.Errorf("expected 3 rows, got %d", cleaned.Rows())
	}

	total, err := cleaned.Column("TotalCharges")
	if err != nil {
		t.Fatalf("TotalCharges missing: %v", err)
	}
	if total.Kind != data.Numeric {
		t.Fatalf("TotalCharges kind = %v, want numeric", total.Kind)
	}
	want := []float64{29.85, 0, 1889.5}
	for i, v := range want {
		if total.Numbers[i] != v {
			t.Errorf("TotalCharges[%d] = %v, want %v", i, total.Numbers[i], v)
		}
	}

	churn, _ := cleaned.Column("Churn")
	if churn.Texts[1] != "Yes" {
		t.Error("target column must not be touched")
	}

	stats := cleaner.Stats()
	if stats.Corrected != 1 {
		t.Errorf("expected 1 corrected cell, got %d", stats.Corrected)
	}
	if stats.DroppedColumns != 1 {
		t.Errorf("expected 1 dropped column, got %d", stats.DroppedColumns)
	}
}

func TestDataCleaner_Idempotent(t *testing.T) {
	cleaner := NewDataCleaner("customerID", "TotalCharges")
	once := cleaner.Clean(rawFrame(t))
	twice := cleaner.Clean(once)

	if once.Width() != twice.Width() {
		t.Fatalf("width changed: %d -> %d", once.Width(), twice.Width())
	}
	a, _ := once.Column("TotalCharges")
	b, _ := twice.Column("TotalCharges")
	for i := range a.Numbers {
		if a.Numbers[i] != b.Numbers[i] {
			t.Errorf("row %d changed on second pass: %v -> %v", i, a.Numbers[i], b.Numbers[i])
		}
	}
}

func TestCoerceNumericRule_NumericColumn(t *testing.T) {
	frame, err := data.NewFrame(data.NewNumericColumn("TotalCharges", []float64{1.5, math.NaN(), math.Inf(1)}))
	if err != nil {
		t.Fatal(err)
	}
	out, changed := CoerceNumericRule{Column: "TotalCharges"}.Apply(frame)
	if changed != 2 {
		t.Errorf("expected 2 changed cells, got %d", changed)
	}
	col, _ := out.Column("TotalCharges")
	if col.Numbers[1] != 0 || col.Numbers[2] != 0 {
		t.Errorf("non-finite values should become 0, got %v", col.Numbers)
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		token  string
		want   float64
		wantOK bool
	}{
		{"29.85", 29.85, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{" ", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := CoerceNumber(tt.token)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CoerceNumber(%q) = %v, %v; want %v, %v", tt.token, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func BenchmarkDataCleaner_Clean(b *testing.B) {
	n := 7000
	ids := make([]string, n)
	charges := make([]string, n)
	for i := range ids {
		ids[i] = "id"
		charges[i] = "100.5"
	}
	frame, err := data.NewFrame(
		data.NewCategoricalColumn("customerID", ids, nil),
		data.NewCategoricalColumn("TotalCharges", charges, nil),
	)
	if err != nil {
		b.Fatal(err)
	}
	cleaner := NewDataCleaner("customerID", "TotalCharges")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cleaner.Clean(frame)
	}
}
