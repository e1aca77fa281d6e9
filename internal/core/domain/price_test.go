package domain

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"naira with thousands separator", "₦ 3,850", 3850, true},
		{"dollar sign", "$999", 999, true},
		{"not available", "N/A", 0, false},
		{"empty", "", 0, false},
		{"currency code prefix", "NGN 1,234.50", 1234.50, true},
		{"plain number", "42", 42, true},
		{"decimal", "19.99", 19.99, true},
		{"whitespace only", "   ", 0, false},
		{"text only", "Not Available", 0, false},
		{"euro with spaces", "€ 1 299", 1299, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDiscount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"-12%", 12},
		{"25%", 25},
		{"No Discount", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseDiscount(tt.input); got != tt.want {
			t.Errorf("ParseDiscount(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
