package extract

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParsePriceText_CurrentPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"two cent digits", "current price $5.97", 5.97},
		{"single cent digit right-padded", "current price $5.5", 5.50},
		{"no cents", "current price $5", 5.00},
		{"thousands separator", "current price $1,234.56", 1234.56},
		{"mixed case phrase", "Current Price $12.99", 12.99},
		{"was price ignored", "current price $5.97 was $9.99", 5.97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePriceText(tt.text)
			if !ok {
				t.Fatalf("ParsePriceText(%q) failed, want %v", tt.text, tt.want)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("ParsePriceText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParsePriceText_Generic(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"plain", "$49.99", 49.99},
		{"single cent digit right-padded", "$5.5", 5.50},
		{"no cents", "$7", 7.00},
		{"embedded in text", "Now only $19.99 per item", 19.99},
		{"thousands separator", "$1,299", 1299.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePriceText(tt.text)
			if !ok {
				t.Fatalf("ParsePriceText(%q) failed, want %v", tt.text, tt.want)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("ParsePriceText(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParsePriceText_NoMatch(t *testing.T) {
	for _, text := range []string{"", "out of stock", "free shipping", "$"} {
		if v, ok := ParsePriceText(text); ok {
			t.Errorf("ParsePriceText(%q) = %v, want no match", text, v)
		}
	}
}

func TestCombineSplitPrice(t *testing.T) {
	tests := []struct {
		name         string
		whole, cents string
		want         float64
		ok           bool
	}{
		{"plain", "12", "99", 12.99, true},
		{"currency noise stripped", "$12.", "99¢", 12.99, true},
		{"missing cents defaults to zero", "45", "", 45.00, true},
		{"whole with comma", "1,299", "00", 1299.00, true},
		{"no digits in whole", "$", "99", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CombineSplitPrice(tt.whole, tt.cents)
			if ok != tt.ok {
				t.Fatalf("CombineSplitPrice(%q, %q) ok = %v, want %v", tt.whole, tt.cents, ok, tt.ok)
			}
			if ok && !almostEqual(got, tt.want) {
				t.Errorf("CombineSplitPrice(%q, %q) = %v, want %v", tt.whole, tt.cents, got, tt.want)
			}
		})
	}
}
