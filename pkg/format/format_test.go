package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPrettyDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"153.333333", "153.33"},
		{"1234567.891", "1 234 567.89"},
		{"-98765.4", "-98 765.40"},
		{"999", "999.00"},
		{"1000", "1 000.00"},
	}

	for _, tc := range cases {
		got := PrettyDecimal(decimal.RequireFromString(tc.in), " ", ".")
		if got != tc.want {
			t.Errorf("PrettyDecimal(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPrettyNumber(t *testing.T) {
	if got := PrettyNumber(1234567, ",", "."); got != "1,234,567" {
		t.Errorf("int = %q", got)
	}
	if got := PrettyNumber(1234.5, ",", "."); got != "1,234.50" {
		t.Errorf("float = %q", got)
	}
}
