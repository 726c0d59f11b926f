package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		value string
		code  string
		want  string
	}{
		{"45", "USD", "$45.00"},
		{"1234.5", "USD", "$1,234.50"},
		{"-45", "USD", "-$45.00"},
		{"18.5833333333333333", "USD", "$18.58"},
		{"0.005", "USD", "$0.01"},
		{"1500", "JPY", "¥1,500"},
	}

	for _, tt := range tests {
		t.Run(tt.code+" "+tt.value, func(t *testing.T) {
			got := NewFormatter(tt.code).Format(decimal.RequireFromString(tt.value))
			if got != tt.want {
				t.Errorf("Format(%s, %s) = %q, want %q", tt.value, tt.code, got, tt.want)
			}
		})
	}
}

func TestSigned(t *testing.T) {
	f := NewFormatter("USD")

	if got := f.Signed(decimal.NewFromInt(45)); got != "+$45.00" {
		t.Errorf("Signed(45) = %q", got)
	}
	if got := f.Signed(decimal.NewFromInt(-45)); got != "-$45.00" {
		t.Errorf("Signed(-45) = %q", got)
	}
	if got := f.Signed(decimal.Zero); got != "-" {
		t.Errorf("Signed(0) = %q", got)
	}
	if f.Code() != "USD" {
		t.Errorf("Code() = %q", f.Code())
	}
	if got := NewFormatter("eur").Code(); got != "EUR" {
		t.Errorf("Code() = %q, want EUR", got)
	}
}
