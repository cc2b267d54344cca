package core

import (
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "simple expense", input: "-50.00", want: -5000},
		{name: "simple income", input: "2500.00", want: 250000},
		{name: "explicit plus", input: "+12.34", want: 1234},
		{name: "comma separator", input: "-12,34", want: -1234},
		{name: "no fraction", input: "7", want: 700},
		{name: "one fractional digit", input: "1.5", want: 150},
		{name: "third digit rounds down", input: "12.344", want: 1234},
		{name: "third digit rounds up", input: "12.346", want: 1235},
		{name: "leading dot", input: ".99", want: 99},
		{name: "whitespace trimmed", input: "  -3.10 ", want: -310},
		{name: "empty", input: "", wantErr: ErrInvalidAmount},
		{name: "zero", input: "0", wantErr: ErrZeroAmount},
		{name: "zero with fraction", input: "0.00", wantErr: ErrZeroAmount},
		{name: "negative zero", input: "-0.00", wantErr: ErrZeroAmount},
		{name: "letters", input: "abc", wantErr: ErrInvalidAmount},
		{name: "mixed", input: "12a.50", wantErr: ErrInvalidAmount},
		{name: "two dots", input: "1.2.3", wantErr: ErrInvalidAmount},
		{name: "over magnitude bound", input: "999999999999.00", wantErr: ErrAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseMoney(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseMoney(%q) = %d cents, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("zero amount: got %v, want ErrZeroAmount", err)
	}
	if err := (Money{Cents: MaxAbsCents + 1}).Validate(); !errors.Is(err, ErrAmountOutOfRange) {
		t.Errorf("over bound: got %v, want ErrAmountOutOfRange", err)
	}
	if err := (Money{Cents: -MaxAbsCents}).Validate(); err != nil {
		t.Errorf("at negative bound: unexpected error %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{-5000, "-50.00"},
		{250000, "2500.00"},
		{99, "0.99"},
		{-1, "-0.01"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyAbs(t *testing.T) {
	if got := (Money{Cents: -1234}).Abs(); got.Cents != 1234 {
		t.Errorf("Abs(-1234) = %d, want 1234", got.Cents)
	}
	if got := (Money{Cents: 1234}).Abs(); got.Cents != 1234 {
		t.Errorf("Abs(1234) = %d, want 1234", got.Cents)
	}
}
