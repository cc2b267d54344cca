// Package core holds the domain model: transactions, money, dates,
// import sessions and the error taxonomy shared by every other package.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxAbsCents bounds the magnitude of a single transaction amount.
// Anything larger is assumed to be a corrupted row, not a real movement.
const MaxAbsCents int64 = 100_000_000_00 // 100 million units

// Money is a signed amount in cents. Negative is an expense, positive income.
type Money struct {
	Cents int64 `json:"cents"`
}

// Validate rejects zero amounts and amounts outside the magnitude bound.
func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrZeroAmount
	}
	if m.Cents > MaxAbsCents || m.Cents < -MaxAbsCents {
		return ErrAmountOutOfRange
	}
	return nil
}

// IsExpense reports whether the amount is negative.
func (m Money) IsExpense() bool { return m.Cents < 0 }

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Float returns the amount in whole units for display and percentage math.
// Keep calculations in cents wherever exactness matters.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain signed decimal, e.g. "-50.00".
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseMoney converts a signed decimal string to Money with half-up rounding
// on the third decimal place. Both dot and comma decimal separators are
// accepted. The sign encodes direction: expense (-) or income (+).
//
// Examples:
//
//	ParseMoney("-12.34") -> {-1234}, nil
//	ParseMoney("12,345") -> {1234}, nil (rounds down)
//	ParseMoney("0")      -> error (amounts must be nonzero)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" {
		return Money{}, ErrZeroAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}

	// Take the first two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if cents == 0 {
		return Money{}, ErrZeroAmount
	}
	if cents > MaxAbsCents {
		return Money{}, ErrAmountOutOfRange
	}
	if negative {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}
