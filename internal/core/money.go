// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents to avoid floating-point drift in
// arithmetic; floats appear only at the conversion and display boundaries.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// tolerates currency symbols and grouping characters, which CSV exports
// commonly carry ("$1,200.00", "€ 12.34"). The result is always positive
// cents; negative, zero or malformed inputs return ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		// Only positive amounts allowed; type carries the sign.
		return 0, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")

	// Strip everything that is not a digit or a separator.
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		} else if unicode.IsLetter(r) {
			// A stray letter means the field is not a number at all.
			return 0, ErrInvalidAmount
		}
	}
	s = b.String()
	if s == "" {
		return 0, ErrInvalidAmount
	}

	s = normalizeSeparators(s)

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
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
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// normalizeSeparators resolves dot vs comma ambiguity. When both appear the
// last one is the decimal point and the other is grouping. A lone comma
// followed by exactly three digits is grouping ("1,200"); any other single
// separator is the decimal point, so "12,34" and "12.345" both parse as
// decimals.
func normalizeSeparators(s string) string {
	last := strings.LastIndexAny(s, ".,")
	if last < 0 {
		return s
	}
	frac := s[last+1:]
	intRaw := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, s[:last])

	single := strings.Count(s, ".")+strings.Count(s, ",") == 1
	if !single {
		return intRaw + "." + frac
	}
	if s[last] == ',' && len(frac) == 3 {
		return intRaw + frac
	}
	return intRaw + "." + frac
}

// FromFloat converts a decimal amount to Money with half-up rounding to
// whole cents. This is the single pinned rounding policy for converted
// display amounts.
func FromFloat(amount float64) Money {
	if amount >= 0 {
		return Money{Cents: int64(amount*100 + 0.5)}
	}
	return Money{Cents: -int64(-amount*100 + 0.5)}
}

// Float64 returns the decimal value for conversion and display purposes.
// Use cents for arithmetic.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// WithinTolerance reports whether two amounts differ by at most one cent,
// the tolerance used for duplicate detection on imports.
func (m Money) WithinTolerance(other Money) bool {
	d := m.Cents - other.Cents
	if d < 0 {
		d = -d
	}
	return d <= 1
}
