// Package currency normalizes amounts between currencies using
// periodically-fetched exchange-rate snapshots.
//
// Rates are expressed relative to a common base, so converting between two
// arbitrary currencies is rates[to]/rates[from]. Conversion failures are
// never fatal: callers that cannot obtain rates fall back to the original
// amount and log a warning, leaving totals cosmetically wrong until the next
// successful fetch.
package currency

import (
	"fmt"
	"time"
)

// RateTable maps currency codes to multipliers relative to a base currency.
type RateTable map[string]float64

// Snapshot is one fetch of exchange rates. It is transient: re-fetched on
// demand, kept only in the in-memory cache.
type Snapshot struct {
	Base      string
	Rates     RateTable
	FetchedAt time.Time
}

// Convert translates amount from one currency to another using the given
// rate table. Identical codes return the amount unchanged without touching
// the table at all.
func Convert(amount float64, from, to string, rates RateTable) (float64, error) {
	if from == to {
		return amount, nil
	}
	rf, ok := rates[from]
	if !ok || rf <= 0 {
		return 0, fmt.Errorf("no usable rate for %s", from)
	}
	rt, ok := rates[to]
	if !ok || rt <= 0 {
		return 0, fmt.Errorf("no usable rate for %s", to)
	}
	return amount * rt / rf, nil
}

// Rate returns the multiplier for converting from one currency to another.
func (s Snapshot) Rate(from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	rf, ok := s.Rates[from]
	if !ok || rf <= 0 {
		return 0, fmt.Errorf("no usable rate for %s", from)
	}
	rt, ok := s.Rates[to]
	if !ok || rt <= 0 {
		return 0, fmt.Errorf("no usable rate for %s", to)
	}
	return rt / rf, nil
}
