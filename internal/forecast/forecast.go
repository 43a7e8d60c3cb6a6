// Package forecast estimates next-month expenses from a user's current
// income, spending and savings using bounded heuristics: the estimate stays
// within a band around current spending, widened during the festival season
// and damped when the savings rate is already high.
package forecast

import (
	"errors"
	"math"
)

// Input is one month of aggregate figures in the user's display currency.
type Input struct {
	Income   float64
	Expenses float64
	Month    int // 1..12
	Savings  float64
}

var (
	ErrNonPositiveIncome = errors.New("income must be positive")
	ErrBadMonth          = errors.New("month must be between 1 and 12")
)

const (
	bandLow       = 0.8
	bandHigh      = 1.2
	festivalHigh  = 1.3 // months 10-12
	minExpensePct = 0.1
	minExpenseAbs = 1000.0
)

// Predict returns the estimated expense total for the following month.
//
// When reported expenses are zero or negative a floor of
// max(10% of income, 1000) substitutes for them. The base estimate grows
// with the spending-to-income ratio and is clamped to 0.8x-1.2x of current
// expenses (1.3x upper bound in months 10-12). A savings rate above 30%
// pulls the estimate down by up to 10%.
func Predict(in Input) (float64, error) {
	if in.Income <= 0 {
		return 0, ErrNonPositiveIncome
	}
	if in.Month < 1 || in.Month > 12 {
		return 0, ErrBadMonth
	}

	expenses := in.Expenses
	if expenses <= 0 {
		expenses = math.Max(in.Income*minExpensePct, minExpenseAbs)
	}

	spendRatio := expenses / in.Income
	estimate := expenses * (1 + 0.1*math.Tanh(spendRatio-0.5))

	high := bandHigh
	if in.Month >= 10 {
		high = festivalHigh
	}
	estimate = clamp(estimate, expenses*bandLow, expenses*high)

	if in.Savings > 0 {
		savingsRate := in.Savings / in.Income
		if savingsRate > 0.3 {
			damp := 1 - math.Min((savingsRate-0.3)*0.5, 0.1)
			estimate *= damp
		}
	}

	// Damping may not push the estimate below the band floor.
	estimate = math.Max(estimate, expenses*bandLow)

	return math.Round(estimate*100) / 100, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
