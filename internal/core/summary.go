package core

// CategoryAmount is one row of a per-category breakdown.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Amount     Money
}

// MonthSummary aggregates one calendar month of a user's ledger, with all
// amounts normalized to the user's display currency.
type MonthSummary struct {
	Year       int
	Month      int
	Currency   string
	Income     Money
	Expenses   Money
	ByCategory []CategoryAmount
}

// Net returns income minus expenses for the month.
func (s MonthSummary) Net() Money {
	return Money{Cents: s.Income.Cents - s.Expenses.Cents}
}
