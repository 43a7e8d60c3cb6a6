package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// CategoryBoth marks categories usable for both incomes and expenses.
const CategoryBoth = "both"

type (
	TransactionType string

	Frequency string

	Money struct {
		Cents int64 `json:"cents"`
	}

	Transaction struct {
		ID          int64
		UserID      int64
		Title       string
		Description string
		Amount      Money
		Currency    string
		Type        TransactionType
		CategoryID  int64
		Date        time.Time
		RecurringID int64 // zero unless materialized from a recurring series
		CreatedAt   time.Time
	}

	RecurringTransaction struct {
		ID            int64
		UserID        int64
		Title         string
		Amount        Money
		Currency      string
		Type          TransactionType
		CategoryID    int64
		Frequency     Frequency
		StartDate     time.Time
		EndDate       time.Time // zero when the series is open-ended
		LastProcessed time.Time // zero when never materialized
	}

	Category struct {
		ID        int64
		UserID    int64
		Name      string
		Type      string // "income", "expense" or "both"
		Color     string
		Icon      string
		IsDefault bool
	}

	User struct {
		ID           int64
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	UserSettings struct {
		UserID          int64
		Currency        string
		BudgetLimit     Money
		SavingsGoal     Money
		NotifyBudget    bool
		NotifyRecurring bool
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrTitleTooShort    = errors.New("title must be at least 3 characters")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrMissingCategory  = errors.New("category is required")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEndBeforeStart   = errors.New("end date must not be before start date")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidCurrency reports whether code looks like an ISO 4217 alphabetic code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) < 3 {
		return ErrTitleTooShort
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !ValidCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if len(strings.TrimSpace(rt.Title)) < 3 {
		return ErrTitleTooShort
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if !rt.Type.Valid() {
		return ErrInvalidType
	}
	if !ValidCurrency(rt.Currency) {
		return ErrInvalidCurrency
	}
	if rt.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if !rt.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if rt.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !rt.EndDate.IsZero() && rt.EndDate.Before(rt.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	switch c.Type {
	case string(Income), string(Expense), CategoryBoth:
		return nil
	}
	return errors.New("category type must be income, expense or both")
}

// AllowsType reports whether a category may be attached to transactions
// of the given type.
func (c Category) AllowsType(t TransactionType) bool {
	return c.Type == CategoryBoth || c.Type == string(t)
}

// Signed returns the amount with the display sign convention applied:
// positive for incomes, negative for expenses.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

// SameDay reports whether two instants fall on the same calendar day in UTC.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
