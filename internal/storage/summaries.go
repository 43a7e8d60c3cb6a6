package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// UpsertMonthlySummary replaces the precomputed totals for one user-month.
func (r *SQLiteRepository) UpsertMonthlySummary(ctx context.Context, userID int64, s core.MonthSummary) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_summaries (user_id, year, month, currency, income_cents, expense_cents, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, year, month) DO UPDATE SET
		   currency = excluded.currency,
		   income_cents = excluded.income_cents,
		   expense_cents = excluded.expense_cents,
		   updated_at = excluded.updated_at`,
		userID, s.Year, s.Month, s.Currency, s.Income.Cents, s.Expenses.Cents,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert monthly summary: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	s := core.MonthSummary{Year: year, Month: month}
	err := r.db.QueryRowContext(ctx,
		`SELECT currency, income_cents, expense_cents FROM monthly_summaries
		 WHERE user_id = ? AND year = ? AND month = ?`, userID, year, month).
		Scan(&s.Currency, &s.Income.Cents, &s.Expenses.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthSummary{}, ErrNotFound
	}
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("get monthly summary: %w", err)
	}
	return s, nil
}

// ListMonthlySummaries returns a user's precomputed months, oldest first.
func (r *SQLiteRepository) ListMonthlySummaries(ctx context.Context, userID int64, limit int) ([]core.MonthSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, currency, income_cents, expense_cents
		 FROM monthly_summaries WHERE user_id = ?
		 ORDER BY year DESC, month DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list monthly summaries: %w", err)
	}
	defer rows.Close()

	var summaries []core.MonthSummary
	for rows.Next() {
		var s core.MonthSummary
		if err := rows.Scan(&s.Year, &s.Month, &s.Currency, &s.Income.Cents, &s.Expenses.Cents); err != nil {
			return nil, fmt.Errorf("scan monthly summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to oldest-first for chart-style consumers
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}
	return summaries, nil
}

// CategoryTotals sums a month's transactions per category in their stored
// currency. Conversion to the display currency happens in the service layer.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, userID int64, year, month int, txnType core.TransactionType) ([]core.CategoryAmount, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.category_id, c.name, SUM(t.amount_cents)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.type = ? AND t.occurred_on >= ? AND t.occurred_on < ?
		 GROUP BY t.category_id, c.name
		 ORDER BY SUM(t.amount_cents) DESC`,
		userID, txnType, formatDate(first), formatDate(next))
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ca)
	}
	return totals, rows.Err()
}

// ListUserIDs returns every user id, for workers that walk all accounts.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
