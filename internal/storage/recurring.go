package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const recurringColumns = `id, user_id, title, amount_cents, currency, type, category_id, frequency, start_date, COALESCE(end_date, ''), COALESCE(last_processed, '')`

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringTransaction, error) {
	var rt core.RecurringTransaction
	var startDate, endDate, lastProcessed string
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Title, &rt.Amount.Cents, &rt.Currency,
		&rt.Type, &rt.CategoryID, &rt.Frequency, &startDate, &endDate, &lastProcessed)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.StartDate = parseDate(startDate)
	if endDate != "" {
		rt.EndDate = parseDate(endDate)
	}
	if lastProcessed != "" {
		rt.LastProcessed = parseDate(lastProcessed)
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	var endDate any
	if !rt.EndDate.IsZero() {
		endDate = formatDate(rt.EndDate)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (user_id, title, amount_cents, currency, type, category_id, frequency, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.UserID, rt.Title, rt.Amount.Cents, rt.Currency, rt.Type, rt.CategoryID,
		rt.Frequency, formatDate(rt.StartDate), endDate, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}
	rt.ID, err = res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring id: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id, userID int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	rt, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTransaction{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("get recurring transaction: %w", err)
	}
	return rt, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions
		 WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListActiveRecurring returns every series across all users that has not
// ended as of the given date. Used by the materialization worker.
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context, asOf time.Time) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_transactions
		 WHERE end_date IS NULL OR end_date >= ?
		 ORDER BY user_id, id`, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var series []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		series = append(series, rt)
	}
	return series, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	var endDate any
	if !rt.EndDate.IsZero() {
		endDate = formatDate(rt.EndDate)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET title = ?, amount_cents = ?, currency = ?, type = ?, category_id = ?,
		     frequency = ?, start_date = ?, end_date = ?
		 WHERE id = ? AND user_id = ?`,
		rt.Title, rt.Amount.Cents, rt.Currency, rt.Type, rt.CategoryID,
		rt.Frequency, formatDate(rt.StartDate), endDate, rt.ID, rt.UserID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

// MarkRecurringProcessed records the date of the last materialized
// occurrence so the worker does not double-post.
func (r *SQLiteRepository) MarkRecurringProcessed(ctx context.Context, id int64, processed time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_processed = ? WHERE id = ?`,
		formatDate(processed), id)
	if err != nil {
		return fmt.Errorf("mark recurring processed: %w", err)
	}
	return requireRow(res)
}
