package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

const transactionColumns = `id, user_id, title, description, amount_cents, currency, type, category_id, occurred_on, COALESCE(recurring_id, 0), created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var occurredOn, createdAt string
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Amount.Cents,
		&t.Currency, &t.Type, &t.CategoryID, &occurredOn, &t.RecurringID, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = parseDate(occurredOn)
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var created core.Transaction
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = insertTransaction(ctx, tx, t)
		return err
	})
	return created, err
}

// CreateTransactions inserts all transactions atomically. Either every row
// is written or none are.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	created := make([]core.Transaction, 0, len(txns))
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range txns {
			c, err := insertTransaction(ctx, tx, t)
			if err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	var recurringID any
	if t.RecurringID != 0 {
		recurringID = t.RecurringID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, title, description, amount_cents, currency, type, category_id, occurred_on, recurring_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Description, t.Amount.Cents, t.Currency, t.Type,
		t.CategoryID, formatDate(t.Date), recurringID, t.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all of a user's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsByMonth returns a user's transactions dated within the
// given calendar month.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, userID int64, year, month int) ([]core.Transaction, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND occurred_on >= ? AND occurred_on < ?
		 ORDER BY occurred_on DESC, id DESC`,
		userID, formatDate(first), formatDate(next))
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// DeleteTransactions removes the given transactions atomically. It fails
// without deleting anything if any id does not belong to the user.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, ids []int64, userID int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, userID)

	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id IN (`+placeholders+`) AND user_id = ?`, args...)
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("delete transactions: %d of %d rows matched: %w", n, len(ids), ErrNotFound)
		}
		return nil
	})
}
