package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// isUniqueViolation matches SQLite unique-constraint failures. The driver
// has no typed error for them, so the message is the contract.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Pragmas go on the DSN so every pooled connection gets them.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// parseDate accepts the DATE column format and falls back to RFC3339.
func parseDate(s string) time.Time {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// --- Users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, name, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, now.Format(timeLayout))
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("user %s: %w", email, ErrDuplicate)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return core.User{ID: id, Email: email, Name: name, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, id int64, name, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, password_hash = ? WHERE id = ?`,
		name, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes the account and everything cascading from it. Group
// ownership and paid group expenses do not cascade; the delete fails while
// those rows exist.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

// --- Settings ---

// GetSettings returns stored settings, or defaults when the user has none yet.
func (r *SQLiteRepository) GetSettings(ctx context.Context, userID int64) (core.UserSettings, error) {
	s := core.UserSettings{UserID: userID, Currency: "USD", NotifyBudget: true, NotifyRecurring: true}
	var notifyBudget, notifyRecurring int
	err := r.db.QueryRowContext(ctx,
		`SELECT currency, budget_cents, savings_cents, notify_budget, notify_recurring
		 FROM user_settings WHERE user_id = ?`, userID).
		Scan(&s.Currency, &s.BudgetLimit.Cents, &s.SavingsGoal.Cents, &notifyBudget, &notifyRecurring)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	s.NotifyBudget = notifyBudget != 0
	s.NotifyRecurring = notifyRecurring != 0
	return s, nil
}

func (r *SQLiteRepository) UpsertSettings(ctx context.Context, s core.UserSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, currency, budget_cents, savings_cents, notify_budget, notify_recurring, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   currency = excluded.currency,
		   budget_cents = excluded.budget_cents,
		   savings_cents = excluded.savings_cents,
		   notify_budget = excluded.notify_budget,
		   notify_recurring = excluded.notify_recurring,
		   updated_at = excluded.updated_at`,
		s.UserID, s.Currency, s.BudgetLimit.Cents, s.SavingsGoal.Cents,
		boolInt(s.NotifyBudget), boolInt(s.NotifyRecurring), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Categories ---

const categoryColumns = `id, COALESCE(user_id, 0), name, type, color, icon, is_default`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var isDefault int
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.Icon, &isDefault); err != nil {
		return core.Category{}, err
	}
	c.IsDefault = isDefault != 0
	return c, nil
}

// ListCategories returns the seeded defaults plus the user's own categories.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY is_default DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id, userID int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, color, icon, is_default) VALUES (?, ?, ?, ?, ?, 0)`,
		c.UserID, c.Name, c.Type, c.Color, c.Icon)
	if isUniqueViolation(err) {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ErrDuplicate)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.IsDefault = false
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, color = ?, icon = ?
		 WHERE id = ? AND user_id = ? AND is_default = 0`,
		c.Name, c.Type, c.Color, c.Icon, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeleteCategory removes a user-defined category. Default categories cannot
// be deleted.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = 0`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
