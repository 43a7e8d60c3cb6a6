package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUserAndCategory(t *testing.T, repo *storage.SQLiteRepository, txnType core.TransactionType) (core.User, core.Category) {
	t.Helper()
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "svc-"+t.Name()+"@example.com", "Svc User", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	categories, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	for _, c := range categories {
		if c.Type == string(txnType) {
			return u, c
		}
	}
	t.Fatalf("no default %s category", txnType)
	return core.User{}, core.Category{}
}

func TestTransactionService_Create(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()
	u, cat := seedUserAndCategory(t, repo, core.Expense)

	created, err := svc.Create(ctx, core.Transaction{
		UserID:     u.ID,
		Title:      "Grocery run",
		Amount:     core.Money{Cents: 5499},
		Currency:   "USD",
		Type:       core.Expense,
		CategoryID: cat.ID,
		Date:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() returned zero id")
	}
}

func TestTransactionService_Create_Invalid(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()
	u, expenseCat := seedUserAndCategory(t, repo, core.Expense)

	base := core.Transaction{
		UserID:     u.ID,
		Title:      "Some purchase",
		Amount:     core.Money{Cents: 1000},
		Currency:   "USD",
		Type:       core.Expense,
		CategoryID: expenseCat.ID,
		Date:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	t.Run("zero amount", func(t *testing.T) {
		tx := base
		tx.Amount.Cents = 0
		if _, err := svc.Create(ctx, tx); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Create() error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("short title", func(t *testing.T) {
		tx := base
		tx.Title = "ab"
		if _, err := svc.Create(ctx, tx); !errors.Is(err, core.ErrTitleTooShort) {
			t.Errorf("Create() error = %v, want ErrTitleTooShort", err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		tx := base
		tx.CategoryID = 999999
		if _, err := svc.Create(ctx, tx); !errors.Is(err, core.ErrMissingCategory) {
			t.Errorf("Create() error = %v, want ErrMissingCategory", err)
		}
	})

	t.Run("income into expense-only category", func(t *testing.T) {
		tx := base
		tx.Type = core.Income
		_, err := svc.Create(ctx, tx)
		if err == nil || !strings.Contains(err.Error(), "does not allow") {
			t.Errorf("Create() error = %v, want category mismatch", err)
		}
	})
}

func TestTransactionService_BulkCreate_ValidatesUpFront(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()
	u, cat := seedUserAndCategory(t, repo, core.Expense)

	good := core.Transaction{
		UserID: u.ID, Title: "Bulk item", Amount: core.Money{Cents: 500},
		Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
		Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	bad := good
	bad.Amount.Cents = -1

	if _, err := svc.BulkCreate(ctx, []core.Transaction{good, bad}); err == nil {
		t.Fatal("BulkCreate() with invalid row should fail")
	}

	txns, err := svc.List(ctx, u.ID, core.Filter{}, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("failed bulk left %d rows, want 0", len(txns))
	}
}

func TestTransactionService_DeleteAndList(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewTransactionService(repo, nil)
	ctx := context.Background()
	u, cat := seedUserAndCategory(t, repo, core.Expense)

	var ids []int64
	for _, cents := range []int64{100, 200, 300} {
		created, err := svc.Create(ctx, core.Transaction{
			UserID: u.ID, Title: "List item", Amount: core.Money{Cents: cents},
			Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
			Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, created.ID)
	}

	if err := svc.Delete(ctx, ids[0], u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, ids[0], u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete(twice) error = %v, want ErrNotFound", err)
	}

	filtered, err := svc.List(ctx, u.ID, core.TypeFilter(core.Expense), nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("List() len = %d, want 2", len(filtered))
	}

	if err := svc.BulkDelete(ctx, ids[1:], u.ID); err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	remaining, err := svc.List(ctx, u.ID, core.Filter{}, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("List() after BulkDelete len = %d, want 0", len(remaining))
	}
}
