package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
)

func TestSummaryService_Recompute(t *testing.T) {
	repo := newTestStorage(t)
	txnService := NewTransactionService(repo, nil)
	svc := NewSummaryService(repo, nil)
	ctx := context.Background()

	u, expenseCat := seedUserAndCategory(t, repo, core.Expense)
	var incomeCat core.Category
	categories, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	for _, c := range categories {
		if c.Type == string(core.Income) {
			incomeCat = c
			break
		}
	}

	date := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	seed := []core.Transaction{
		{UserID: u.ID, Title: "June salary", Amount: core.Money{Cents: 500000},
			Currency: "USD", Type: core.Income, CategoryID: incomeCat.ID, Date: date},
		{UserID: u.ID, Title: "June rent", Amount: core.Money{Cents: 150000},
			Currency: "USD", Type: core.Expense, CategoryID: expenseCat.ID, Date: date},
		{UserID: u.ID, Title: "June groceries", Amount: core.Money{Cents: 40000},
			Currency: "USD", Type: core.Expense, CategoryID: expenseCat.ID, Date: date},
	}
	if _, err := txnService.BulkCreate(ctx, seed); err != nil {
		t.Fatalf("BulkCreate() error = %v", err)
	}

	summary, err := svc.Recompute(ctx, u.ID, 2025, 6)
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if summary.Income.Cents != 500000 {
		t.Errorf("Income = %d, want 500000", summary.Income.Cents)
	}
	if summary.Expenses.Cents != 190000 {
		t.Errorf("Expenses = %d, want 190000", summary.Expenses.Cents)
	}
	if summary.Net().Cents != 310000 {
		t.Errorf("Net() = %d, want 310000", summary.Net().Cents)
	}

	stored, err := repo.GetMonthlySummary(ctx, u.ID, 2025, 6)
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if stored.Income.Cents != 500000 || stored.Expenses.Cents != 190000 {
		t.Errorf("stored summary = %+v", stored)
	}
}

func TestSummaryService_HandleEvent(t *testing.T) {
	repo := newTestStorage(t)
	txnService := NewTransactionService(repo, nil)
	svc := NewSummaryService(repo, nil)
	ctx := context.Background()

	u, cat := seedUserAndCategory(t, repo, core.Expense)
	created, err := txnService.Create(ctx, core.Transaction{
		UserID: u.ID, Title: "Event-driven expense", Amount: core.Money{Cents: 2500},
		Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
		Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	event := events.NewTransactionEvent(events.TransactionCreated, u.ID, created.ID, 2025, 7)
	if err := svc.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	stored, err := repo.GetMonthlySummary(ctx, u.ID, 2025, 7)
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if stored.Expenses.Cents != 2500 {
		t.Errorf("Expenses = %d, want 2500", stored.Expenses.Cents)
	}

	// Unknown event types are ignored, not failed.
	if err := svc.HandleEvent(ctx, &events.LedgerEvent{Type: "mystery.event"}); err != nil {
		t.Errorf("HandleEvent(unknown) error = %v, want nil", err)
	}
}
