package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	repo := newTestStorage(t)
	txnService := NewTransactionService(repo, nil)
	processor := NewRecurringProcessor(repo, txnService)
	ctx := context.Background()
	u, cat := seedUserAndCategory(t, repo, core.Expense)

	rt, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:     u.ID,
		Title:      "Streaming subscription",
		Amount:     core.Money{Cents: 1499},
		Currency:   "USD",
		Type:       core.Expense,
		CategoryID: cat.ID,
		Frequency:  core.Monthly,
		StartDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	count, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("ProcessDue() count = %d, want 1", count)
	}

	txns, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("materialized %d transactions, want 1", len(txns))
	}
	if txns[0].RecurringID != rt.ID {
		t.Errorf("RecurringID = %d, want %d", txns[0].RecurringID, rt.ID)
	}
	if txns[0].Title != "Streaming subscription" || txns[0].Amount.Cents != 1499 {
		t.Errorf("materialized transaction = %+v", txns[0])
	}
	if want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC); !txns[0].Date.Equal(want) {
		t.Errorf("materialized date = %v, want the scheduled date %v", txns[0].Date, want)
	}

	// Same month again: nothing new.
	count, err = processor.ProcessDue(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ProcessDue(again) error = %v", err)
	}
	if count != 0 {
		t.Errorf("ProcessDue(same month) count = %d, want 0", count)
	}

	// Next month on the target day: one more.
	count, err = processor.ProcessDue(ctx, time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue(next month) error = %v", err)
	}
	if count != 1 {
		t.Errorf("ProcessDue(next month) count = %d, want 1", count)
	}
}

func TestRecurringProcessor_RespectsWindow(t *testing.T) {
	repo := newTestStorage(t)
	txnService := NewTransactionService(repo, nil)
	processor := NewRecurringProcessor(repo, txnService)
	ctx := context.Background()
	u, cat := seedUserAndCategory(t, repo, core.Expense)

	// Starts in the future.
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID: u.ID, Title: "Future gym plan", Amount: core.Money{Cents: 3000},
		Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
		Frequency: core.Monthly,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	// Already ended.
	if _, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID: u.ID, Title: "Old magazine", Amount: core.Money{Cents: 500},
		Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
		Frequency: core.Monthly,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	count, err := processor.ProcessDue(ctx, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 0 {
		t.Errorf("ProcessDue() count = %d, want 0 for out-of-window series", count)
	}
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	processor := NewRecurringProcessor(nil, nil)
	if _, err := processor.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Error("ProcessDue() on uninitialized processor should fail")
	}
}

func TestNextDue(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	series := func(freq core.Frequency, start, end, last time.Time) core.RecurringTransaction {
		return core.RecurringTransaction{
			Frequency: freq, StartDate: start, EndDate: end, LastProcessed: last,
		}
	}

	var none time.Time
	// Weekly grid anchored on Monday Jan 6.
	weekly := day(2025, time.January, 6)

	tests := []struct {
		name string
		rt   core.RecurringTransaction
		now  time.Time
		want time.Time
		due  bool
	}{
		{
			"daily posted today is not due",
			series(core.Daily, day(2025, 1, 1), none, day(2025, 1, 10)),
			day(2025, 1, 10), none, false,
		},
		{
			"daily posted yesterday is due today",
			series(core.Daily, day(2025, 1, 1), none, day(2025, 1, 9)),
			day(2025, 1, 10), day(2025, 1, 10), true,
		},
		{
			"weekly stays on its weekday after a missed run",
			// Last posted Mon Jan 13, worker down until Thu Jan 23:
			// the due occurrence is Mon Jan 20, not Thursday.
			series(core.Weekly, weekly, none, day(2025, time.January, 13)),
			day(2025, time.January, 23),
			day(2025, time.January, 20), true,
		},
		{
			"weekly mid-cycle is not due",
			series(core.Weekly, weekly, none, day(2025, time.January, 13)),
			day(2025, time.January, 17), none, false,
		},
		{
			"never materialized posts the latest grid date, not the start",
			series(core.Weekly, weekly, none, none),
			day(2025, time.January, 23),
			day(2025, time.January, 20), true,
		},
		{
			"monthly end-of-month clamps to February",
			series(core.Monthly, day(2025, time.January, 31), none, day(2025, time.January, 31)),
			day(2025, time.February, 28),
			day(2025, time.February, 28), true,
		},
		{
			"monthly already posted this cycle",
			series(core.Monthly, day(2025, 1, 15), none, day(2025, 3, 15)),
			day(2025, 3, 20), none, false,
		},
		{
			"yearly due on the anniversary",
			series(core.Yearly, day(2023, time.June, 1), none, day(2024, time.June, 1)),
			day(2025, time.June, 1),
			day(2025, time.June, 1), true,
		},
		{
			"exhausted series past its end date",
			series(core.Monthly, day(2024, 1, 15), day(2024, 6, 30), day(2024, 6, 15)),
			day(2024, 8, 1), none, false,
		},
		{
			"start in the future",
			series(core.Daily, day(2025, 9, 1), none, none),
			day(2025, 5, 1), none, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, due := nextDue(tt.rt, tt.now)
			if due != tt.due {
				t.Fatalf("nextDue() due = %v, want %v", due, tt.due)
			}
			if due && !got.Equal(tt.want) {
				t.Errorf("nextDue() = %v, want %v", got, tt.want)
			}
		})
	}
}
