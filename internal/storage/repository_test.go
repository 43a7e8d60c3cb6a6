package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), email, "Test User", "$2a$10$hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func expenseCategory(t *testing.T, repo *SQLiteRepository, userID int64) core.Category {
	t.Helper()
	categories, err := repo.ListCategories(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	for _, c := range categories {
		if c.Type == string(core.Expense) && c.IsDefault {
			return c
		}
	}
	t.Fatal("no default expense category seeded")
	return core.Category{}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, repo, "alice@example.com")
	if u.ID == 0 {
		t.Fatal("CreateUser() returned zero id")
	}

	got, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Errorf("GetUserByEmail() = %+v, want %+v", got, u)
	}

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := repo.CreateUser(ctx, "alice@example.com", "Dup", "hash"); err == nil {
		t.Error("CreateUser() with duplicate email should fail")
	}
}

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "settings@example.com")

	s, err := repo.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if s.Currency != "USD" {
		t.Errorf("default currency = %s, want USD", s.Currency)
	}
	if !s.NotifyBudget || !s.NotifyRecurring {
		t.Error("default notifications should be enabled")
	}

	s.Currency = "EUR"
	s.BudgetLimit = core.Money{Cents: 250000}
	s.NotifyBudget = false
	if err := repo.UpsertSettings(ctx, s); err != nil {
		t.Fatalf("UpsertSettings() error = %v", err)
	}

	got, err := repo.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetSettings() after upsert error = %v", err)
	}
	if got.Currency != "EUR" || got.BudgetLimit.Cents != 250000 || got.NotifyBudget {
		t.Errorf("GetSettings() = %+v, want EUR/250000/budget off", got)
	}
}

func TestCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "cat@example.com")

	defaults, err := repo.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(defaults) == 0 {
		t.Fatal("expected seeded default categories")
	}
	for _, c := range defaults {
		if !c.IsDefault {
			t.Errorf("category %q should be default before user creates any", c.Name)
		}
	}

	created, err := repo.CreateCategory(ctx, core.Category{
		UserID: u.ID, Name: "Pets", Type: string(core.Expense), Color: "#795548", Icon: "paw",
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if created.ID == 0 || created.IsDefault {
		t.Errorf("CreateCategory() = %+v, want non-default with id", created)
	}

	created.Name = "Pet Care"
	if err := repo.UpdateCategory(ctx, created); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	// Default categories are immutable.
	def := defaults[0]
	def.UserID = u.ID
	if err := repo.UpdateCategory(ctx, def); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCategory(default) error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteCategory(ctx, def.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteCategory(default) error = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteCategory(ctx, created.ID, u.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
}

func TestTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "txn@example.com")
	cat := expenseCategory(t, repo, u.ID)

	txn := core.Transaction{
		UserID:     u.ID,
		Title:      "Weekly groceries",
		Amount:     core.Money{Cents: 4550},
		Currency:   "USD",
		Type:       core.Expense,
		CategoryID: cat.ID,
		Date:       time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	created, err := repo.CreateTransaction(ctx, txn)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateTransaction() returned zero id")
	}

	got, err := repo.GetTransaction(ctx, created.ID, u.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Title != txn.Title || got.Amount.Cents != 4550 || !got.Date.Equal(txn.Date) {
		t.Errorf("GetTransaction() = %+v, want %+v", got, txn)
	}

	// Other users cannot see it.
	other := seedUser(t, repo, "other@example.com")
	if _, err := repo.GetTransaction(ctx, created.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction(other user) error = %v, want ErrNotFound", err)
	}

	byMonth, err := repo.ListTransactionsByMonth(ctx, u.ID, 2025, 3)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth() error = %v", err)
	}
	if len(byMonth) != 1 {
		t.Errorf("ListTransactionsByMonth() len = %d, want 1", len(byMonth))
	}
	empty, err := repo.ListTransactionsByMonth(ctx, u.ID, 2025, 4)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth(empty) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListTransactionsByMonth(empty) len = %d, want 0", len(empty))
	}
}

func TestCreateTransactions_Atomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "bulk@example.com")
	cat := expenseCategory(t, repo, u.ID)

	good := core.Transaction{
		UserID: u.ID, Title: "Coffee beans", Amount: core.Money{Cents: 1299},
		Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
		Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	bad := good
	bad.CategoryID = 999999 // violates FK

	if _, err := repo.CreateTransactions(ctx, []core.Transaction{good, bad}); err == nil {
		t.Fatal("CreateTransactions() with invalid row should fail")
	}

	remaining, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("failed bulk insert left %d rows, want 0", len(remaining))
	}

	created, err := repo.CreateTransactions(ctx, []core.Transaction{good, good})
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("CreateTransactions() len = %d, want 2", len(created))
	}
}

func TestDeleteTransactions_Atomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "del@example.com")
	cat := expenseCategory(t, repo, u.ID)

	var ids []int64
	for i := 0; i < 3; i++ {
		created, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID: u.ID, Title: "Bulk delete row", Amount: core.Money{Cents: 100},
			Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
			Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
		ids = append(ids, created.ID)
	}

	// One foreign id poisons the whole batch.
	if err := repo.DeleteTransactions(ctx, []int64{ids[0], 999999}, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteTransactions(foreign id) error = %v, want ErrNotFound", err)
	}
	all, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("partial delete happened: %d rows left, want 3", len(all))
	}

	if err := repo.DeleteTransactions(ctx, ids, u.ID); err != nil {
		t.Fatalf("DeleteTransactions() error = %v", err)
	}
	none, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListTransactions() after delete len = %d, want 0", len(none))
	}
}

func TestRecurring(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "rec@example.com")
	cat := expenseCategory(t, repo, u.ID)

	rt := core.RecurringTransaction{
		UserID:     u.ID,
		Title:      "Apartment rent",
		Amount:     core.Money{Cents: 120000},
		Currency:   "USD",
		Type:       core.Expense,
		CategoryID: cat.ID,
		Frequency:  core.Monthly,
		StartDate:  time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	created, err := repo.CreateRecurring(ctx, rt)
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	got, err := repo.GetRecurring(ctx, created.ID, u.ID)
	if err != nil {
		t.Fatalf("GetRecurring() error = %v", err)
	}
	if !got.EndDate.IsZero() {
		t.Errorf("open-ended series EndDate = %v, want zero", got.EndDate)
	}
	if !got.LastProcessed.IsZero() {
		t.Errorf("fresh series LastProcessed = %v, want zero", got.LastProcessed)
	}

	processed := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if err := repo.MarkRecurringProcessed(ctx, created.ID, processed); err != nil {
		t.Fatalf("MarkRecurringProcessed() error = %v", err)
	}
	got, err = repo.GetRecurring(ctx, created.ID, u.ID)
	if err != nil {
		t.Fatalf("GetRecurring() error = %v", err)
	}
	if !got.LastProcessed.Equal(processed) {
		t.Errorf("LastProcessed = %v, want %v", got.LastProcessed, processed)
	}

	// A series that ended before asOf is excluded from the active list.
	ended := rt
	ended.Title = "Old gym membership"
	ended.EndDate = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := repo.CreateRecurring(ctx, ended); err != nil {
		t.Fatalf("CreateRecurring(ended) error = %v", err)
	}

	active, err := repo.ListActiveRecurring(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListActiveRecurring() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != created.ID {
		t.Errorf("ListActiveRecurring() = %+v, want only the open-ended series", active)
	}

	if err := repo.DeleteRecurring(ctx, created.ID, u.ID); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}
	if _, err := repo.GetRecurring(ctx, created.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecurring(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestGroups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, repo, "owner@example.com")
	friend := seedUser(t, repo, "friend@example.com")
	cat := expenseCategory(t, repo, owner.ID)

	g, err := repo.CreateGroup(ctx, core.Group{
		Name: "Ski trip", InviteCode: "SKI-2025", OwnerID: owner.ID,
	}, owner.Name)
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	byCode, err := repo.GetGroupByInviteCode(ctx, "SKI-2025")
	if err != nil {
		t.Fatalf("GetGroupByInviteCode() error = %v", err)
	}
	if byCode.ID != g.ID {
		t.Errorf("GetGroupByInviteCode() id = %d, want %d", byCode.ID, g.ID)
	}

	if err := repo.AddGroupMember(ctx, core.GroupMember{GroupID: g.ID, UserID: friend.ID, Name: friend.Name}); err != nil {
		t.Fatalf("AddGroupMember() error = %v", err)
	}
	members, err := repo.ListGroupMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListGroupMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("ListGroupMembers() len = %d, want 2 (owner auto-joins)", len(members))
	}

	isMember, err := repo.IsGroupMember(ctx, g.ID, friend.ID)
	if err != nil || !isMember {
		t.Errorf("IsGroupMember(friend) = %v, %v; want true, nil", isMember, err)
	}

	shares, err := core.SplitEqual(core.Money{Cents: 9001}, []int64{owner.ID, friend.ID})
	if err != nil {
		t.Fatalf("SplitEqual() error = %v", err)
	}
	gt, err := repo.CreateGroupTransaction(ctx, core.GroupTransaction{
		GroupID: g.ID, Title: "Cabin rental", Amount: core.Money{Cents: 9001},
		Currency: "USD", CategoryID: cat.ID, PaidBy: owner.ID,
		Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), Shares: shares,
	})
	if err != nil {
		t.Fatalf("CreateGroupTransaction() error = %v", err)
	}

	listed, err := repo.ListGroupTransactions(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListGroupTransactions() error = %v", err)
	}
	if len(listed) != 1 || len(listed[0].Shares) != 2 {
		t.Fatalf("ListGroupTransactions() = %+v, want 1 txn with 2 shares", listed)
	}
	var total int64
	for _, s := range listed[0].Shares {
		total += s.Amount.Cents
	}
	if total != 9001 {
		t.Errorf("shares sum to %d, want 9001", total)
	}

	friendShare := gt.Shares[1]
	if err := repo.SettleShare(ctx, friendShare.ID, friendShare.MemberID); err != nil {
		t.Fatalf("SettleShare() error = %v", err)
	}
	// Settling someone else's share is rejected.
	if err := repo.SettleShare(ctx, gt.Shares[0].ID, friend.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("SettleShare(wrong member) error = %v, want ErrNotFound", err)
	}
}

func TestMonthlySummaries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "sum@example.com")

	if _, err := repo.GetMonthlySummary(ctx, u.ID, 2025, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMonthlySummary(missing) error = %v, want ErrNotFound", err)
	}

	s := core.MonthSummary{
		Year: 2025, Month: 1, Currency: "USD",
		Income: core.Money{Cents: 500000}, Expenses: core.Money{Cents: 320000},
	}
	if err := repo.UpsertMonthlySummary(ctx, u.ID, s); err != nil {
		t.Fatalf("UpsertMonthlySummary() error = %v", err)
	}

	s.Expenses.Cents = 340000
	if err := repo.UpsertMonthlySummary(ctx, u.ID, s); err != nil {
		t.Fatalf("UpsertMonthlySummary(update) error = %v", err)
	}

	got, err := repo.GetMonthlySummary(ctx, u.ID, 2025, 1)
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if got.Expenses.Cents != 340000 {
		t.Errorf("Expenses = %d, want 340000 after upsert", got.Expenses.Cents)
	}

	for m := 2; m <= 4; m++ {
		s.Month = m
		if err := repo.UpsertMonthlySummary(ctx, u.ID, s); err != nil {
			t.Fatalf("UpsertMonthlySummary(month %d) error = %v", m, err)
		}
	}
	listed, err := repo.ListMonthlySummaries(ctx, u.ID, 3)
	if err != nil {
		t.Fatalf("ListMonthlySummaries() error = %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("ListMonthlySummaries() len = %d, want 3", len(listed))
	}
	if listed[0].Month >= listed[1].Month {
		t.Errorf("ListMonthlySummaries() not oldest-first: %+v", listed)
	}
}

func TestCategoryTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "totals@example.com")
	cat := expenseCategory(t, repo, u.ID)

	for _, cents := range []int64{1000, 2500} {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID: u.ID, Title: "Totals row", Amount: core.Money{Cents: cents},
			Currency: "USD", Type: core.Expense, CategoryID: cat.ID,
			Date: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	totals, err := repo.CategoryTotals(ctx, u.ID, 2025, 7, core.Expense)
	if err != nil {
		t.Fatalf("CategoryTotals() error = %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("CategoryTotals() len = %d, want 1", len(totals))
	}
	if totals[0].Amount.Cents != 3500 || totals[0].CategoryID != cat.ID {
		t.Errorf("CategoryTotals() = %+v, want 3500 cents for category %d", totals[0], cat.ID)
	}
}
