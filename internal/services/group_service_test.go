package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestGroupService_Flow(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewGroupService(repo)
	ctx := context.Background()

	owner, cat := seedUserAndCategory(t, repo, core.Expense)
	friend, err := repo.CreateUser(ctx, "friend-"+t.Name()+"@example.com", "Friend", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	g, err := svc.CreateGroup(ctx, "Road trip", owner.ID, owner.Name)
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if g.InviteCode == "" {
		t.Fatal("CreateGroup() generated no invite code")
	}

	joined, err := svc.Join(ctx, g.ID, g.InviteCode, friend.ID, friend.Name)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if joined.ID != g.ID {
		t.Errorf("Join() group id = %d, want %d", joined.ID, g.ID)
	}
	if _, err := svc.Join(ctx, g.ID, "NOPE1234", friend.ID, friend.Name); err == nil {
		t.Error("Join() with bad invite code should fail")
	}
	if _, err := svc.Join(ctx, g.ID+1, g.InviteCode, friend.ID, friend.Name); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Join() with mismatched group id error = %v, want ErrNotFound", err)
	}

	members, err := svc.ListMembers(ctx, g.ID, owner.ID)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("ListMembers() len = %d, want 2", len(members))
	}

	gt, err := svc.AddExpense(ctx, core.GroupTransaction{
		GroupID:    g.ID,
		Title:      "Gas and tolls",
		Amount:     core.Money{Cents: 10001},
		Currency:   "USD",
		CategoryID: cat.ID,
		Date:       time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
	}, owner.ID)
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if len(gt.Shares) != 2 {
		t.Fatalf("AddExpense() shares = %d, want 2", len(gt.Shares))
	}

	var payerShare, friendShare core.Share
	for _, share := range gt.Shares {
		if share.MemberID == owner.ID {
			payerShare = share
		} else {
			friendShare = share
		}
	}
	if !payerShare.Settled {
		t.Error("payer's own share should start settled")
	}
	if friendShare.Settled {
		t.Error("friend's share should start unsettled")
	}

	balances, err := svc.Balances(ctx, g.ID, owner.ID)
	if err != nil {
		t.Fatalf("Balances() error = %v", err)
	}
	byUser := map[int64]int64{}
	for _, b := range balances {
		byUser[b.UserID] = b.Balance.Cents
	}
	if byUser[owner.ID] != friendShare.Amount.Cents {
		t.Errorf("owner balance = %d, want %d", byUser[owner.ID], friendShare.Amount.Cents)
	}
	if byUser[friend.ID] != -friendShare.Amount.Cents {
		t.Errorf("friend balance = %d, want %d", byUser[friend.ID], -friendShare.Amount.Cents)
	}

	if err := svc.Settle(ctx, friendShare.ID, friend.ID); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	balances, err = svc.Balances(ctx, g.ID, owner.ID)
	if err != nil {
		t.Fatalf("Balances() after settle error = %v", err)
	}
	for _, b := range balances {
		if b.Balance.Cents != 0 {
			t.Errorf("balance for %s = %d after full settle, want 0", b.Name, b.Balance.Cents)
		}
	}
}

func TestGroupService_NonMemberRejected(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewGroupService(repo)
	ctx := context.Background()

	owner, cat := seedUserAndCategory(t, repo, core.Expense)
	outsider, err := repo.CreateUser(ctx, "outsider-"+t.Name()+"@example.com", "Outsider", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	g, err := svc.CreateGroup(ctx, "Private dinner club", owner.ID, owner.Name)
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	if _, err := svc.ListExpenses(ctx, g.ID, outsider.ID); !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("ListExpenses(outsider) error = %v, want ErrNotGroupMember", err)
	}
	if _, err := svc.AddExpense(ctx, core.GroupTransaction{
		GroupID: g.ID, Title: "Sneaky expense", Amount: core.Money{Cents: 100},
		Currency: "USD", CategoryID: cat.ID,
		Date: time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC),
	}, outsider.ID); !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("AddExpense(outsider) error = %v, want ErrNotGroupMember", err)
	}
}
