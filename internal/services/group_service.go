package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var ErrNotGroupMember = errors.New("not a member of this group")

// GroupService handles shared expense groups and equal splits.
type GroupService struct {
	storage *storage.SQLiteRepository
}

func NewGroupService(storage *storage.SQLiteRepository) *GroupService {
	return &GroupService{storage: storage}
}

// CreateGroup creates a group with a fresh invite code. The owner becomes
// the first member.
func (s *GroupService) CreateGroup(ctx context.Context, name string, ownerID int64, ownerName string) (core.Group, error) {
	g := core.Group{
		Name:       name,
		InviteCode: newInviteCode(),
		OwnerID:    ownerID,
	}
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}
	return s.storage.CreateGroup(ctx, g, ownerName)
}

// Join adds the user to a group when the invite code belongs to it. A code
// for a different group reads as not found, not as a membership elsewhere.
func (s *GroupService) Join(ctx context.Context, groupID int64, inviteCode string, userID int64, userName string) (core.Group, error) {
	g, err := s.storage.GetGroupByInviteCode(ctx, inviteCode)
	if err != nil {
		return core.Group{}, err
	}
	if g.ID != groupID {
		return core.Group{}, storage.ErrNotFound
	}
	err = s.storage.AddGroupMember(ctx, core.GroupMember{
		GroupID: g.ID,
		UserID:  userID,
		Name:    userName,
	})
	if err != nil {
		return core.Group{}, err
	}
	return g, nil
}

func (s *GroupService) ListGroups(ctx context.Context, userID int64) ([]core.Group, error) {
	return s.storage.ListGroups(ctx, userID)
}

func (s *GroupService) ListMembers(ctx context.Context, groupID, userID int64) ([]core.GroupMember, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.storage.ListGroupMembers(ctx, groupID)
}

// AddExpense records a shared expense split equally among all members. The
// remainder cents go to the first members so the shares always sum to the
// total.
func (s *GroupService) AddExpense(ctx context.Context, gt core.GroupTransaction, paidByID int64) (core.GroupTransaction, error) {
	if err := s.requireMember(ctx, gt.GroupID, paidByID); err != nil {
		return core.GroupTransaction{}, err
	}
	gt.PaidBy = paidByID

	if err := gt.Validate(); err != nil {
		return core.GroupTransaction{}, err
	}

	members, err := s.storage.ListGroupMembers(ctx, gt.GroupID)
	if err != nil {
		return core.GroupTransaction{}, err
	}
	memberIDs := make([]int64, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	shares, err := core.SplitEqual(gt.Amount, memberIDs)
	if err != nil {
		return core.GroupTransaction{}, err
	}
	// The payer's own share is settled from the start.
	for i := range shares {
		if shares[i].MemberID == paidByID {
			shares[i].Settled = true
		}
	}
	gt.Shares = shares

	return s.storage.CreateGroupTransaction(ctx, gt)
}

func (s *GroupService) ListExpenses(ctx context.Context, groupID, userID int64) ([]core.GroupTransaction, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.storage.ListGroupTransactions(ctx, groupID)
}

// Settle marks the user's share of a group transaction as paid back.
func (s *GroupService) Settle(ctx context.Context, shareID, userID int64) error {
	return s.storage.SettleShare(ctx, shareID, userID)
}

// SettleExpense settles the caller's pending share of a group transaction.
// Already-settled shares and other members' shares read as not found.
func (s *GroupService) SettleExpense(ctx context.Context, groupTxnID, userID int64) error {
	return s.storage.SettleShareByTransaction(ctx, groupTxnID, userID)
}

// MemberBalance is the net position of one member across a group's
// transactions. Positive means the group owes them money.
type MemberBalance struct {
	UserID  int64      `json:"userId"`
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

// Balances computes each member's net position from unsettled shares.
func (s *GroupService) Balances(ctx context.Context, groupID, userID int64) ([]MemberBalance, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	members, err := s.storage.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	txns, err := s.storage.ListGroupTransactions(ctx, groupID)
	if err != nil {
		return nil, err
	}

	net := make(map[int64]int64, len(members))
	for _, gt := range txns {
		for _, share := range gt.Shares {
			if share.Settled {
				continue
			}
			// Debtor owes the payer.
			net[share.MemberID] -= share.Amount.Cents
			net[gt.PaidBy] += share.Amount.Cents
		}
	}

	balances := make([]MemberBalance, len(members))
	for i, m := range members {
		balances[i] = MemberBalance{
			UserID:  m.UserID,
			Name:    m.Name,
			Balance: core.Money{Cents: net[m.UserID]},
		}
	}
	return balances, nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID, userID int64) error {
	isMember, err := s.storage.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}
	return nil
}

func newInviteCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
