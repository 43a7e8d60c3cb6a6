package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Group struct {
		ID         int64
		Name       string
		InviteCode string
		OwnerID    int64
		CreatedAt  time.Time
	}

	GroupMember struct {
		GroupID  int64
		UserID   int64
		Name     string
		JoinedAt time.Time
	}

	// GroupTransaction is a shared expense divided among members.
	GroupTransaction struct {
		ID         int64
		GroupID    int64
		Title      string
		Amount     Money
		Currency   string
		CategoryID int64
		PaidBy     int64
		Date       time.Time
		Shares     []Share
	}

	// Share is one member's slice of a group transaction.
	Share struct {
		ID                 int64
		GroupTransactionID int64
		MemberID           int64
		Amount             Money
		Settled            bool
	}
)

var ErrNoMembers = errors.New("group has no members to split between")

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("empty group name")
	}
	if g.OwnerID <= 0 {
		return errors.New("group owner is required")
	}
	return nil
}

func (gt GroupTransaction) Validate() error {
	if len(strings.TrimSpace(gt.Title)) < 3 {
		return ErrTitleTooShort
	}
	if err := gt.Amount.Validate(); err != nil {
		return err
	}
	if !ValidCurrency(gt.Currency) {
		return ErrInvalidCurrency
	}
	if gt.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if gt.PaidBy <= 0 {
		return errors.New("payer is required")
	}
	return nil
}

// SplitEqual divides total cents evenly among members. Remainder cents go to
// the first members in order, so the shares always sum to the exact total.
func SplitEqual(total Money, memberIDs []int64) ([]Share, error) {
	if len(memberIDs) == 0 {
		return nil, ErrNoMembers
	}
	n := int64(len(memberIDs))
	base := total.Cents / n
	rem := total.Cents % n

	shares := make([]Share, len(memberIDs))
	for i, id := range memberIDs {
		cents := base
		if int64(i) < rem {
			cents++
		}
		shares[i] = Share{MemberID: id, Amount: Money{Cents: cents}}
	}
	return shares, nil
}

// Settled reports whether every share of the transaction has been settled.
func (gt GroupTransaction) SettledAll() bool {
	if len(gt.Shares) == 0 {
		return false
	}
	for _, s := range gt.Shares {
		if !s.Settled {
			return false
		}
	}
	return true
}
