package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.Group, ownerName string) (core.Group, error) {
	now := time.Now().UTC()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO groups (name, invite_code, owner_id, created_at) VALUES (?, ?, ?, ?)`,
			g.Name, g.InviteCode, g.OwnerID, now.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		g.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("group id: %w", err)
		}
		// Owner joins their own group immediately.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, name, joined_at) VALUES (?, ?, ?, ?)`,
			g.ID, g.OwnerID, ownerName, now.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("add owner to group: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Group{}, err
	}
	g.CreatedAt = now
	return g, nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id int64) (core.Group, error) {
	var g core.Group
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, owner_id, created_at FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.InviteCode, &g.OwnerID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, ErrNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("get group: %w", err)
	}
	g.CreatedAt = parseTimestamp(createdAt)
	return g, nil
}

func (r *SQLiteRepository) GetGroupByInviteCode(ctx context.Context, code string) (core.Group, error) {
	var g core.Group
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, owner_id, created_at FROM groups WHERE invite_code = ?`, code).
		Scan(&g.ID, &g.Name, &g.InviteCode, &g.OwnerID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, ErrNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("get group by invite code: %w", err)
	}
	g.CreatedAt = parseTimestamp(createdAt)
	return g, nil
}

// ListGroups returns groups the user is a member of.
func (r *SQLiteRepository) ListGroups(ctx context.Context, userID int64) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.invite_code, g.owner_id, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		var g core.Group
		var createdAt string
		if err := rows.Scan(&g.ID, &g.Name, &g.InviteCode, &g.OwnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.CreatedAt = parseTimestamp(createdAt)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *SQLiteRepository) AddGroupMember(ctx context.Context, m core.GroupMember) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, name, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(group_id, user_id) DO NOTHING`,
		m.GroupID, m.UserID, m.Name, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListGroupMembers(ctx context.Context, groupID int64) ([]core.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id, user_id, name, joined_at FROM group_members
		 WHERE group_id = ? ORDER BY joined_at, user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var members []core.GroupMember
	for rows.Next() {
		var m core.GroupMember
		var joinedAt string
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Name, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		m.JoinedAt = parseTimestamp(joinedAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// IsGroupMember reports whether the user belongs to the group.
func (r *SQLiteRepository) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID).
		Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return n > 0, nil
}

// CreateGroupTransaction writes the shared expense and its shares in one
// transaction.
func (r *SQLiteRepository) CreateGroupTransaction(ctx context.Context, gt core.GroupTransaction) (core.GroupTransaction, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO group_transactions (group_id, title, amount_cents, currency, category_id, paid_by, occurred_on, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			gt.GroupID, gt.Title, gt.Amount.Cents, gt.Currency, gt.CategoryID,
			gt.PaidBy, formatDate(gt.Date), time.Now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("create group transaction: %w", err)
		}
		gt.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("group transaction id: %w", err)
		}
		for i := range gt.Shares {
			gt.Shares[i].GroupTransactionID = gt.ID
			res, err := tx.ExecContext(ctx,
				`INSERT INTO group_shares (group_transaction_id, member_id, amount_cents, settled) VALUES (?, ?, ?, ?)`,
				gt.ID, gt.Shares[i].MemberID, gt.Shares[i].Amount.Cents, boolInt(gt.Shares[i].Settled))
			if err != nil {
				return fmt.Errorf("create group share: %w", err)
			}
			gt.Shares[i].ID, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("group share id: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.GroupTransaction{}, err
	}
	return gt, nil
}

func (r *SQLiteRepository) ListGroupTransactions(ctx context.Context, groupID int64) ([]core.GroupTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, title, amount_cents, currency, category_id, paid_by, occurred_on
		 FROM group_transactions WHERE group_id = ? ORDER BY occurred_on DESC, id DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.GroupTransaction
	for rows.Next() {
		var gt core.GroupTransaction
		var occurredOn string
		if err := rows.Scan(&gt.ID, &gt.GroupID, &gt.Title, &gt.Amount.Cents,
			&gt.Currency, &gt.CategoryID, &gt.PaidBy, &occurredOn); err != nil {
			return nil, fmt.Errorf("scan group transaction: %w", err)
		}
		gt.Date = parseDate(occurredOn)
		txns = append(txns, gt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range txns {
		shares, err := r.listShares(ctx, txns[i].ID)
		if err != nil {
			return nil, err
		}
		txns[i].Shares = shares
	}
	return txns, nil
}

func (r *SQLiteRepository) listShares(ctx context.Context, groupTxnID int64) ([]core.Share, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_transaction_id, member_id, amount_cents, settled
		 FROM group_shares WHERE group_transaction_id = ? ORDER BY id`, groupTxnID)
	if err != nil {
		return nil, fmt.Errorf("list group shares: %w", err)
	}
	defer rows.Close()

	var shares []core.Share
	for rows.Next() {
		var s core.Share
		var settled int
		if err := rows.Scan(&s.ID, &s.GroupTransactionID, &s.MemberID, &s.Amount.Cents, &settled); err != nil {
			return nil, fmt.Errorf("scan group share: %w", err)
		}
		s.Settled = settled != 0
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// SettleShare marks the member's share as paid back.
func (r *SQLiteRepository) SettleShare(ctx context.Context, shareID, memberID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_shares SET settled = 1 WHERE id = ? AND member_id = ?`, shareID, memberID)
	if err != nil {
		return fmt.Errorf("settle share: %w", err)
	}
	return requireRow(res)
}

// SettleShareByTransaction settles the member's own unsettled share of a
// group transaction.
func (r *SQLiteRepository) SettleShareByTransaction(ctx context.Context, groupTxnID, memberID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_shares SET settled = 1
		 WHERE group_transaction_id = ? AND member_id = ? AND settled = 0`,
		groupTxnID, memberID)
	if err != nil {
		return fmt.Errorf("settle transaction share: %w", err)
	}
	return requireRow(res)
}
