package core

import "testing"

func TestSplitEqual(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		members []int64
		want    []int64
	}{
		{"even split", 9000, []int64{1, 2, 3}, []int64{3000, 3000, 3000}},
		{"remainder to first members", 10000, []int64{1, 2, 3}, []int64{3334, 3333, 3333}},
		{"two-way odd cent", 101, []int64{7, 9}, []int64{51, 50}},
		{"single member takes all", 4242, []int64{5}, []int64{4242}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitEqual(Money{Cents: tt.total}, tt.members)
			if err != nil {
				t.Fatalf("SplitEqual() error = %v", err)
			}
			var sum int64
			for i, s := range shares {
				if s.Amount.Cents != tt.want[i] {
					t.Errorf("share %d = %d, want %d", i, s.Amount.Cents, tt.want[i])
				}
				if s.MemberID != tt.members[i] {
					t.Errorf("share %d member = %d, want %d", i, s.MemberID, tt.members[i])
				}
				sum += s.Amount.Cents
			}
			if sum != tt.total {
				t.Errorf("shares sum to %d, want %d", sum, tt.total)
			}
		})
	}

	t.Run("no members", func(t *testing.T) {
		if _, err := SplitEqual(Money{Cents: 100}, nil); err != ErrNoMembers {
			t.Errorf("SplitEqual() error = %v, want %v", err, ErrNoMembers)
		}
	})
}

func TestGroupTransactionValidate(t *testing.T) {
	valid := GroupTransaction{
		GroupID:    1,
		Title:      "Cabin rental",
		Amount:     Money{Cents: 9000},
		Currency:   "USD",
		CategoryID: 2,
		PaidBy:     3,
	}

	tests := []struct {
		name    string
		mutate  func(*GroupTransaction)
		wantErr error
	}{
		{"valid", func(*GroupTransaction) {}, nil},
		{"short title", func(gt *GroupTransaction) { gt.Title = "ab" }, ErrTitleTooShort},
		{"zero amount", func(gt *GroupTransaction) { gt.Amount = Money{} }, ErrInvalidAmount},
		{"bad currency", func(gt *GroupTransaction) { gt.Currency = "usd" }, ErrInvalidCurrency},
		{"missing category", func(gt *GroupTransaction) { gt.CategoryID = 0 }, ErrMissingCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt := valid
			tt.mutate(&gt)
			if err := gt.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGroupTransactionSettledAll(t *testing.T) {
	gt := GroupTransaction{Shares: []Share{{Settled: true}, {Settled: false}}}
	if gt.SettledAll() {
		t.Error("transaction with a pending share reported settled")
	}
	gt.Shares[1].Settled = true
	if !gt.SettledAll() {
		t.Error("fully settled transaction reported pending")
	}
	if (GroupTransaction{}).SettledAll() {
		t.Error("transaction without shares reported settled")
	}
}
