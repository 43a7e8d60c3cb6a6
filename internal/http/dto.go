package http

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// Wire representations. Amounts are integer cents everywhere; dates are
// plain "2006-01-02" strings, timestamps RFC 3339.

type transactionJSON struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	AmountCents   int64   `json:"amount_cents"`
	Currency      string  `json:"currency"`
	Type          string  `json:"type"`
	CategoryID    int64   `json:"category_id"`
	Date          string  `json:"date"`
	RecurringID   int64   `json:"recurring_id,omitempty"`
	DisplayAmount float64 `json:"display_amount,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

func toTransactionJSON(t core.Transaction, display core.DisplayAmount) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Currency:    t.Currency,
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Date:        t.Date.Format(dateLayout),
		RecurringID: t.RecurringID,
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	if display != nil {
		out.DisplayAmount = display(t)
	}
	return out
}

func toTransactionList(txs []core.Transaction, display core.DisplayAmount) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t, display))
	}
	return out
}

type transactionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	CategoryID  int64  `json:"category_id"`
	Date        string `json:"date"`
}

func (req transactionRequest) toCore(userID int64, defaultCurrency string) (core.Transaction, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
		date = parsed
	}

	return core.Transaction{
		UserID:      userID,
		Title:       sanitizeText(req.Title),
		Description: sanitizeText(req.Description),
		Amount:      core.Money{Cents: req.AmountCents},
		Currency:    currency,
		Type:        core.TransactionType(req.Type),
		CategoryID:  req.CategoryID,
		Date:        date,
	}, nil
}

type categoryJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	IsDefault bool   `json:"is_default"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
	}
}

type recurringJSON struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Type          string `json:"type"`
	CategoryID    int64  `json:"category_id"`
	Frequency     string `json:"frequency"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	LastProcessed string `json:"last_processed,omitempty"`
	NextDue       string `json:"next_due,omitempty"`
	Exhausted     bool   `json:"exhausted"`
}

func toRecurringJSON(rt core.RecurringTransaction, today time.Time) recurringJSON {
	out := recurringJSON{
		ID:          rt.ID,
		Title:       rt.Title,
		AmountCents: rt.Amount.Cents,
		Currency:    rt.Currency,
		Type:        string(rt.Type),
		CategoryID:  rt.CategoryID,
		Frequency:   string(rt.Frequency),
		StartDate:   rt.StartDate.Format(dateLayout),
	}
	if !rt.EndDate.IsZero() {
		out.EndDate = rt.EndDate.Format(dateLayout)
	}
	if !rt.LastProcessed.IsZero() {
		out.LastProcessed = rt.LastProcessed.Format(dateLayout)
	}
	if next, ok := rt.NextDue(today); ok {
		out.NextDue = next.Format(dateLayout)
	} else {
		out.Exhausted = true
	}
	return out
}

type groupJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
	OwnerID    int64  `json:"owner_id"`
}

func toGroupJSON(g core.Group) groupJSON {
	return groupJSON{ID: g.ID, Name: g.Name, InviteCode: g.InviteCode, OwnerID: g.OwnerID}
}

type shareJSON struct {
	ID          int64 `json:"id"`
	MemberID    int64 `json:"member_id"`
	AmountCents int64 `json:"amount_cents"`
	Settled     bool  `json:"settled"`
}

type groupTransactionJSON struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	AmountCents int64       `json:"amount_cents"`
	Currency    string      `json:"currency"`
	CategoryID  int64       `json:"category_id,omitempty"`
	PaidBy      int64       `json:"paid_by"`
	Date        string      `json:"date"`
	Shares      []shareJSON `json:"shares"`
}

func toGroupTransactionJSON(gt core.GroupTransaction) groupTransactionJSON {
	shares := make([]shareJSON, 0, len(gt.Shares))
	for _, sh := range gt.Shares {
		shares = append(shares, shareJSON{
			ID:          sh.ID,
			MemberID:    sh.MemberID,
			AmountCents: sh.Amount.Cents,
			Settled:     sh.Settled,
		})
	}
	return groupTransactionJSON{
		ID:          gt.ID,
		Title:       gt.Title,
		AmountCents: gt.Amount.Cents,
		Currency:    gt.Currency,
		CategoryID:  gt.CategoryID,
		PaidBy:      gt.PaidBy,
		Date:        gt.Date.Format(dateLayout),
		Shares:      shares,
	}
}

type settingsJSON struct {
	Currency         string `json:"currency"`
	BudgetCents      int64  `json:"budget_cents"`
	SavingsGoalCents int64  `json:"savings_goal_cents"`
	NotifyBudget     bool   `json:"notify_budget"`
	NotifyRecurring  bool   `json:"notify_recurring"`
}

func toSettingsJSON(s core.UserSettings) settingsJSON {
	return settingsJSON{
		Currency:         s.Currency,
		BudgetCents:      s.BudgetLimit.Cents,
		SavingsGoalCents: s.SavingsGoal.Cents,
		NotifyBudget:     s.NotifyBudget,
		NotifyRecurring:  s.NotifyRecurring,
	}
}

type userJSON struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, Name: u.Name}
}
