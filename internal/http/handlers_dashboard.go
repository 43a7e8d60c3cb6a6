package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	recentTransactionLimit = 10
	historyMonths          = 6
)

type categoryAmountJSON struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Cents      int64  `json:"cents"`
}

type monthSummaryJSON struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	NetCents     int64 `json:"net_cents"`
}

type dashboardJSON struct {
	Year             int                  `json:"year"`
	Month            int                  `json:"month"`
	Currency         string               `json:"currency"`
	IncomeCents      int64                `json:"income_cents"`
	ExpenseCents     int64                `json:"expense_cents"`
	NetCents         int64                `json:"net_cents"`
	BudgetCents      int64                `json:"budget_cents,omitempty"`
	SavingsGoalCents int64                `json:"savings_goal_cents,omitempty"`
	TopCategories    []categoryAmountJSON `json:"top_categories"`
	Recent           []transactionJSON    `json:"recent_transactions"`
	History          []monthSummaryJSON   `json:"history"`
}

func dashKey(userID int64, currency string, year, month int) string {
	return fmt.Sprintf("dash:%d:%s:%d-%02d", userID, currency, year, month)
}

// invalidateDashboard drops cached dashboards for the months the given
// dates fall into. Cache keys embed the display currency, so a currency
// change misses the old entries without an explicit flush.
func (s *Server) invalidateDashboard(ctx context.Context, userID int64, dates ...time.Time) {
	code := "USD"
	if settings, err := s.store.GetSettings(ctx, userID); err == nil {
		code = settings.Currency
	}
	for _, d := range dates {
		s.dashCache.Delete(dashKey(userID, code, d.Year(), int(d.Month())))
	}
}

// invalidateDashboardAll drops the user's cached dashboards for the last
// twelve months. Used when affected months are not known, as for imports;
// older entries age out via TTL.
func (s *Server) invalidateDashboardAll(ctx context.Context, userID int64) {
	code := "USD"
	if settings, err := s.store.GetSettings(ctx, userID); err == nil {
		code = settings.Currency
	}
	for _, m := range core.RecentMonths(time.Now().UTC(), 12) {
		s.dashCache.Delete(dashKey(userID, code, m.Year(), int(m.Month())))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	year, month, err := parseYearMonth(r.URL.Query(), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, display := s.displayFor(r.Context(), userID)
	key := dashKey(userID, code, year, month)
	if cached, ok := s.dashCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	dash, err := s.buildDashboard(r.Context(), userID, year, month, code, display)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.dashCache.Set(key, dash)
	respondJSON(w, http.StatusOK, dash)
}

// buildDashboard fans out the independent reads and assembles the response.
func (s *Server) buildDashboard(ctx context.Context, userID int64, year, month int, code string, display core.DisplayAmount) (dashboardJSON, error) {
	var (
		summary  core.MonthSummary
		totals   []core.CategoryAmount
		recent   []core.Transaction
		history  []core.MonthSummary
		settings core.UserSettings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.monthSummary(gctx, userID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.store.CategoryTotals(gctx, userID, year, month, core.Expense)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.ListTransactionsByMonth(gctx, userID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.store.ListMonthlySummaries(gctx, userID, historyMonths)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.store.GetSettings(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return dashboardJSON{}, err
	}

	if len(recent) > recentTransactionLimit {
		recent = recent[:recentTransactionLimit]
	}

	topCats := make([]categoryAmountJSON, 0, len(totals))
	for _, ca := range totals {
		topCats = append(topCats, categoryAmountJSON{
			CategoryID: ca.CategoryID,
			Name:       ca.Name,
			Cents:      ca.Amount.Cents,
		})
	}
	hist := make([]monthSummaryJSON, 0, len(history))
	for _, h := range history {
		hist = append(hist, monthSummaryJSON{
			Year:         h.Year,
			Month:        h.Month,
			IncomeCents:  h.Income.Cents,
			ExpenseCents: h.Expenses.Cents,
			NetCents:     h.Net().Cents,
		})
	}

	return dashboardJSON{
		Year:             year,
		Month:            month,
		Currency:         code,
		IncomeCents:      summary.Income.Cents,
		ExpenseCents:     summary.Expenses.Cents,
		NetCents:         summary.Net().Cents,
		BudgetCents:      settings.BudgetLimit.Cents,
		SavingsGoalCents: settings.SavingsGoal.Cents,
		TopCategories:    topCats,
		Recent:           toTransactionList(recent, display),
		History:          hist,
	}, nil
}

// monthSummary reads the stored summary, computing it on first access.
func (s *Server) monthSummary(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	summary, err := s.store.GetMonthlySummary(ctx, userID, year, month)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.MonthSummary{}, err
	}
	return s.summaries.Recompute(ctx, userID, year, month)
}
