package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/events"
	"fintrack/internal/storage"
)

// SummaryService maintains the precomputed monthly_summaries table. Totals
// are normalized to the user's display currency at recompute time.
type SummaryService struct {
	storage   *storage.SQLiteRepository
	converter *currency.Converter
}

func NewSummaryService(storage *storage.SQLiteRepository, converter *currency.Converter) *SummaryService {
	return &SummaryService{
		storage:   storage,
		converter: converter,
	}
}

// Recompute rebuilds one user-month from the transaction rows.
func (s *SummaryService) Recompute(ctx context.Context, userID int64, year, month int) (core.MonthSummary, error) {
	settings, err := s.storage.GetSettings(ctx, userID)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("load settings: %w", err)
	}

	txns, err := s.storage.ListTransactionsByMonth(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("load month transactions: %w", err)
	}

	summary := core.MonthSummary{
		Year:     year,
		Month:    month,
		Currency: settings.Currency,
	}

	for _, t := range txns {
		amount := t.Amount
		if s.converter != nil && t.Currency != settings.Currency {
			amount = s.converter.ConvertMoney(ctx, t.Amount, t.Currency, settings.Currency)
		}
		switch t.Type {
		case core.Income:
			summary.Income.Cents += amount.Cents
		case core.Expense:
			summary.Expenses.Cents += amount.Cents
		}
	}

	if err := s.storage.UpsertMonthlySummary(ctx, userID, summary); err != nil {
		return core.MonthSummary{}, err
	}

	slog.InfoContext(ctx, "Monthly summary recomputed",
		"user_id", userID,
		"year", year,
		"month", month,
		"income_cents", summary.Income.Cents,
		"expense_cents", summary.Expenses.Cents)

	return summary, nil
}

// HandleEvent recomputes whatever the event touched. Used as the consumer
// callback of the summary worker.
func (s *SummaryService) HandleEvent(ctx context.Context, event *events.LedgerEvent) error {
	switch event.Type {
	case events.TransactionCreated, events.TransactionDeleted:
		_, err := s.Recompute(ctx, event.UserID, event.Year, event.Month)
		return err

	case events.CurrencyChanged:
		// All cached months are now in the wrong currency.
		if s.converter != nil {
			s.converter.Invalidate(event.Currency)
		}
		return s.RecomputeRecent(ctx, event.UserID, 12)

	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", event.Type)
		return nil
	}
}

// RecomputeRecent rebuilds the last n months for a user, newest first.
func (s *SummaryService) RecomputeRecent(ctx context.Context, userID int64, months int) error {
	for _, m := range core.RecentMonths(time.Now().UTC(), months) {
		if _, err := s.Recompute(ctx, userID, m.Year(), int(m.Month())); err != nil {
			return fmt.Errorf("recompute %d-%02d: %w", m.Year(), int(m.Month()), err)
		}
	}
	return nil
}
