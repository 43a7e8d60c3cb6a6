package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes due recurring series into real
// transactions.
type RecurringProcessor struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, transactionService *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:            storage,
		transactionService: transactionService,
	}
}

// ProcessDue walks every active series and posts a transaction for each one
// that is due. Returns the number of transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactionService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	series, err := p.storage.ListActiveRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(series),
		"processing_date", now.Format("2006-01-02"))

	processedCount := 0

	for _, rt := range series {
		occurrence, due := nextDue(rt, now)
		if !due {
			continue
		}

		txn := core.Transaction{
			UserID:      rt.UserID,
			Title:       rt.Title,
			Amount:      rt.Amount,
			Currency:    rt.Currency,
			Type:        rt.Type,
			CategoryID:  rt.CategoryID,
			Date:        occurrence,
			RecurringID: rt.ID,
		}

		if _, err := p.transactionService.Create(ctx, txn); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring series",
				"recurring_id", rt.ID,
				"title", rt.Title,
				"error", err)
			continue
		}

		if err := p.storage.MarkRecurringProcessed(ctx, rt.ID, occurrence); err != nil {
			slog.ErrorContext(ctx, "Failed to update last processed date",
				"recurring_id", rt.ID,
				"error", err)
			// Continue anyway, transaction was created successfully
		}

		processedCount++
		slog.InfoContext(ctx, "Created transaction from recurring series",
			"recurring_id", rt.ID,
			"title", rt.Title,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Frequency)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processedCount,
		"total_checked", len(series))

	return processedCount, nil
}

// nextDue returns the occurrence a series should materialize at now, if any.
// Dueness is derived from the series grid (start + k*period), so a run that
// fires late still posts on the scheduled date and the grid never drifts.
//
// A series that has never materialized is due at its latest grid point on or
// before today; past occurrences are not back-filled. Otherwise the series is
// due at the first grid point after the last materialization, so a worker
// catching up after downtime converges one occurrence per run.
func nextDue(rt core.RecurringTransaction, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if rt.StartDate.After(today) {
		return time.Time{}, false
	}
	if !rt.EndDate.IsZero() && today.After(rt.EndDate) {
		return time.Time{}, false
	}

	if rt.LastProcessed.IsZero() {
		return core.LatestOccurrence(rt.StartDate, rt.Frequency, rt.EndDate, today)
	}

	next, ok := core.NextOccurrence(rt.StartDate, rt.Frequency, rt.EndDate, rt.LastProcessed.AddDate(0, 0, 1))
	if !ok || next.After(today) {
		return time.Time{}, false
	}
	return next, true
}
