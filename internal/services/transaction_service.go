// Package services holds the business logic between the HTTP surface and
// storage: transactions, recurring series, imports, groups and summaries.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/storage"
)

// ErrCategoryMismatch reports a transaction typed against a category that
// only accepts the other transaction type.
var ErrCategoryMismatch = errors.New("category type mismatch")

// TransactionService orchestrates ledger writes across SQLite and the event
// bus. Events are best-effort: a failed publish never fails the request,
// the summary worker will catch up on the next recompute.
type TransactionService struct {
	storage     *storage.SQLiteRepository
	eventClient *events.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, eventClient *events.Client) *TransactionService {
	return &TransactionService{
		storage:     storage,
		eventClient: eventClient,
	}
}

// Create validates and saves a transaction, then publishes a created event.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.validate(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, events.NewTransactionEvent(events.TransactionCreated,
		created.UserID, created.ID, created.Date.Year(), int(created.Date.Month())))

	return created, nil
}

// BulkCreate validates every transaction up front and writes them
// atomically. If any row is invalid nothing is saved.
func (s *TransactionService) BulkCreate(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	for i, t := range txns {
		if err := s.validate(ctx, t); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
	}

	created, err := s.storage.CreateTransactions(ctx, txns)
	if err != nil {
		return nil, fmt.Errorf("save transactions: %w", err)
	}

	for _, t := range created {
		s.publish(ctx, events.NewTransactionEvent(events.TransactionCreated,
			t.UserID, t.ID, t.Date.Year(), int(t.Date.Month())))
	}

	return created, nil
}

// Delete removes a transaction and publishes a deleted event.
func (s *TransactionService) Delete(ctx context.Context, id, userID int64) error {
	t, err := s.storage.GetTransaction(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteTransaction(ctx, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, events.NewTransactionEvent(events.TransactionDeleted,
		userID, id, t.Date.Year(), int(t.Date.Month())))

	return nil
}

// BulkDelete removes the given transactions atomically.
func (s *TransactionService) BulkDelete(ctx context.Context, ids []int64, userID int64) error {
	// Capture the affected months before the rows disappear.
	deleted := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		t, err := s.storage.GetTransaction(ctx, id, userID)
		if err != nil {
			return err
		}
		deleted = append(deleted, t)
	}

	if err := s.storage.DeleteTransactions(ctx, ids, userID); err != nil {
		return err
	}

	for _, t := range deleted {
		s.publish(ctx, events.NewTransactionEvent(events.TransactionDeleted,
			userID, t.ID, t.Date.Year(), int(t.Date.Month())))
	}

	return nil
}

// List returns the user's transactions with the filter applied.
func (s *TransactionService) List(ctx context.Context, userID int64, filter core.Filter, display core.DisplayAmount) ([]core.Transaction, error) {
	txns, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.ApplyFilter(txns, filter, display), nil
}

func (s *TransactionService) validate(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	cat, err := s.storage.GetCategory(ctx, t.CategoryID, t.UserID)
	if err != nil {
		return core.ErrMissingCategory
	}
	if !cat.AllowsType(t.Type) {
		return fmt.Errorf("category %q does not allow %s transactions: %w", cat.Name, t.Type, ErrCategoryMismatch)
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, event *events.LedgerEvent) {
	if s.eventClient == nil {
		slog.DebugContext(ctx, "Event client not available, skipping publish", "type", event.Type)
		return
	}
	if err := s.eventClient.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"user_id", event.UserID,
			"error", err)
	}
}

// Close closes both storage and the event bus connection.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.eventClient != nil {
		if err := s.eventClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
