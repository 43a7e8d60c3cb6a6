package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/csvimport"
	"fintrack/internal/storage"
)

// ErrBatchNotFound reports a commit referencing an unknown or expired
// staging batch.
var ErrBatchNotFound = errors.New("import batch not found or expired")

const (
	stagingTTL     = 15 * time.Minute
	stagingMaxSize = 128
)

// StagedBatch is a validated CSV upload waiting for commit. Only the
// accepted transactions are written; the rows carry per-line diagnostics
// for the client.
type StagedBatch struct {
	ID       string
	UserID   int64
	Rows     []csvimport.Row
	Report   csvimport.Report
	accepted []core.Transaction
}

// ImportService validates uploaded CSVs against the user's ledger, stages
// the outcome, and commits accepted rows in one atomic batch.
type ImportService struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
	staged             *cache.LRUCache[StagedBatch]
}

func NewImportService(storage *storage.SQLiteRepository, transactionService *TransactionService) *ImportService {
	return &ImportService{
		storage:            storage,
		transactionService: transactionService,
		staged:             cache.NewLRUCache[StagedBatch](stagingMaxSize, stagingTTL),
	}
}

// Stage parses the file and validates each row independently against the
// ledger. Nothing is written; the returned batch expires if not committed.
func (s *ImportService) Stage(ctx context.Context, userID int64, r io.Reader) (StagedBatch, error) {
	existing, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return StagedBatch{}, fmt.Errorf("load existing transactions: %w", err)
	}

	categories, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return StagedBatch{}, fmt.Errorf("load categories: %w", err)
	}

	settings, err := s.storage.GetSettings(ctx, userID)
	if err != nil {
		return StagedBatch{}, fmt.Errorf("load settings: %w", err)
	}

	rows, report, err := csvimport.ParseAndValidate(r, existing, categories, settings.Currency)
	if err != nil {
		return StagedBatch{}, err
	}

	var accepted []core.Transaction
	for _, row := range rows {
		if !row.Valid || row.Duplicate {
			continue
		}
		t := row.Transaction
		t.UserID = userID
		accepted = append(accepted, t)
	}

	batch := StagedBatch{
		ID:       uuid.NewString(),
		UserID:   userID,
		Rows:     rows,
		Report:   report,
		accepted: accepted,
	}
	s.staged.Set(batch.ID, batch)

	slog.InfoContext(ctx, "CSV batch staged",
		"user_id", userID,
		"batch_id", batch.ID,
		"total", report.Total,
		"accepted", report.Success,
		"failed", report.Failed,
		"duplicates", report.Duplicates)

	return batch, nil
}

// Commit writes a staged batch's accepted rows. The insert is
// all-or-nothing: a backend failure leaves the ledger untouched and keeps
// the batch staged for retry. Returns the number of imported transactions.
func (s *ImportService) Commit(ctx context.Context, userID int64, batchID string) (int, error) {
	batch, ok := s.staged.Get(batchID)
	if !ok || batch.UserID != userID {
		return 0, ErrBatchNotFound
	}

	if len(batch.accepted) > 0 {
		if _, err := s.transactionService.BulkCreate(ctx, batch.accepted); err != nil {
			return 0, fmt.Errorf("import transactions: %w", err)
		}
	}
	s.staged.Delete(batchID)

	slog.InfoContext(ctx, "CSV import committed",
		"user_id", userID,
		"batch_id", batchID,
		"imported", len(batch.accepted))

	return len(batch.accepted), nil
}

// ImportCSV stages and commits in one step, for callers that do not need
// the review round trip.
func (s *ImportService) ImportCSV(ctx context.Context, userID int64, r io.Reader) ([]csvimport.Row, csvimport.Report, error) {
	batch, err := s.Stage(ctx, userID, r)
	if err != nil {
		return nil, csvimport.Report{}, err
	}
	if _, err := s.Commit(ctx, userID, batch.ID); err != nil {
		return nil, csvimport.Report{}, err
	}
	return batch.Rows, batch.Report, nil
}
