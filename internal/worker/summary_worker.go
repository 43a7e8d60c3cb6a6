package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/services"
)

// SummaryWorker consumes ledger events and keeps the monthly_summaries
// table current. It reconnects with exponential backoff when the broker
// connection drops.
type SummaryWorker struct {
	client   *events.Client
	summary  *services.SummaryService
	prefetch int

	mu      sync.Mutex
	running bool
	doneCh  chan struct{}
}

// NewSummaryWorker builds a worker that processes at most prefetch events
// concurrently in flight with the broker.
func NewSummaryWorker(client *events.Client, summary *services.SummaryService, prefetch int) *SummaryWorker {
	return &SummaryWorker{
		client:   client,
		summary:  summary,
		prefetch: prefetch,
	}
}

// Start begins consuming in a goroutine. Returns an error if already
// running.
func (w *SummaryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("summary worker is already running")
	}
	w.running = true
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Summary worker started")
	return nil
}

// Wait blocks until the consume loop has stopped.
func (w *SummaryWorker) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.doneCh
	running := w.running
	w.mu.Unlock()
	if !running {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *SummaryWorker) runLoop(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		close(w.doneCh)
		w.mu.Unlock()
	}()

	attempt := 0
	for {
		err := w.client.Consume(ctx, w.prefetch, func(event *events.LedgerEvent) error {
			return w.handle(ctx, event)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		attempt++
		delay := backoff(attempt)
		slog.ErrorContext(ctx, "Event consumption stopped, retrying",
			"error", err,
			"attempt", attempt,
			"retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (w *SummaryWorker) handle(ctx context.Context, event *events.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", event.Type,
		"user_id", event.UserID)

	if err := w.summary.HandleEvent(ctx, event); err != nil {
		return fmt.Errorf("handle %s: %w", event.Type, err)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(attempt) * 2 * time.Second
}
