package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/log"
)

const fetchAttempts = 3

// Provider fetches exchange-rate snapshots from a JSON rate API.
type Provider struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewProvider creates a provider for a rate API serving
// GET {baseURL}/{base} with a conversion_rates object in the response.
func NewProvider(baseURL string, logger *log.Logger) *Provider {
	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.WithComponent(log.ComponentRates),
	}
}

// Fetch retrieves a fresh snapshot with base as the reference currency.
// It retries transient failures up to three times with a short backoff.
func (p *Provider) Fetch(ctx context.Context, base string) (Snapshot, error) {
	url := p.baseURL + "/" + base

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		snap, err := p.fetchOnce(ctx, url, base)
		if err == nil {
			p.logger.InfoContext(ctx, "Exchange rates fetched",
				"base", base, "rates", len(snap.Rates), "attempt", attempt)
			return snap, nil
		}
		lastErr = err
		p.logger.WarnContext(ctx, "Rate fetch attempt failed",
			"base", base, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return Snapshot{}, fmt.Errorf("fetch rates for %s: %w", base, lastErr)
}

func (p *Provider) fetchOnce(ctx context.Context, url, base string) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body struct {
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("decode rate response: %w", err)
	}
	if len(body.ConversionRates) == 0 {
		return Snapshot{}, errors.New("rate response contained no rates")
	}

	rates := make(RateTable, len(body.ConversionRates))
	for code, rate := range body.ConversionRates {
		if rate > 0 {
			rates[code] = rate
		}
	}
	if _, ok := rates[base]; !ok {
		rates[base] = 1
	}

	return Snapshot{Base: base, Rates: rates, FetchedAt: time.Now()}, nil
}
