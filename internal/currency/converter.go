package currency

import (
	"context"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// RateSource supplies exchange-rate snapshots for a base currency.
type RateSource interface {
	Fetch(ctx context.Context, base string) (Snapshot, error)
}

// Converter is the service-level entry point for currency normalization.
// Snapshots are cached per base currency for ttl; on fetch failure the
// original amount is returned unchanged so the caller's view stays usable.
type Converter struct {
	source RateSource
	cache  *cache.LRUCache[Snapshot]
	logger *log.Logger
}

func NewConverter(source RateSource, ttl time.Duration, logger *log.Logger) *Converter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Converter{
		source: source,
		cache:  cache.NewLRUCache[Snapshot](32, ttl),
		logger: logger.WithComponent(log.ComponentCurrency),
	}
}

// Snapshot returns the cached snapshot for base, fetching on miss.
func (c *Converter) Snapshot(ctx context.Context, base string) (Snapshot, error) {
	if snap, ok := c.cache.Get(base); ok {
		return snap, nil
	}
	snap, err := c.source.Fetch(ctx, base)
	if err != nil {
		return Snapshot{}, err
	}
	c.cache.Set(base, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot for base, forcing a re-fetch on the
// next conversion. Called when the user's display currency changes.
func (c *Converter) Invalidate(base string) {
	c.cache.Delete(base)
}

// Convert normalizes amount into the target currency. On rate failure it
// logs a warning and returns the amount unchanged: conversion problems are
// cosmetic, never fatal.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	snap, err := c.Snapshot(ctx, to)
	if err != nil {
		c.logger.WarnContext(ctx, "Conversion fell back to original amount",
			"from", from, "to", to, "error", err)
		return amount
	}
	converted, err := Convert(amount, from, to, snap.Rates)
	if err != nil {
		c.logger.WarnContext(ctx, "Conversion fell back to original amount",
			"from", from, "to", to, "error", err)
		return amount
	}
	return converted
}

// ConvertMoney converts integer cents through the float rate and rounds
// half-up back to cents.
func (c *Converter) ConvertMoney(ctx context.Context, m core.Money, from, to string) core.Money {
	if from == to {
		return m
	}
	return core.FromFloat(c.Convert(ctx, m.Float64(), from, to))
}

// DisplayAmount returns a pure view-model function converting transactions
// into the display currency, suitable for core.ApplyFilter's amount sort.
// The snapshot is resolved once so sorting stays consistent mid-list.
func (c *Converter) DisplayAmount(ctx context.Context, display string) core.DisplayAmount {
	snap, err := c.Snapshot(ctx, display)
	if err != nil {
		c.logger.WarnContext(ctx, "Display amounts left unconverted", "currency", display, "error", err)
		return func(tx core.Transaction) float64 { return tx.Amount.Float64() }
	}
	return func(tx core.Transaction) float64 {
		v, err := Convert(tx.Amount.Float64(), tx.Currency, display, snap.Rates)
		if err != nil {
			return tx.Amount.Float64()
		}
		return v
	}
}
