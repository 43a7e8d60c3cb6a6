// Package cache provides a generic LRU cache with per-entry TTL and a
// manager that sweeps expired entries from all registered caches.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cleaner is implemented by caches that can evict their expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the background sweep for a set of caches. Register every
// cache before calling StartCleanup.
type Manager struct {
	caches []Cleaner

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup sweeps expired entries on the given interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range m.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.Debug("Cache sweep removed expired entries", "count", removed)
			}
		case <-m.stopCh:
			return
		}
	}
}

// Stop halts the sweep goroutine and waits for it to exit. Safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.started {
			<-m.doneCh
		}
	})
}
