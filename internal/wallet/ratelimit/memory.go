package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github/chapool/jetton-signer/internal/util"
)

// MemoryLimiter keeps the windows of all callers in process memory.
// State is lost on restart.
type MemoryLimiter struct {
	cfg   Config
	clock time2.Clock

	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemoryLimiter(cfg Config, clock time2.Clock) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		clock:   clock,
		windows: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Admit(_ context.Context, callerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	entries := prune(l.windows[callerID], now.Add(-l.cfg.Window))

	if len(entries) >= l.cfg.Limit {
		l.windows[callerID] = entries
		return false, nil
	}

	l.windows[callerID] = append(entries, now)
	return true, nil
}

// Sweep drops callers whose windows have fully aged out.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().Add(-l.cfg.Window)
	removed := 0

	for callerID, entries := range l.windows {
		entries = prune(entries, cutoff)
		if len(entries) == 0 {
			delete(l.windows, callerID)
			removed++
			continue
		}
		l.windows[callerID] = entries
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	log := util.LogFromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Rate limiter sweeper stopped")
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				log.Debug().Int("callers", removed).Msg("Swept idle rate limiter windows")
			}
		}
	}
}

// prune drops entries at or before cutoff. Entries are kept in insertion order.
func prune(entries []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return entries
	}
	return append(entries[:0], entries[i:]...)
}
