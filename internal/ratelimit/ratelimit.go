package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cucia/job-sentinel/internal/model"
)

// DailyQuota enforces the shared daily application budget. It is a stateless
// function of the store: the count is derived from applied_at timestamps, so
// a crash or restart cannot make the quota drift.
//
// The quota is global across all platforms. Check-then-act callers must
// serialize the apply phase; DailyQuota itself takes no locks.
type DailyQuota struct {
	store model.JobStore
	limit int
}

// NewDailyQuota creates a quota of limit applications per UTC calendar day.
func NewDailyQuota(store model.JobStore, limit int) *DailyQuota {
	return &DailyQuota{store: store, limit: limit}
}

// CanApply reports whether another application fits in today's budget.
func (q *DailyQuota) CanApply(now time.Time) (bool, error) {
	count, err := q.store.DailyApplyCount(now.UTC())
	if err != nil {
		return false, fmt.Errorf("daily quota check: %w", err)
	}
	return count < q.limit, nil
}

// Pacer enforces a minimum delay between successive calls to the same
// platform's adapter. This is politeness toward the platform, not the
// application quota.
type Pacer struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: platform id
	minDelay time.Duration
}

// NewPacer creates a pacer enforcing minDelay between consecutive calls for
// the same platform.
func NewPacer(minDelay time.Duration) *Pacer {
	return &Pacer{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last call for the given
// platform. Returns an error if the context is cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context, platform string) error {
	p.mu.Lock()
	last, ok := p.lastCall[platform]
	now := time.Now()

	if !ok {
		// First call for this platform, no wait needed.
		p.lastCall[platform] = now
		p.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= p.minDelay {
		p.lastCall[platform] = now
		p.mu.Unlock()
		return nil
	}

	remaining := p.minDelay - elapsed
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("pacer wait for %s: %w", platform, ctx.Err())
	case <-time.After(remaining):
	}

	p.mu.Lock()
	p.lastCall[platform] = time.Now()
	p.mu.Unlock()

	return nil
}
