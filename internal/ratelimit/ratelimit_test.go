package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cucia/job-sentinel/internal/model"
)

// countStore stubs JobStore with a fixed daily apply count.
type countStore struct {
	count int
	err   error
	day   time.Time
}

func (s *countStore) DailyApplyCount(day time.Time) (int, error) {
	s.day = day
	return s.count, s.err
}

func (s *countStore) HasSeen(string) (bool, error)                   { return false, nil }
func (s *countStore) Enqueue(model.Job) error                        { return nil }
func (s *countStore) NextQueued() (*model.Job, error)                { return nil, nil }
func (s *countStore) Update(string, model.JobUpdate) error           { return nil }
func (s *countStore) RecordDecision(string, string, int) error       { return nil }
func (s *countStore) List(model.ListFilter) ([]model.Job, error)     { return nil, nil }

func TestCanApplyUnderLimit(t *testing.T) {
	q := NewDailyQuota(&countStore{count: 2}, 3)
	ok, err := q.CanApply(time.Now())
	if err != nil {
		t.Fatalf("CanApply: %v", err)
	}
	if !ok {
		t.Error("2 of 3 spent: CanApply should be true")
	}
}

func TestCanApplyAtLimit(t *testing.T) {
	q := NewDailyQuota(&countStore{count: 3}, 3)
	ok, err := q.CanApply(time.Now())
	if err != nil {
		t.Fatalf("CanApply: %v", err)
	}
	if ok {
		t.Error("3 of 3 spent: CanApply should be false")
	}
}

func TestCanApplyZeroLimit(t *testing.T) {
	q := NewDailyQuota(&countStore{count: 0}, 0)
	ok, err := q.CanApply(time.Now())
	if err != nil {
		t.Fatalf("CanApply: %v", err)
	}
	if ok {
		t.Error("zero limit: CanApply should always be false")
	}
}

func TestCanApplyPropagatesStoreError(t *testing.T) {
	q := NewDailyQuota(&countStore{err: errors.New("db locked")}, 3)
	if _, err := q.CanApply(time.Now()); err == nil {
		t.Error("store error should propagate: the quota cannot be trusted without the store")
	}
}

func TestCanApplyUsesUTCDay(t *testing.T) {
	s := &countStore{}
	q := NewDailyQuota(s, 1)

	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2026, 3, 15, 2, 30, 0, 0, loc) // 2026-03-14 21:00 UTC

	if _, err := q.CanApply(local); err != nil {
		t.Fatalf("CanApply: %v", err)
	}
	if got := s.day.Day(); got != 14 {
		t.Errorf("store queried for day %d, want UTC day 14", got)
	}
}

func TestPacerFirstCallNoWait(t *testing.T) {
	p := NewPacer(time.Minute)

	start := time.Now()
	if err := p.Wait(context.Background(), "linkedin"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("first call for a platform should not wait")
	}
}

func TestPacerEnforcesDelay(t *testing.T) {
	p := NewPacer(100 * time.Millisecond)
	ctx := context.Background()

	if err := p.Wait(ctx, "linkedin"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	start := time.Now()
	if err := p.Wait(ctx, "linkedin"); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("second call waited %v, want >= ~100ms", elapsed)
	}
}

func TestPacerPlatformsIndependent(t *testing.T) {
	p := NewPacer(time.Minute)
	ctx := context.Background()

	if err := p.Wait(ctx, "linkedin"); err != nil {
		t.Fatalf("Wait linkedin: %v", err)
	}

	start := time.Now()
	if err := p.Wait(ctx, "naukri"); err != nil {
		t.Fatalf("Wait naukri: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("different platforms must not block each other")
	}
}

func TestPacerCancelledContext(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx, "linkedin"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cancel()
	if err := p.Wait(ctx, "linkedin"); err == nil {
		t.Error("expected error when context is cancelled during wait")
	}
}
