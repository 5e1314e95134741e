package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cucia/job-sentinel/internal/model"
)

// scriptedCollector returns canned results per call, in order.
type scriptedCollector struct {
	results []collectResult
	calls   int
}

type collectResult struct {
	postings []model.RawPosting
	err      error
}

func (s *scriptedCollector) Collect(ctx context.Context) ([]model.RawPosting, error) {
	if s.calls >= len(s.results) {
		return nil, errors.New("unexpected call")
	}
	r := s.results[s.calls]
	s.calls++
	return r.postings, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectSucceedsFirstTry(t *testing.T) {
	inner := &scriptedCollector{results: []collectResult{
		{postings: []model.RawPosting{{Title: "Junior Engineer"}}},
	}}
	c := NewCollector(inner, 3, time.Millisecond, discardLogger())

	postings, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(postings) != 1 || postings[0].Title != "Junior Engineer" {
		t.Errorf("unexpected postings: %+v", postings)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestCollectRetriesTransientError(t *testing.T) {
	inner := &scriptedCollector{results: []collectResult{
		{err: &model.HTTPError{StatusCode: 503, Err: errors.New("unavailable")}},
		{err: errors.New("connection reset")},
		{postings: []model.RawPosting{{Title: "Graduate Analyst"}}},
	}}
	c := NewCollector(inner, 3, time.Millisecond, discardLogger())

	postings, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(postings) != 1 {
		t.Errorf("got %d postings, want 1", len(postings))
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestCollectExhaustsRetries(t *testing.T) {
	serverErr := &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	inner := &scriptedCollector{results: []collectResult{
		{err: serverErr}, {err: serverErr}, {err: serverErr},
	}}
	c := NewCollector(inner, 2, time.Millisecond, discardLogger())

	_, err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect() expected error after exhausting retries")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Errorf("expected last HTTPError 500, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestCollectDoesNotRetryClientError(t *testing.T) {
	inner := &scriptedCollector{results: []collectResult{
		{err: &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}},
	}}
	c := NewCollector(inner, 3, time.Millisecond, discardLogger())

	_, err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect() expected error")
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 (no retry on 4xx)", inner.calls)
	}
}

func TestCollectDoesNotRetrySessionError(t *testing.T) {
	inner := &scriptedCollector{results: []collectResult{
		{err: &model.SessionError{Platform: "naukri", Path: "sessions/naukri.json"}},
	}}
	c := NewCollector(inner, 3, time.Millisecond, discardLogger())

	_, err := c.Collect(context.Background())
	var sessErr *model.SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
}

func TestCollectHonorsContextCancel(t *testing.T) {
	inner := &scriptedCollector{results: []collectResult{
		{err: &model.HTTPError{StatusCode: 503, Err: errors.New("unavailable")}},
	}}
	c := NewCollector(inner, 3, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Collect(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Collect() did not return after cancel")
	}
}

func TestBackoffDelayHonorsRetryAfter(t *testing.T) {
	c := NewCollector(nil, 3, time.Second, discardLogger())
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 42 * time.Second, Err: errors.New("throttled")}
	if got := c.backoffDelay(1, err); got != 42*time.Second {
		t.Errorf("backoffDelay() = %v, want 42s", got)
	}
}

func TestBackoffDelayGrows(t *testing.T) {
	c := NewCollector(nil, 5, 100*time.Millisecond, discardLogger())
	plain := errors.New("network down")

	for attempt := 1; attempt <= 4; attempt++ {
		base := 100 * time.Millisecond
		for i := 1; i < attempt; i++ {
			base *= 2
		}
		got := c.backoffDelay(attempt, plain)
		lo := time.Duration(float64(base) * 0.7)
		hi := time.Duration(float64(base) * 1.3)
		if got < lo || got > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"session error", &model.SessionError{Platform: "linkedin"}, false},
		{"http 429", &model.HTTPError{StatusCode: 429, Err: errors.New("x")}, true},
		{"http 500", &model.HTTPError{StatusCode: 500, Err: errors.New("x")}, true},
		{"http 503", &model.HTTPError{StatusCode: 503, Err: errors.New("x")}, true},
		{"http 403", &model.HTTPError{StatusCode: 403, Err: errors.New("x")}, false},
		{"http 404", &model.HTTPError{StatusCode: 404, Err: errors.New("x")}, false},
		{"plain network error", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
