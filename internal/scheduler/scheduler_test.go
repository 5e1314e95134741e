package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cucia/job-sentinel/internal/pipeline"
)

type countingRunner struct {
	cycles atomic.Int64
	err    error
}

func (r *countingRunner) RunCycle(ctx context.Context) (pipeline.CycleStats, error) {
	r.cycles.Add(1)
	return pipeline.CycleStats{}, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunExecutesImmediateCycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for runner.cycles.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no cycle ran before cancellation")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil on cancel", err)
	}
	if got := runner.cycles.Load(); got != 1 {
		t.Errorf("cycles = %d, want 1 (immediate cycle only)", got)
	}
}

func TestRunTicksOnInterval(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, 20*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for runner.cycles.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d cycles ran, want at least 3", runner.cycles.Load())
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	cancel()
	<-done
}

func TestRunSurvivesCycleFailure(t *testing.T) {
	runner := &countingRunner{err: errors.New("store unavailable")}
	s := NewScheduler(runner, 20*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for runner.cycles.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("failed cycle stopped the loop")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestRunReturnsPromptlyOnCancel(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
