package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pwannenmacher/credvault/internal/config"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRunCleansUpOnInterval(t *testing.T) {
	cleaner := &countingCleaner{}
	s := NewScheduler(cleaner, &config.SchedulerConfig{
		EnableSessionCleanup:   true,
		SessionCleanupInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for cleaner.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("cleanup ran %d times, expected at least 3", cleaner.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunSkipsDisabledTasks(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("unused")}
	s := NewScheduler(cleaner, &config.SchedulerConfig{
		EnableSessionCleanup:   false,
		SessionCleanupInterval: time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := cleaner.calls.Load(); n != 0 {
		t.Errorf("cleanup ran %d times while disabled", n)
	}
}

func TestCleanupErrorDoesNotStopScheduler(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("db down")}
	s := NewScheduler(cleaner, &config.SchedulerConfig{
		EnableSessionCleanup:   true,
		SessionCleanupInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	if n := cleaner.calls.Load(); n < 2 {
		t.Errorf("cleanup ran %d times, expected retries after failures", n)
	}
}
