package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pwannenmacher/credvault/internal/config"
)

// SessionCleaner removes expired login sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler handles periodic tasks
type Scheduler struct {
	sessions SessionCleaner
	config   *config.SchedulerConfig
	// taskTimeout bounds a single run of a task
	taskTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(sessions SessionCleaner, cfg *config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		sessions:    sessions,
		config:      cfg,
		taskTimeout: 30 * time.Second,
	}
}

// Run starts all enabled tasks and blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Starting scheduler",
		"session_cleanup_enabled", s.config.EnableSessionCleanup,
		"session_cleanup_interval", s.config.SessionCleanupInterval)

	var wg sync.WaitGroup
	if s.config.EnableSessionCleanup && s.config.SessionCleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runInterval(ctx, s.config.SessionCleanupInterval, "session_cleanup", s.cleanupSessions)
		}()
	}

	slog.Info("Scheduler started")
	<-ctx.Done()
	wg.Wait()
	slog.Info("Scheduler stopped")
	return nil
}

// runInterval runs task immediately and then at every tick until ctx is done
func (s *Scheduler) runInterval(ctx context.Context, interval time.Duration, taskName string, task func(context.Context)) {
	slog.Info("Starting interval task", "task", taskName, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx, taskName, task)
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, taskName, task)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, taskName string, task func(context.Context)) {
	ctx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	slog.Debug("Running interval task", "task", taskName)
	task(ctx)
}

func (s *Scheduler) cleanupSessions(ctx context.Context) {
	removed, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		slog.Error("Failed to clean up expired sessions", "error", err)
		return
	}
	slog.Debug("Session cleanup finished", "removed", removed)
}
