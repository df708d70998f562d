package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is how long an unreported conversation may stay idle.
	DefaultRetention = 24 * time.Hour
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = 10 * time.Minute
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	Retention       time.Duration // idle time before eviction (default: 24h)
	CleanupInterval time.Duration // interval between cleanup runs (default: 10m)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Retention:       DefaultRetention,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// SessionCleanupJob periodically evicts idle, unreported conversations.
type SessionCleanupJob struct {
	sessionSvc SessionService
	config     CleanupConfig
	logger     *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionCleanupJob creates a new cleanup job.
func NewSessionCleanupJob(svc SessionService, config CleanupConfig, logger *slog.Logger) *SessionCleanupJob {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionCleanupJob{
		sessionSvc: svc,
		config:     config,
		logger:     logger,
	}
}

// Start begins the periodic cleanup job. It is non-blocking.
func (j *SessionCleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	j.logger.Info("session cleanup job started",
		"retention", j.config.Retention,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job and waits for the loop to exit.
func (j *SessionCleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	j.logger.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.sessionSvc.CleanupExpired(ctx, j.config.Retention)
}

func (j *SessionCleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if deleted, err := j.RunOnce(ctx); err != nil {
				j.logger.Error("session cleanup failed", "error", err)
			} else if deleted > 0 {
				j.logger.Info("session cleanup completed", "deleted", deleted)
			}
		}
	}
}

// IsRunning returns whether the cleanup job is currently running.
func (j *SessionCleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
