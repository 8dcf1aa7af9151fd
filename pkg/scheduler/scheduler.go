// Package scheduler drives the periodic notification batch.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/rye/internal/services/notifier"
	"github.com/Ramsey-B/rye/pkg/redis"
	"github.com/Ramsey-B/rye/pkg/tracing"
)

var (
	// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

const (
	// DefaultInterval is the default interval between notification runs
	DefaultInterval = time.Hour

	// DefaultLeaseTTL is the default TTL for the run lease
	DefaultLeaseTTL = 15 * time.Minute

	// LeaseKey is the redis key for the run lease
	LeaseKey = "notifier:run"
)

// Runner executes one notification batch
type Runner interface {
	Run(ctx context.Context) error
}

// Config holds configuration for the scheduler
type Config struct {
	// Interval is how often to trigger a notification run
	Interval time.Duration

	// UseRedisLease acquires a redis lease before each run so only one
	// instance sends when several are deployed
	UseRedisLease bool

	// LeaseTTL is how long the run lease is held
	LeaseTTL time.Duration
}

// Scheduler triggers notification runs on a fixed interval. Ticks that land
// while a run is still active are skipped, never queued.
type Scheduler struct {
	runner Runner
	locker *redis.Locker
	config Config
	logger ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, locker *redis.Locker, config Config, logger ectologger.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = DefaultLeaseTTL
	}

	return &Scheduler{
		runner:   runner,
		locker:   locker,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	s.logger.WithContext(ctx).Infof("Starting notification scheduler: interval=%s", s.config.Interval)

	go s.tickLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping notification scheduler...")

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Notification scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Notification scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Scheduler tick loop stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce triggers one notification run, honoring the optional redis lease
// and the runner's own in-process guard
func (s *Scheduler) runOnce(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.runOnce")
	defer span.End()

	if s.config.UseRedisLease && s.locker != nil {
		lease, err := s.locker.Acquire(ctx, LeaseKey, s.config.LeaseTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockNotAcquired) {
				s.logger.WithContext(ctx).Info("Another instance holds the run lease, skipping this tick")
				return
			}
			s.logger.WithContext(ctx).WithError(err).Error("Failed to acquire run lease")
			return
		}
		defer lease.Release(ctx)
	}

	if err := s.runner.Run(ctx); err != nil {
		if errors.Is(err, notifier.ErrRunInProgress) {
			s.logger.WithContext(ctx).Warn("Previous notification run still active, skipping this tick")
			return
		}
		s.logger.WithContext(ctx).WithError(err).Error("Notification run failed")
	}
}
