package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/rye/internal/services/notifier"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type countingRunner struct {
	runs atomic.Int64
	err  error
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.runs.Add(1)
	return r.err
}

func TestSchedulerTicksRunner(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, nil, Config{Interval: 10 * time.Millisecond}, getTestLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerDoubleStartFails(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, Config{Interval: time.Hour}, getTestLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
}

func TestSchedulerStopIsGracefulAndIdempotent(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, Config{Interval: time.Hour}, getTestLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())

	// a second stop is a no-op
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerToleratesBusyRunner(t *testing.T) {
	runner := &countingRunner{err: notifier.ErrRunInProgress}
	s := NewScheduler(runner, nil, Config{Interval: 10 * time.Millisecond}, getTestLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	// busy ticks are skipped, never fatal, and the loop keeps going
	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerDefaultsConfig(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, Config{}, getTestLogger())

	assert.Equal(t, DefaultInterval, s.config.Interval)
	assert.Equal(t, DefaultLeaseTTL, s.config.LeaseTTL)
}
