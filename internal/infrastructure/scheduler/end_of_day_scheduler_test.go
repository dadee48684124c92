package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu    sync.Mutex
	runs  int
	fails int
	date  time.Time
}

func (p *fakeProcessor) ProcessEndOfDay(_ context.Context) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	if p.fails > 0 {
		p.fails--
		return time.Time{}, errors.New("settlement failed")
	}
	p.date = p.date.AddDate(0, 0, 1)
	return p.date, nil
}

func (p *fakeProcessor) runCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func testConfig() EndOfDaySchedulerConfig {
	cfg := DefaultEndOfDaySchedulerConfig()
	cfg.JobTimeout = time.Second
	cfg.RetryAttempts = 2
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

func TestParseCronSchedule(t *testing.T) {
	t.Run("parses minute and hour", func(t *testing.T) {
		hour, minute, err := ParseCronSchedule("30 22 * * *")
		require.NoError(t, err)
		assert.Equal(t, 22, hour)
		assert.Equal(t, 30, minute)
	})

	t.Run("empty expression yields defaults", func(t *testing.T) {
		hour, minute, err := ParseCronSchedule("")
		require.NoError(t, err)
		assert.Equal(t, 23, hour)
		assert.Equal(t, 0, minute)
	})

	t.Run("out of range hour fails", func(t *testing.T) {
		_, _, err := ParseCronSchedule("0 24 * * *")
		assert.Error(t, err)
	})
}

func TestEndOfDaySchedulerLifecycle(t *testing.T) {
	processor := &fakeProcessor{date: time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC)}
	s := NewEndOfDayScheduler(testConfig(), processor, nil)

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, s.GetNextRunAt())

	// Start is idempotent
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}

func TestTriggerManualRun(t *testing.T) {
	t.Run("runs the processor once", func(t *testing.T) {
		processor := &fakeProcessor{date: time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC)}
		s := NewEndOfDayScheduler(testConfig(), processor, nil)
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		require.NoError(t, s.TriggerManualRun(context.Background()))
		require.Eventually(t, func() bool {
			return processor.runCount() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("retries failed runs", func(t *testing.T) {
		processor := &fakeProcessor{
			date:  time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC),
			fails: 2,
		}
		s := NewEndOfDayScheduler(testConfig(), processor, nil)
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		require.NoError(t, s.TriggerManualRun(context.Background()))
		require.Eventually(t, func() bool {
			return processor.runCount() == 3
		}, time.Second, 10*time.Millisecond)

		status := s.GetStatus()
		assert.NotContains(t, status, "last_error")
	})

	t.Run("stopped scheduler rejects the trigger", func(t *testing.T) {
		s := NewEndOfDayScheduler(testConfig(), &fakeProcessor{}, nil)
		assert.ErrorIs(t, s.TriggerManualRun(context.Background()), ErrSchedulerNotRunning)
	})
}

func TestGetStatus(t *testing.T) {
	s := NewEndOfDayScheduler(testConfig(), &fakeProcessor{}, nil)
	status := s.GetStatus()
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, 23, status["cron_hour"])
}
