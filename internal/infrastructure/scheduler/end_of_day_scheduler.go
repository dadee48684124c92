package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks whether
// the configured run time has arrived
const cronTickerInterval = 1 * time.Minute

// DayProcessor runs one full banking day of settlement
type DayProcessor interface {
	ProcessEndOfDay(ctx context.Context) (time.Time, error)
}

// EndOfDaySchedulerConfig holds configuration for the end-of-day scheduler
type EndOfDaySchedulerConfig struct {
	Enabled bool
	// CronHour is the hour (0-23) to run the daily settlement
	CronHour int
	// CronMinute is the minute (0-59) to run the daily settlement
	CronMinute int
	// JobTimeout is the maximum time one settlement run may take
	JobTimeout time.Duration
	// RetryAttempts is the number of retries for a failed run
	RetryAttempts int
	// RetryDelay is the delay between retries
	RetryDelay time.Duration
}

// DefaultEndOfDaySchedulerConfig returns the default configuration:
// daily at 23:00
func DefaultEndOfDaySchedulerConfig() EndOfDaySchedulerConfig {
	return EndOfDaySchedulerConfig{
		Enabled:       true,
		CronHour:      23,
		CronMinute:    0,
		JobTimeout:    30 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract
// hour and minute. Returns defaults (23:00) if the expression is empty or
// has wildcard fields.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 23
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 23); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 23, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 23, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns the default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// EndOfDayScheduler triggers the daily settlement run at a configured wall
// clock time. The processor serializes concurrent runs itself; the scheduler
// only decides when to fire and retries failed runs.
type EndOfDayScheduler struct {
	config    EndOfDaySchedulerConfig
	processor DayProcessor
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inRun     bool

	lastRunAt *time.Time
	lastError error
	nextRunAt *time.Time
}

// NewEndOfDayScheduler creates a new end-of-day scheduler
func NewEndOfDayScheduler(config EndOfDaySchedulerConfig, processor DayProcessor, logger *zap.Logger) *EndOfDayScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EndOfDayScheduler{
		config:    config,
		processor: processor,
		logger:    logger,
	}
}

// Start starts the scheduler loop
func (s *EndOfDayScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("end of day scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *EndOfDayScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("end of day scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("end of day scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *EndOfDayScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runEndOfDay(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

func (s *EndOfDayScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.config.CronHour && now.Minute() == s.config.CronMinute
}

func (s *EndOfDayScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runEndOfDay executes one settlement run with retries
func (s *EndOfDayScheduler) runEndOfDay(ctx context.Context) {
	s.mu.Lock()
	if s.inRun {
		s.mu.Unlock()
		s.logger.Warn("skipping end of day run, previous run still executing")
		return
	}
	s.inRun = true
	now := time.Now()
	s.lastRunAt = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inRun = false
		s.mu.Unlock()
	}()

	var lastErr error
	for attempt := 0; attempt <= s.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying end of day run",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.RetryDelay):
			}
		}

		runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		newDate, err := s.processor.ProcessEndOfDay(runCtx)
		cancel()
		if err == nil {
			s.mu.Lock()
			s.lastError = nil
			s.mu.Unlock()
			s.logger.Info("end of day run completed", zap.Time("new_date", newDate))
			return
		}
		lastErr = err
	}

	s.mu.Lock()
	s.lastError = lastErr
	s.mu.Unlock()
	s.logger.Error("end of day run failed after retries",
		zap.Int("attempts", s.config.RetryAttempts+1),
		zap.Error(lastErr))
}

// TriggerManualRun triggers a settlement run outside the schedule. Uses a
// background context so the run is not cancelled with the caller's request.
func (s *EndOfDayScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.inRun {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.mu.Unlock()

	go s.runEndOfDay(context.Background())
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *EndOfDayScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"in_run":      s.inRun,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
	if s.lastError != nil {
		status["last_error"] = s.lastError.Error()
	}
	return status
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *EndOfDayScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}
