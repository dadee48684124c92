package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrRunInProgress is returned when an end-of-day run is already executing
	ErrRunInProgress = errors.New("end of day run already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
