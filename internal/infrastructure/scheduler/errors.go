package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when adding a job to a started scheduler
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidJob is returned for a job without a task or a positive interval
	ErrInvalidJob = errors.New("invalid scheduler job")
)
