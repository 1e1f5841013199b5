package tasks

import (
	"sync"
	"time"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries is the maximum attempts for a queued conversion. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between conversion attempts. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds a single conversion. Default: 30m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 45m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep completed tasks. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       30 * time.Minute,
		ReleaseAfter:      45 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

var (
	queueMu       sync.RWMutex
	queueSettings = DefaultConfig()
)

// configureQueues sets the retry, timeout and retention values reported by
// the task Config methods. backlite asks a zero task for its Config, so the
// values cannot travel on the task itself. Zero fields keep their defaults.
func configureQueues(cfg Config) {
	defaults := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}
	if cfg.RetentionDuration <= 0 {
		cfg.RetentionDuration = defaults.RetentionDuration
	}

	queueMu.Lock()
	defer queueMu.Unlock()
	queueSettings = cfg
}

func currentQueueSettings() Config {
	queueMu.RLock()
	defer queueMu.RUnlock()
	return queueSettings
}
