package config

import (
	"fmt"
	"os"
	"time"
)

// QueueConfig tunes the offline operation queue
type QueueConfig struct {
	MaxQueueSize        int           `json:"max_queue_size"`
	SyncInterval        time.Duration `json:"sync_interval"`
	ProbeInterval       time.Duration `json:"probe_interval"`
	ReconnectDelay      time.Duration `json:"reconnect_delay"` // settle time before the post-reconnect sync
	DefaultMaxAttempts  int           `json:"default_max_attempts"`
	CriticalMaxAttempts int           `json:"critical_max_attempts"`
	FailedArchiveLimit  int           `json:"failed_archive_limit"`
	NotifyOnSuccess     bool          `json:"notify_on_success"`
	NotifyWindow        time.Duration `json:"notify_window"` // repeat suppression for the notification feed
	SyncOnStartup       bool          `json:"sync_on_startup"`
}

// DefaultQueueConfig returns the standard tuning
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxQueueSize:        1000,
		SyncInterval:        30 * time.Second,
		ProbeInterval:       15 * time.Second,
		ReconnectDelay:      2 * time.Second,
		DefaultMaxAttempts:  5,
		CriticalMaxAttempts: 10,
		FailedArchiveLimit:  200,
		NotifyOnSuccess:     true,
		NotifyWindow:        5 * time.Minute,
		SyncOnStartup:       true,
	}
}

// LoadQueueConfig reads queue tuning from the environment, falling back to
// defaults. Intervals are configured in seconds.
func LoadQueueConfig() QueueConfig {
	def := DefaultQueueConfig()
	return QueueConfig{
		MaxQueueSize:        getIntEnv("QUEUE_MAX_SIZE", def.MaxQueueSize),
		SyncInterval:        secondsEnv("QUEUE_SYNC_INTERVAL", def.SyncInterval),
		ProbeInterval:       secondsEnv("QUEUE_PROBE_INTERVAL", def.ProbeInterval),
		ReconnectDelay:      secondsEnv("QUEUE_RECONNECT_DELAY", def.ReconnectDelay),
		DefaultMaxAttempts:  getIntEnv("QUEUE_MAX_ATTEMPTS", def.DefaultMaxAttempts),
		CriticalMaxAttempts: getIntEnv("QUEUE_CRITICAL_MAX_ATTEMPTS", def.CriticalMaxAttempts),
		FailedArchiveLimit:  getIntEnv("QUEUE_FAILED_LIMIT", def.FailedArchiveLimit),
		NotifyOnSuccess:     getBoolEnv("QUEUE_NOTIFY_SUCCESS", def.NotifyOnSuccess),
		NotifyWindow:        secondsEnv("QUEUE_NOTIFY_WINDOW", def.NotifyWindow),
		SyncOnStartup:       getBoolEnv("QUEUE_SYNC_ON_STARTUP", def.SyncOnStartup),
	}
}

// Helper functions for environment variables

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func secondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := getIntEnv(key, -1); value >= 0 {
		return time.Duration(value) * time.Second
	}
	return defaultValue
}
