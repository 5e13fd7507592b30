// Package params provides typed, validated configuration for noiseq.
//
// Two layers live here. Config is the process-level configuration (database
// path, worker pool sizing, sync schedule) unmarshalled straight from viper.
// Snapshot is the scheduling parameter set (date range, autocorrelation,
// passthrough processing parameters): it is validated once per generator or
// scheduler invocation and then immutable, so concurrent components never
// observe a half-edited configuration.
package params

import "time"

// Config represents the process-level noiseq configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// DatabaseConfig configures the shared SQLite job database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// WorkerConfig configures the claim-and-execute worker pool.
type WorkerConfig struct {
	Workers             int     `mapstructure:"workers"`                // concurrent workers per process (default: 1)
	BatchSize           int     `mapstructure:"batch_size"`             // jobs claimed per batch (default: 10)
	PollIntervalSeconds int     `mapstructure:"poll_interval_seconds"`  // delay between empty polls (default: 5)
	ClaimsPerSecond     float64 `mapstructure:"claims_per_second"`      // claim-poll rate limit (default: 2)
	StaleAfterSeconds   int     `mapstructure:"stale_after_seconds"`    // reset-stale default threshold (default: 86400)
}

// SyncConfig configures job regeneration.
type SyncConfig struct {
	Schedule string   `mapstructure:"schedule"`  // cron spec; empty = sync once at startup only
	JobTypes []string `mapstructure:"job_types"` // job types generated by default (default: CC)
}

// StaleThreshold returns the configured reset-stale threshold as a Duration.
func (w WorkerConfig) StaleThreshold() time.Duration {
	return time.Duration(w.StaleAfterSeconds) * time.Second
}

// PollInterval returns the empty-poll delay as a Duration.
func (w WorkerConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalSeconds) * time.Second
}
