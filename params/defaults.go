package params

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "noiseq.db")

	// Worker pool defaults
	v.SetDefault("worker.workers", 1)
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("worker.claims_per_second", 2.0)
	v.SetDefault("worker.stale_after_seconds", 86400) // one day without progress

	// Sync defaults: empty schedule means sync runs once at daemon startup
	v.SetDefault("sync.schedule", "")
	v.SetDefault("sync.job_types", []string{"CC"})

	// Scheduling parameters (see snapshot.go for types and domains).
	// startdate/enddate carry no defaults: generation must fail loudly when
	// the operator has not configured the date range.
	v.SetDefault("autocorr", "N")
	v.SetDefault("analysis_duration", 86400)
	v.SetDefault("keep_days", "Y")
}
