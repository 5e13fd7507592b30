package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/cmd/noiseq/commands"
	"github.com/seismolab/noiseq/logger"
)

var rootCmd = &cobra.Command{
	Use:   "noiseq",
	Short: "noiseq - job scheduling for ambient-noise batch processing",
	Long: `noiseq - job scheduling and bookkeeping for ambient-noise batch processing.

noiseq tracks one job per (type, day, station-pair) in a shared SQLite
database. Any number of worker processes claim jobs concurrently; the
compare-and-set claim protocol guarantees each job runs on exactly one
worker without any locking between processes.

Available commands:
  db          - Initialize and inspect the job database
  station     - Manage the station inventory
  sync        - Generate missing jobs for the configured date range
  work        - Run the worker daemon (claim, execute, reconcile)
  status      - Show job counts by type and state
  invalidate  - Flip completed jobs back to TODO after upstream changes
  reset-stale - Recover claims abandoned by dead workers

Examples:
  noiseq db init                      # Create/migrate the database
  noiseq station add BE.GES 50.5 3.8  # Register a station
  noiseq sync --type CC               # Generate correlation jobs
  noiseq work --exec ./compute-cc.sh  # Process jobs until interrupted
  noiseq status                       # Show queue state`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.StationCmd)
	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.WorkCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.InvalidateCmd)
	rootCmd.AddCommand(commands.ResetStaleCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
