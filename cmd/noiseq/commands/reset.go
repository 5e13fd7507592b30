package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/params"
)

// ResetStaleCmd recovers claims abandoned by dead workers.
var ResetStaleCmd = &cobra.Command{
	Use:   "reset-stale",
	Short: "Return jobs abandoned by dead workers to the queue",
	Long: `Return IN_PROGRESS jobs whose claim is older than the threshold to TODO.

A worker that crashed or was killed leaves its claimed jobs IN_PROGRESS
forever; this command (also run automatically at worker startup) makes them
claimable again, recording the previous owner in the job notes.

Examples:
  noiseq reset-stale                    # Use the configured threshold
  noiseq reset-stale --older-than 2h    # Explicit threshold`,
	RunE: runResetStale,
}

var resetOlderThanFlag time.Duration

func init() {
	ResetStaleCmd.Flags().DurationVar(&resetOlderThanFlag, "older-than", 0,
		"Reset claims older than this (default: worker.stale_after_seconds from configuration)")
}

func runResetStale(cmd *cobra.Command, args []string) error {
	threshold := resetOlderThanFlag
	if threshold <= 0 {
		cfg, err := params.Load()
		if err != nil {
			return err
		}
		threshold = cfg.Worker.StaleThreshold()
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	rec := jobs.NewReconciler(jobs.NewSQLStore(database))
	n, err := rec.ResetStale(cmd.Context(), threshold)
	if err != nil {
		return err
	}
	fmt.Printf("Reset %d stale claims older than %s\n", n, threshold)
	return nil
}
