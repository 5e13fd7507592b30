package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/params"
	"github.com/seismolab/noiseq/station"
)

// SyncCmd generates the missing jobs for the configured date range.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Generate missing jobs for the configured date range",
	Long: `Generate one TODO job per (day, station-pair) for the configured date
range, skipping jobs that already exist in any state. Safe to re-run at any
time: completed work is never regressed, and extending the date range in the
configuration only adds the new days.

The date range comes from the startdate/enddate configuration parameters;
pairs come from the enabled station inventory.

Examples:
  noiseq sync              # Generate the configured job types (sync.job_types)
  noiseq sync --type PSD   # Generate PSD jobs only`,
	RunE: runSync,
}

var syncTypeFlag string

func init() {
	SyncCmd.Flags().StringVar(&syncTypeFlag, "type", "", "Job type to generate (default: sync.job_types from configuration)")
}

func runSync(cmd *cobra.Command, args []string) error {
	jobTypes := []string{syncTypeFlag}
	if syncTypeFlag == "" {
		cfg, err := params.Load()
		if err != nil {
			return err
		}
		jobTypes = cfg.Sync.JobTypes
		if len(jobTypes) == 0 {
			jobTypes = []string{"CC"}
		}
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	for _, jobType := range jobTypes {
		inserted, err := syncJobs(cmd.Context(), database, jobType)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d new %s jobs\n", inserted, jobType)
	}
	return nil
}

// syncJobs runs one generation pass: snapshot the scheduling parameters,
// derive pairs from the enabled inventory, insert what is missing.
func syncJobs(ctx context.Context, database *sql.DB, jobType string) (int, error) {
	snap, err := params.Take(params.GetViper())
	if err != nil {
		return 0, err
	}

	stations, err := station.NewStore(database).ListEnabled(ctx)
	if err != nil {
		return 0, err
	}
	if len(stations) == 0 {
		return 0, errors.New("no enabled stations in the inventory, add some with 'noiseq station add'")
	}

	pairs := station.Pairs(stations, snap.AutoCorr)
	return jobs.NewGenerator(jobs.NewSQLStore(database)).Sync(ctx, jobType, snap, pairs)
}
