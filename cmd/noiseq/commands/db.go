package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/params"
)

// DbCmd groups database maintenance operations.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the noiseq database",
	Long: `Manage the shared job database.

Examples:
  noiseq db init    # Create the database and apply migrations
  noiseq db stats   # Show row counts and database path`,
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and apply pending migrations",
	RunE:  runDbInit,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbInitCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbInit(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	cfg, err := params.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	fmt.Printf("Database ready at %s\n", cfg.Database.Path)
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	cfg, err := params.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	var stations int
	if err := database.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&stations); err != nil {
		return errors.Wrap(err, "failed to count stations")
	}

	store := jobs.NewSQLStore(database)
	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to count jobs")
	}

	total := 0
	for _, c := range counts {
		total += c.Total()
	}

	fmt.Printf("Database Path: %s\n", cfg.Database.Path)
	fmt.Printf("Stations:      %d\n", stations)
	fmt.Printf("Jobs:          %d across %d job types\n", total, len(counts))
	return nil
}
