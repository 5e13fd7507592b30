package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/jobs"
)

// InvalidateCmd flips completed jobs back to TODO.
var InvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Flip completed jobs back to TODO after upstream changes",
	Long: `Flip DONE jobs of one type back to TODO so they are recomputed, after a
parameter change or after input data was reprocessed.

Only completed jobs are touched: TODO jobs are already queued, and a job
currently IN_PROGRESS is left to its worker (re-run invalidate afterwards
if its inputs changed too).

Examples:
  noiseq invalidate --type CC                         # Everything
  noiseq invalidate --type CC --pair BE.GES:BE.MEM    # One pair
  noiseq invalidate --type CC --from 2024-03-01       # From a day onward`,
	RunE: runInvalidate,
}

var (
	invalidateTypeFlag  string
	invalidatePairsFlag []string
	invalidateFromFlag  string
)

func init() {
	InvalidateCmd.Flags().StringVar(&invalidateTypeFlag, "type", "", "Job type to invalidate (required)")
	InvalidateCmd.Flags().StringSliceVar(&invalidatePairsFlag, "pair", nil, "Restrict to these pair keys (repeatable)")
	InvalidateCmd.Flags().StringVar(&invalidateFromFlag, "from", "", "Restrict to days >= this YYYY-MM-DD day")
	InvalidateCmd.MarkFlagRequired("type")
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	rec := jobs.NewReconciler(jobs.NewSQLStore(database))
	n, err := rec.Invalidate(cmd.Context(), invalidateTypeFlag, invalidatePairsFlag, invalidateFromFlag)
	if err != nil {
		return err
	}
	fmt.Printf("Invalidated %d %s jobs\n", n, invalidateTypeFlag)
	return nil
}
