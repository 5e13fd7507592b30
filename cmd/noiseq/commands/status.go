package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/jobs"
)

// StatusCmd shows job counts.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job counts by type and state",
	Long: `Show how many jobs are TODO, IN_PROGRESS and DONE for each job type.

With --type, show the per-day breakdown of one job type instead.

Examples:
  noiseq status             # Per-type overview
  noiseq status --type CC   # Per-day breakdown of CC jobs`,
	RunE: runStatus,
}

var statusTypeFlag string

func init() {
	StatusCmd.Flags().StringVar(&statusTypeFlag, "type", "", "Show the per-day breakdown of this job type")
}

func runStatus(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	store := jobs.NewSQLStore(database)

	if statusTypeFlag != "" {
		byDay, err := store.CountsByDay(cmd.Context(), statusTypeFlag)
		if err != nil {
			return err
		}
		if len(byDay) == 0 {
			fmt.Printf("No %s jobs\n", statusTypeFlag)
			return nil
		}
		fmt.Printf("%-12s %8s %12s %8s\n", "DAY", "TODO", "IN_PROGRESS", "DONE")
		for _, d := range byDay {
			fmt.Printf("%-12s %8d %12d %8d\n", d.Day, d.Todo, d.InProgress, d.Done)
		}
		return nil
	}

	stats, err := jobs.Stats(cmd.Context(), store)
	if err != nil {
		return err
	}
	if stats.Total() == 0 {
		fmt.Println("No jobs, run 'noiseq sync' to generate some")
		return nil
	}

	types := make([]string, 0, len(stats.ByType))
	for t := range stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Printf("%-8s %8s %12s %8s %8s\n", "TYPE", "TODO", "IN_PROGRESS", "DONE", "TOTAL")
	for _, t := range types {
		c := stats.ByType[t]
		fmt.Printf("%-8s %8d %12d %8d %8d\n", t, c.Todo, c.InProgress, c.Done, c.Total())
	}
	return nil
}
