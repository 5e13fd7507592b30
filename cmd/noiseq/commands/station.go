package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seismolab/noiseq/errors"
	"github.com/seismolab/noiseq/jobs"
	"github.com/seismolab/noiseq/station"
)

// StationCmd groups station inventory operations.
var StationCmd = &cobra.Command{
	Use:   "station",
	Short: "Manage the station inventory",
	Long: `Manage the station inventory the job generator works from.

Stations are identified by "NET.STA" codes. Disabled stations keep their
rows and job history but stop producing new jobs.

Examples:
  noiseq station add BE.GES 50.5 3.8   # Register a station
  noiseq station ls                    # List the inventory
  noiseq station disable BE.GES        # Exclude from future syncs
  noiseq station rm BE.GES             # Remove station and all its jobs`,
}

var stationAddCmd = &cobra.Command{
	Use:   "add NET.STA LAT LON",
	Short: "Add a station to the inventory",
	Args:  cobra.ExactArgs(3),
	RunE:  runStationAdd,
}

var stationLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the station inventory",
	RunE:  runStationLs,
}

var stationEnableCmd = &cobra.Command{
	Use:   "enable NET.STA",
	Short: "Return a station to the active inventory",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setStationEnabled(cmd, args[0], true) },
}

var stationDisableCmd = &cobra.Command{
	Use:   "disable NET.STA",
	Short: "Exclude a station from future job generation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setStationEnabled(cmd, args[0], false) },
}

var stationRmCmd = &cobra.Command{
	Use:   "rm NET.STA",
	Short: "Remove a station and every job involving it",
	Args:  cobra.ExactArgs(1),
	RunE:  runStationRm,
}

func init() {
	StationCmd.AddCommand(stationAddCmd)
	StationCmd.AddCommand(stationLsCmd)
	StationCmd.AddCommand(stationEnableCmd)
	StationCmd.AddCommand(stationDisableCmd)
	StationCmd.AddCommand(stationRmCmd)
}

func splitCode(code string) (net, sta string, err error) {
	parts := strings.SplitN(code, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Newf("invalid station code %q, expected NET.STA", code)
	}
	return parts[0], parts[1], nil
}

func runStationAdd(cmd *cobra.Command, args []string) error {
	net, sta, err := splitCode(args[0])
	if err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Newf("invalid latitude %q", args[1])
	}
	lon, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return errors.Newf("invalid longitude %q", args[2])
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	st := &station.Station{Net: net, Sta: sta, Lat: lat, Lon: lon}
	if err := station.NewStore(database).Insert(cmd.Context(), st); err != nil {
		return err
	}
	fmt.Printf("Added station %s (%.4f, %.4f)\n", st.Code(), st.Lat, st.Lon)
	return nil
}

func runStationLs(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	stations, err := station.NewStore(database).List(cmd.Context())
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		fmt.Println("No stations registered")
		return nil
	}

	fmt.Printf("%-12s %10s %10s %s\n", "CODE", "LAT", "LON", "STATUS")
	for _, st := range stations {
		status := "enabled"
		if !st.Enabled {
			status = "disabled"
		}
		fmt.Printf("%-12s %10.4f %10.4f %s\n", st.Code(), st.Lat, st.Lon, status)
	}
	return nil
}

func setStationEnabled(cmd *cobra.Command, code string, enabled bool) error {
	net, sta, err := splitCode(code)
	if err != nil {
		return err
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	if err := station.NewStore(database).SetEnabled(cmd.Context(), net, sta, enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Printf("Enabled station %s.%s\n", net, sta)
	} else {
		fmt.Printf("Disabled station %s.%s\n", net, sta)
	}
	return nil
}

func runStationRm(cmd *cobra.Command, args []string) error {
	net, sta, err := splitCode(args[0])
	if err != nil {
		return err
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := cmd.Context()
	stationStore := station.NewStore(database)
	jobStore := jobs.NewSQLStore(database)

	st, err := stationStore.Get(ctx, net, sta)
	if err != nil {
		return err
	}

	// Remove every job whose pair involves this station, then the station.
	stations, err := stationStore.List(ctx)
	if err != nil {
		return err
	}
	var removed int64
	for _, other := range stations {
		a, b := st.Code(), other.Code()
		if a > b {
			a, b = b, a
		}
		n, err := jobStore.DeleteByPair(ctx, a+":"+b)
		if err != nil {
			return err
		}
		removed += n
	}

	if err := stationStore.Delete(ctx, net, sta); err != nil {
		return err
	}
	fmt.Printf("Removed station %s and %d jobs\n", st.Code(), removed)
	return nil
}
