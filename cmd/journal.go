package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkv-git/openttd/core/journal"
	"github.com/mkv-git/openttd/core/model"
)

var (
	journalVehicle string
	journalStation int
	journalCargo   int
	journalSince   time.Duration
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the refresh journal",
	RunE:  runJournal,
}

func init() {
	journalCmd.Flags().StringVar(&journalVehicle, "vehicle", "", "only sessions of this vehicle")
	journalCmd.Flags().IntVar(&journalStation, "station", -1, "only sessions touching this station")
	journalCmd.Flags().IntVar(&journalCargo, "cargo", -1, "only sessions refreshing this cargo")
	journalCmd.Flags().DurationVar(&journalSince, "since", 0, "only sessions younger than this")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := journal.NewStore(cfg.Journal)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := journal.Query{VehicleID: journalVehicle}
	if journalSince > 0 {
		q.Start = time.Now().Add(-journalSince)
	}
	if journalStation >= 0 {
		st := model.StationID(journalStation)
		q.Station = &st
	}
	if journalCargo >= 0 {
		c := model.CargoID(journalCargo)
		q.Cargo = &c
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
