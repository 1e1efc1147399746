package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/refresh"
	"github.com/mkv-git/openttd/infra/logger"
)

var (
	refreshScenario   string
	refreshAllowMerge bool
	refreshCheck      bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh pass over a scenario and print the updates",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshScenario, "scenario", "s", "", "scenario file, overrides scenario.path")
	refreshCmd.Flags().BoolVar(&refreshAllowMerge, "allow-merge", false, "allow updates joining separate components")
	refreshCmd.Flags().BoolVar(&refreshCheck, "check", false, "fail when the updates differ from the scenario expectations")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if refreshScenario != "" {
		cfg.Scenario.Path = refreshScenario
	}
	if cfg.Scenario.Path == "" {
		return fmt.Errorf("no scenario: set --scenario or scenario.path")
	}
	if refreshAllowMerge {
		cfg.Refresh.AllowMerge = true
	}
	svc, closeFn, err := newService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	sums, err := svc.RefreshAll(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VEHICLE\tFROM\tTO\tCARGO\tCAPACITY\tMODE")
	total := 0
	for _, sum := range sums {
		for _, u := range sum.Updates {
			total++
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", sum.VehicleID, u.From, u.To, u.Cargo, u.Capacity, u.Mode)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	world := svc.World()
	if !refreshCheck || len(world.Expected) == 0 {
		return nil
	}
	missing := world.Missing(collectUpdates(sums))
	if len(missing) > 0 || total != len(world.Expected) {
		return fmt.Errorf("scenario %s: %d updates, %d expected, %d missing", world.Name, total, len(world.Expected), len(missing))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scenario %s: all %d expected updates present\n", world.Name, total)
	return nil
}

func collectUpdates(sums []refresh.Summary) []linkgraph.Update {
	var out []linkgraph.Update
	for _, sum := range sums {
		out = append(out, sum.Updates...)
	}
	return out
}
