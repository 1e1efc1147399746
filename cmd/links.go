package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mkv-git/openttd/core/refresh"
	"github.com/mkv-git/openttd/core/scenario"
	"github.com/mkv-git/openttd/infra/logger"
)

var linksRefresh bool

var linksCmd = &cobra.Command{
	Use:   "links <scenario>",
	Short: "Print the flow graph links and components of a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinks,
}

func init() {
	linksCmd.Flags().BoolVar(&linksRefresh, "refresh", true, "refresh every vehicle before printing")
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	w, err := sc.Build()
	if err != nil {
		return err
	}
	if linksRefresh {
		r := refresh.New(w.Graph, logger.New("refresher"))
		for _, v := range w.Vehicles {
			r.Run(v, w.AllowMerge)
		}
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CARGO\tFROM\tTO\tCAPACITY\tREFRESHED")
	for _, e := range w.Graph.AllEdges() {
		refreshed := "-"
		switch {
		case !e.LastUnrestrictedUpdate.IsZero():
			refreshed = "unrestricted"
		case !e.LastRestrictedUpdate.IsZero():
			refreshed = "restricted"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.Cargo, e.From, e.To, e.Capacity, refreshed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, c := range w.Graph.Cargoes() {
		for i, comp := range w.Graph.Components(c) {
			ids := make([]string, len(comp))
			for j, id := range comp {
				ids[j] = id.String()
			}
			_, _ = fmt.Fprintf(out, "cargo %s component %d: %s\n", c, i, strings.Join(ids, " "))
		}
	}
	return nil
}
