package cmd

import "github.com/spf13/cobra"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh periodically and expose metrics",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
