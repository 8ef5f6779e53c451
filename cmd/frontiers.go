package cmd

import (
	"github.com/spf13/cobra"
)

var frontiersCmd = &cobra.Command{
	Use:   "frontiers",
	Short: "Extract the per-station frontier sets from the record table",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop, err := newService()
		if err != nil {
			return err
		}
		defer stop()
		return svc.RunFrontiers(ctx)
	},
}

func init() {
	rootCmd.AddCommand(frontiersCmd)
}
