package cmd

import (
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Simulate every regulation pattern and write the record table",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop, err := newService()
		if err != nil {
			return err
		}
		defer stop()
		return svc.RunEvaluation(ctx)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
