package cmd

import (
	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Solve the visit plan and truck routes from the frontier table",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop, err := newService()
		if err != nil {
			return err
		}
		defer stop()
		return svc.RunOptimization(ctx)
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}
