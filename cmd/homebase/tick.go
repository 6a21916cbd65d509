package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homebase/internal/server"
)

func newTickCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one assignment pass and exit",
		Long:  "Assigns chores and tasks for households whose assignment hour is now. With --all, every household is processed regardless of hour.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := server.NewServices(a.deps, nil)
			summary, err := a.newRunner(svc).RunOnce(cmd.Context(), all)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "households=%d chores=%d tasks=%d\n",
				summary.Households, summary.Chores, summary.Tasks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "process every household, ignoring assignment hours")
	return cmd
}
