// Package cli is the deadline-daddy command line: the HTTP server and the
// operational commands that share its configuration.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. Running it without a subcommand serves HTTP.
func NewRootCommand() *cobra.Command {
	serve := NewServeCommand()

	cmd := &cobra.Command{
		Use:           "deadline-daddy",
		Short:         "Deadline Daddy - commitment contracts with money on the line",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(NewSweepCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewReconcileCommand())
	return cmd
}
