package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "relayprov",
		Short:         "relayprov provisions Raspberry Pi boards as drone telemetry and video relays",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Probe only and report what would change")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newPlansCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newProfilesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
