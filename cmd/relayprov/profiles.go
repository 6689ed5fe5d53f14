package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/relayprov/internal/profile"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List built-in board profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-26s %-13s %s\n", "NAME", "MODEL", "ENCODER", "UART")
			for _, p := range profile.All() {
				fmt.Fprintf(out, "%-8s %-26s %-13s %s\n", p.Name, p.Model, p.Encoder.Element, p.UARTDevice)
			}
			return nil
		},
	}
}
