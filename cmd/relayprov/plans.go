package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/relayprov/internal/plan"
	"github.com/alexisbeaulieu97/relayprov/internal/provision"
	"github.com/alexisbeaulieu97/relayprov/internal/system"
)

func newPlansCmd() *cobra.Command {
	target := &targetFlags{}

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List the plans and steps for a profile without probing",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, prof, err := target.load()
			if err != nil {
				return err
			}

			plans, err := provision.NewBuilder(*opts, prof, system.ExecRunner{}).Build()
			if err != nil {
				return err
			}
			if err := plan.ValidateAll(plans); err != nil {
				return err
			}

			printPlans(cmd.OutOrStdout(), plans)
			return nil
		},
	}

	target.register(cmd)
	return cmd
}

func printPlans(w io.Writer, plans []*plan.Plan) {
	for _, p := range plans {
		fmt.Fprintf(w, "%s (%d steps)\n", p.Name, len(p.Steps))
		for i, s := range p.Steps {
			policy := "fatal"
			if !s.Fatal {
				policy = "non-fatal"
			}
			line := fmt.Sprintf("  %2d. %-9s %s", i+1, policy, s.Resource())
			if s.Description != "" {
				line += "  " + s.Description
			}
			fmt.Fprintln(w, line)
		}
	}
}
