package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/relayprov/internal/provision"
	relayerrors "github.com/alexisbeaulieu97/relayprov/pkg/errors"
)

func newRenderCmd() *cobra.Command {
	target := &targetFlags{}
	var file string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a generated file exactly as apply would write it",
		Long: "Render prints one generated payload for the selected profile and options.\n" +
			"Payloads: " + strings.Join(provision.Payloads(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, prof, err := target.load()
			if err != nil {
				return err
			}

			data, err := provision.Render(strings.TrimSpace(file), *opts, prof)
			if err != nil {
				return relayerrors.NewValidationError("file", err.Error(), err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	target.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload to render")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}
