package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-status",
		Short: "Re-deriva el estado persistido de todos los financiamientos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, log, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.Financings.RefreshStatuses(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("checked", out.Checked).Int("updated", out.Updated).Msg("estados actualizados")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "revisados: %d  actualizados: %d\n", out.Checked, out.Updated)
			return err
		},
	}
}
