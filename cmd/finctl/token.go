package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Financiamiento-api/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var userID, name, role string
	var minutes int

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT firmado con JWT_SECRET",
		Example: `  finctl token --user 9b1d... --role admin
  finctl token --user 9b1d... --role cobrador --minutos 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, name, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario (claim sub)")
	cmd.Flags().StringVar(&name, "name", "", "nombre a incluir en el token")
	cmd.Flags().StringVar(&role, "role", "admin", "rol: admin | vendedor | cobrador")
	cmd.Flags().IntVar(&minutes, "minutos", 0, "vigencia; 0 usa JWT_EXPIRATION_MINUTES")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
