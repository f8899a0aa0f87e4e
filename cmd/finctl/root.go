package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Financiamiento-api/internal/bootstrap"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
	"github.com/jhoicas/Financiamiento-api/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "finctl",
		Short:         "Operación de la API de financiamientos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTokenCmd(), newRefreshStatusCmd(), newMorososCmd())
	return root
}

// loadConfig configuración + logger a stderr (stdout queda para la salida del comando).
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "finctl",
		Out:     os.Stderr,
	})
	return cfg, log, nil
}

// connect arma las dependencias sin escuchar cambios.
func connect(ctx context.Context) (*bootstrap.App, *logger.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(ctx, cfg, log.Component("finctl"), false)
	if err != nil {
		return nil, nil, err
	}
	return app, log, nil
}
