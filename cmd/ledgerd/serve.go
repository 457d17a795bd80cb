package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/api"
	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := common.InitializeStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			zap.L().Info("starting ledger api server")
			server := api.NewServer(db, cfg)
			return server.ListenAndServe(ctx)
		},
	}
}
