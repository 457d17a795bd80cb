package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
	"github.com/ar1ocker/currencyledger/internal/sweeper"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one pass of the outdated-transaction sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := common.InitializeStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := sweeper.Run(ctx, db)
			if err != nil {
				return err
			}

			common.PrintHeader("Outdated Sweep Complete", common.DefaultWidth)
			zap.L().Info("sweep summary",
				zap.Int("adjustments_rejected", res.AdjustmentsRejected),
				zap.Int("transfers_rejected", res.TransfersRejected),
				zap.Int("exchanges_rejected", res.ExchangesRejected))
			return nil
		},
	}
}
