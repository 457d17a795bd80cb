package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
)

func newHoldersCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "holders",
		Short: "List registered holders",
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

			holders, err := common.ListHolders(ctx, db, filter, zap.L())
			if err != nil {
				return err
			}

			common.PrintHeader("Holders", common.DefaultWidth)
			for i, h := range holders {
				status := "enabled"
				if !h.Enabled {
					status = "disabled"
				}
				fmt.Printf("%s%s [%s] (%s)\n", common.BoxPrefix(i == len(holders)-1), h.HolderId, h.HolderType, status)
			}
			common.PrintFooter(fmt.Sprintf("%d holders", len(holders)), common.DefaultWidth)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "holder-id", "", "filter to a single holder_id")

	return cmd
}
