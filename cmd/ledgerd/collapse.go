package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ar1ocker/currencyledger/internal/collapse"
	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
)

func newCollapseCmd() *cobra.Command {
	var olderThan time.Duration
	var services string

	cmd := &cobra.Command{
		Use:   "collapse",
		Short: "Compact old confirmed transactions into net adjustments",
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

			var serviceNames []string
			for _, s := range strings.Split(services, ",") {
				if s = strings.TrimSpace(s); s != "" {
					serviceNames = append(serviceNames, s)
				}
			}
			if len(serviceNames) == 0 {
				return fmt.Errorf("collapse: --services is required")
			}

			results, err := collapse.Run(ctx, db, olderThan, serviceNames)
			if err != nil {
				return err
			}

			common.PrintHeader("Collapse Complete", common.DefaultWidth)
			for i, r := range results {
				fmt.Printf("%s%s: %d accounts collapsed\n", common.BoxPrefix(i == len(results)-1), r.ServiceName, r.AccountsCollapsed)
			}
			common.PrintFooter(fmt.Sprintf("%d services processed", len(results)), common.DefaultWidth)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "collapse confirmed transactions created before now minus this duration")
	cmd.Flags().StringVar(&services, "services", "", "comma-separated list of service names to collapse")

	return cmd
}
