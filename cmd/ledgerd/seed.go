package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
)

func newSeedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision CurrencyUnits from a YAML seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			seeds, err := common.LoadUnitSeeds(path)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := common.InitializeStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			common.PrintHeader("Seeding Currency Units", common.DefaultWidth)

			var created, skipped int
			for i, u := range seeds {
				err := db.CreateCurrencyUnit(ctx, models.CurrencyUnit{
					Symbol:            u.Symbol,
					Measurement:       u.Measurement,
					Precision:         u.Precision,
					IsNegativeAllowed: u.IsNegativeAllowed,
				})
				prefix := common.BoxPrefix(i == len(seeds)-1)
				var ledgerErr *ledgererr.Error
				if errors.As(err, &ledgerErr) && ledgerErr.Kind == ledgererr.KindConflict {
					fmt.Printf("%s%s: already exists, skipped\n", prefix, u.Symbol)
					skipped++
					continue
				}
				if err != nil {
					return fmt.Errorf("seed unit %s: %w", u.Symbol, err)
				}
				fmt.Printf("%s%s: created\n", prefix, u.Symbol)
				created++
			}

			common.PrintFooter(fmt.Sprintf("%d created, %d skipped", created, skipped), common.DefaultWidth)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "units.yaml", "path to the unit seed YAML file")

	return cmd
}
