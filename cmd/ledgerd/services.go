package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ar1ocker/currencyledger/internal/common"
	"github.com/ar1ocker/currencyledger/internal/config"
	"github.com/ar1ocker/currencyledger/internal/models"
)

func newServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage registered CurrencyServices",
	}

	cmd.AddCommand(newServicesListCmd())
	cmd.AddCommand(newServicesRegisterCmd())

	return cmd
}

func newServicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered services",
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

			services, err := db.ListServices(ctx)
			if err != nil {
				return err
			}

			common.PrintHeader("Currency Services", common.DefaultWidth)
			for i, svc := range services {
				status := "enabled"
				if !svc.Enabled {
					status = "disabled"
				}
				fmt.Printf("%s%s (%s)\n", common.BoxPrefix(i == len(services)-1), svc.Name, status)
			}
			common.PrintFooter(fmt.Sprintf("%d services", len(services)), common.DefaultWidth)
			return nil
		},
	}
}

// newServicesRegisterCmd provisions a CurrencyService and its ServiceAuth
// key in one step; the pair is always created together since a service is
// useless to the HMAC Auth gate without one (spec.md §4.8).
func newServicesRegisterCmd() *cobra.Command {
	var name, key, permissionsFile string
	var battlemetrics bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new CurrencyService with its HMAC auth key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if key == "" {
				return fmt.Errorf("--key is required")
			}

			permissions := json.RawMessage("{}")
			if permissionsFile != "" {
				raw, err := os.ReadFile(permissionsFile)
				if err != nil {
					return fmt.Errorf("read permissions file: %w", err)
				}
				permissions = json.RawMessage(raw)
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

			svc := models.CurrencyService{Id: uuid.NewString(), Name: name, Enabled: true, Permissions: permissions}
			if err := db.CreateService(ctx, svc); err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			auth := models.ServiceAuth{Id: uuid.NewString(), ServiceId: svc.Id, Key: key, IsBattlemetrics: battlemetrics}
			if err := db.CreateServiceAuth(ctx, auth); err != nil {
				return fmt.Errorf("create service auth: %w", err)
			}

			common.PrintHeader("Service Registered", common.DefaultWidth)
			fmt.Printf("%s%s\n", common.BoxPrefix(false), svc.Name)
			common.PrintFooter(svc.Id, common.DefaultWidth)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "unique service name (required)")
	cmd.Flags().StringVar(&key, "key", "", "HMAC signing key (required)")
	cmd.Flags().StringVar(&permissionsFile, "permissions-file", "", "path to a JSON permission document (default: {})")
	cmd.Flags().BoolVar(&battlemetrics, "battlemetrics", false, "use the Battlemetrics single-header HMAC scheme")

	return cmd
}
