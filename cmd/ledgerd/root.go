package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerd",
		Short: "Multi-tenant in-game currency ledger daemon",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newCollapseCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newHoldersCmd())
	root.AddCommand(newServicesCmd())

	return root
}
