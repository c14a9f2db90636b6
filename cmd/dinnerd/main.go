package main

import (
	"os"

	"github.com/spf13/cobra"

	"dinnerd/internal/interfaces/cli/migrate"
	"dinnerd/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dinnerd",
		Short: "dinnerd - recipe and meal-planning service",
		Long:  `dinnerd is a REST persistence service for recipes, victuals, meal plans and the principals that own them, guarded by an access-key quota gate.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
