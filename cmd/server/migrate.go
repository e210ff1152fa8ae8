package main

import (
	"fmt"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply storage schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return withStore(cmd.Context(), cfg, logger, func(storage.Store) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", cfg.StorageBackend)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
