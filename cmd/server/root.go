package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/config"
	"github.com/richdownie/healthme/internal/storage"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "healthme",
	Short:        "Daily health tracking service",
	Long:         "healthme records daily health activities, aggregates them per day and serves the JSON API.",
	SilenceUsage: true,
}

var envFile string

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file before reading config")
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

// withStore opens the configured backend (migrating SQL schemas) for the duration of run.
func withStore(ctx context.Context, cfg *config.Config, logger internal.Logger, run func(storage.Store) error) error {
	if err := ensureDataDirs(cfg); err != nil {
		return err
	}
	store, err := storage.Open(ctx, cfg.StorageOptions(), logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return run(store)
}

func ensureDataDirs(cfg *config.Config) error {
	var paths []string
	switch cfg.StorageBackend {
	case storage.BackendSQLite:
		paths = []string{cfg.SQLitePath}
	case storage.BackendFile, "":
		paths = []string{cfg.ActivitiesFile, cfg.UsersFile}
	}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dir == "." || dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}
