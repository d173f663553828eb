package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/config"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
)

var rootCmd = &cobra.Command{
	Use:           "psychd",
	Short:         "Psychometric assessment service",
	Long:          "psychd assigns psychometric tests to candidates, runs timed attempts and scores them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver, sqlite or postgres (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database DSN (overrides DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig reads the env file and environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	return cfg
}

func openDB(ctx context.Context, cfg config.Config) (*db.DB, error) {
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	d, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return d, nil
}
