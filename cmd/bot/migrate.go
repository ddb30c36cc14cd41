package main

import (
	"context"
	"time"

	"kind-match/internal/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := postgres.New(cfg.PostgresDSN, log)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if err := store.Migrate(ctx); err != nil {
			log.Error("migration failed", zap.Error(err))
			return err
		}

		log.Info("database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
