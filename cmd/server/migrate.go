package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teebalk/marketplace/internal/infrastructure/logger"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create missing tables, columns and indexes for every marketplace
model. Existing columns and data are never dropped.

Examples:
  server migrate
  MARKET_DATABASE_DRIVER=postgres server migrate --timeout 5m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			db, err := persistence.NewDatabase(&cfg.Database,
				persistence.WithLogger(logger.NewGormLogger(log, logger.GormConfig{Level: cfg.Log.Level})))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			if err := db.AutoMigrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info("Database schema up to date",
				zap.String("driver", db.DB.Dialector.Name()),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "abort the migration after this long")
	return cmd
}
