package main

import (
	"context"

	"foodapp/internal/infra/db"
	"foodapp/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.AddCommand(
		migrateSubCmd("up", "Apply all pending migrations", db.MigrateUp),
		migrateSubCmd("down", "Roll back the latest migration", db.MigrateDown),
		migrateSubCmd("status", "Show migration status", db.MigrateStatus),
	)
	return cmd
}

func migrateSubCmd(use, short string, run func(ctx context.Context, gormDB *gorm.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.LogLevel, cfg.GoEnv)

			gormDB, err := db.Connect(cfg.DSN(), false)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gormDB) }()

			if err := run(cmd.Context(), gormDB); err != nil {
				return err
			}
			log.Info("migrate done", "command", use)
			return nil
		},
	}
}
