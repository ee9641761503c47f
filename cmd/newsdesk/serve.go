package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsdesk/internal/instrument"
	"newsdesk/internal/metadata"
	"newsdesk/internal/server"
	"newsdesk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, reg, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		var metrics *instrument.Metrics
		if cfg.Metrics.Enabled {
			metrics = instrument.New()
		}

		app := server.New(server.Deps{
			Config:   cfg,
			Store:    db,
			Registry: reg,
			Logger:   logger,
			Metrics:  metrics,
		})
		return server.Run(ctx, app, fmt.Sprintf(":%d", cfg.Server.Port), logger)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or extend the tables and seed the first admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("schema up to date")
		return nil
	},
}

// openStore connects, migrates every news entity and seeds the admin account.
func openStore(ctx context.Context) (*store.Store, *metadata.Registry, error) {
	if cfg.Database.IsSQLite() && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(cfg.Database.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("driver", cfg.Database.Driver).Info("database connected")

	reg := metadata.NewNewsRegistry()
	if err := db.Bootstrap(ctx, reg.AllEntities(), cfg.Admin.Email, cfg.Admin.Password, logger); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	return db, reg, nil
}
