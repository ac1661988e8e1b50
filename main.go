package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/PressureTank/PassStore/backend/config"
	"github.com/PressureTank/PassStore/backend/database/scylla"
	"github.com/PressureTank/PassStore/backend/database/sqlite"
	"github.com/PressureTank/PassStore/backend/server"
	"github.com/PressureTank/PassStore/backend/user"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // Flushes buffer, if any

	if err := run(logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Open the store and make sure the schema and statements are ready
	// before accepting traffic.
	var db user.Database
	switch cfg.Driver {
	case config.DriverSQLite:
		sqlDB, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		store, err := sqlite.Setup(ctx, sqlDB, logger)
		if err != nil {
			return fmt.Errorf("unable to set up sqlite: %w", err)
		}
		defer store.Close()
		db = store
	default:
		session, err := scylla.Connect(cfg.ScyllaURI)
		if err != nil {
			return fmt.Errorf("unable to connect to Scylla: %w", err)
		}
		defer session.Close()

		store, err := scylla.Setup(ctx, session, logger)
		if err != nil {
			return fmt.Errorf("unable to set up Scylla DB: %w", err)
		}
		db = store
	}

	srv := server.New(config.ListenAddr, server.NewRouter(db, logger))

	logger.Info("Server started", zap.String("addr", config.ListenAddr), zap.String("driver", cfg.Driver))
	return srv.ListenAndServe()
}
