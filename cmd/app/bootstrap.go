package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"signaldesk/configs"
	"signaldesk/internal/infra"
	"signaldesk/pkg/logger"
)

// bootstrap loads config and opens the logger and database shared by every command
func bootstrap(ctx context.Context) (*configs.Config, *logger.Logger, *pgxpool.Pool, error) {
	cfg, err := configs.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := infra.NewDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, nil, nil, err
	}
	return cfg, appLogger, db, nil
}
