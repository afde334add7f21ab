package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/solar-quotes/internal/common"
	repo "github.com/joseph-ayodele/solar-quotes/internal/repository"
)

// ConnectDB establishes a connection pool to the history database.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, timeout time.Duration) error {
	return repo.HealthCheck(ctx, pool, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(pool *pgxpool.Pool, logger *slog.Logger) {
	repo.Close(pool, logger)
}

// OpenHistory opens the run history named by cfg.DSN. A "sqlite:" prefix selects
// a local file (or ":memory:"); anything else is a Postgres DSN. An empty DSN
// returns a nil repository: history is optional.
func OpenHistory(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (repo.RunRepository, func(), error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		logger.Info("run history disabled", "reason", "DB_URL not set")
		return nil, func() {}, nil
	}

	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		db, err := repo.OpenSQLite(ctx, path, logger)
		if err != nil {
			return nil, nil, err
		}
		runs := repo.NewSQLiteRunRepository(db, logger)
		if err := runs.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return runs, func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close sqlite", "error", err)
			}
		}, nil
	}

	pool, err := ConnectDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := PingDB(ctx, pool, logger, cfg.DialTimeout); err != nil {
		CloseDB(pool, logger)
		return nil, nil, err
	}
	runs := repo.NewRunRepository(pool, logger)
	if err := runs.EnsureSchema(ctx); err != nil {
		CloseDB(pool, logger)
		return nil, nil, err
	}
	return runs, func() { CloseDB(pool, logger) }, nil
}
