package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/fides-protocol/fides/core/pkg/config"
	"github.com/fides-protocol/fides/core/pkg/engine"
	"github.com/fides-protocol/fides/core/pkg/ledger"
	"github.com/fides-protocol/fides/core/pkg/revindex"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver (CGO-free)
)

// configureLogging applies the configured log level to the default slog
// handler.
func configureLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetLogLoggerLevel(level)
}

// openStore opens the configured ledger backend.
func openStore(ctx context.Context, cfg *config.Config) (ledger.Store, func(), error) {
	slog.Debug("opening ledger store", "backend", cfg.Backend)
	switch cfg.Backend {
	case config.BackendMemory:
		return ledger.NewMemStore(), func() {}, nil
	case config.BackendSQLite:
		db, err := sql.Open("sqlite", cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		s, err := ledger.NewSQLStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		s, err := ledger.NewSQLStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// engineOptions builds the optional engine wiring from configuration: the
// Redis revocation index when an address is configured.
func engineOptions(cfg *config.Config, opts ...engine.Option) []engine.Option {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, engine.WithRevocationIndex(revindex.NewRedisIndex(client)))
	}
	return opts
}
