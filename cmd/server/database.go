package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/platform/postgres"
	"github.com/phrazzld/scry-tutor/internal/platform/sqlite"
)

// purgingStore is a durable cache tier that can drop expired rows.
type purgingStore interface {
	cache.Store
	PurgeExpired(ctx context.Context) (int64, error)
}

// durableTier is the open database behind the answer cache.
type durableTier struct {
	driver string
	db     *sql.DB
	store  purgingStore
}

func (d *durableTier) close(logger *slog.Logger) {
	if err := d.db.Close(); err != nil {
		logger.Error("error closing database connection", "driver", d.driver, "error", err)
	}
}

// openDurableTier connects to the configured database and prepares its schema.
// Driver "none" returns nil.
func openDurableTier(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*durableTier, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("database connection established", "driver", cfg.Driver)
		return &durableTier{
			driver: cfg.Driver,
			db:     db,
			store:  postgres.NewAnswerCacheStore(db, logger.With("component", "answer_cache")),
		}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established", "driver", cfg.Driver, "path", cfg.URL)
		return &durableTier{
			driver: cfg.Driver,
			db:     db,
			store:  sqlite.NewAnswerCacheStore(db, logger.With("component", "answer_cache")),
		}, nil

	default:
		logger.Info("no durable cache tier configured")
		return nil, nil
	}
}

// runCacheJanitor deletes expired durable cache rows every interval until ctx ends.
func runCacheJanitor(ctx context.Context, store purgingStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired cache entries", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired cache entries", "count", n)
			}
		}
	}
}
