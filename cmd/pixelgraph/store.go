package main

import (
	"context"
	"fmt"

	"github.com/smallnest/pixelgraph/config"
	"github.com/smallnest/pixelgraph/store"
	"github.com/smallnest/pixelgraph/store/memory"
	"github.com/smallnest/pixelgraph/store/postgres"
	"github.com/smallnest/pixelgraph/store/redis"
	"github.com/smallnest/pixelgraph/store/sqlite"
)

// openStore opens the event store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.EventStore, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return memory.NewMemoryEventStore(cfg.MaxRuns), nil
	case config.DriverSQLite:
		return sqlite.NewSqliteEventStore(sqlite.SqliteOptions{Path: cfg.DSN})
	case config.DriverRedis:
		s, err := redis.NewRedisEventStoreFromURL(cfg.DSN, cfg.TTL)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		return postgres.NewPostgresEventStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
