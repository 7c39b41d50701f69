// Package store defines EventStore, the history of simulation runs kept by
// the game server, and hosts its implementations in sub-packages:
//
//   - store/memory: process-local, the default
//   - store/sqlite: a single file via github.com/mattn/go-sqlite3
//   - store/redis: one list per run via github.com/redis/go-redis/v9
//   - store/postgres: a shared table via github.com/jackc/pgx/v5
//
// Every implementation stores events as JSON, so replayed Data values come
// back as generic JSON types (string, float64, map[string]any, ...).
package store
