package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
)

// RedisEventStore implements store.EventStore using Redis.
// Each run is a list of JSON events; a sorted set indexes runs by the
// time of their latest event.
type RedisEventStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ store.EventStore = (*RedisEventStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "pixelgraph:"
	TTL      time.Duration // Expiration for run events, default 0 (no expiration)
}

// NewRedisEventStore creates a new Redis event store
func NewRedisEventStore(opts RedisOptions) *RedisEventStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "pixelgraph:"
	}

	return &RedisEventStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// NewRedisEventStoreFromURL parses a redis:// URL.
func NewRedisEventStoreFromURL(rawURL string, ttl time.Duration) (*RedisEventStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisEventStore{
		client: redis.NewClient(opts),
		prefix: "pixelgraph:",
		ttl:    ttl,
	}, nil
}

func (s *RedisEventStore) runKey(runID string) string {
	return fmt.Sprintf("%srun:%s:events", s.prefix, runID)
}

func (s *RedisEventStore) runsKey() string {
	return s.prefix + "runs"
}

// Append records an event at the end of a run.
func (s *RedisEventStore) Append(ctx context.Context, runID string, event schemas.GameEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := s.runKey(runID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.ZAdd(ctx, s.runsKey(), redis.Z{
		Score:  float64(event.Timestamp.UnixMilli()),
		Member: runID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event to redis: %w", err)
	}
	return nil
}

// List returns the events of a run in append order.
func (s *RedisEventStore) List(ctx context.Context, runID string) ([]schemas.GameEvent, error) {
	raw, err := s.client.LRange(ctx, s.runKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if len(raw) == 0 {
		return nil, store.ErrRunNotFound
	}

	events := make([]schemas.GameEvent, 0, len(raw))
	for _, item := range raw {
		ev, err := decodeEvent(item)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Runs returns all runs, most recently updated first. Runs whose events
// have expired are dropped from the index.
func (s *RedisEventStore) Runs(ctx context.Context) ([]store.RunSummary, error) {
	ids, err := s.client.ZRevRange(ctx, s.runsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	type runCmds struct {
		count         *redis.IntCmd
		first, latest *redis.StringCmd
	}
	cmds := make([]runCmds, len(ids))
	pipe := s.client.Pipeline()
	for i, id := range ids {
		key := s.runKey(id)
		cmds[i] = runCmds{
			count:  pipe.LLen(ctx, key),
			first:  pipe.LIndex(ctx, key, 0),
			latest: pipe.LIndex(ctx, key, -1),
		}
	}
	if len(ids) > 0 {
		// LIndex on a missing key reports redis.Nil, checked per command below
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("failed to summarise runs: %w", err)
		}
	}

	runs := []store.RunSummary{}
	var expired []any
	for i, id := range ids {
		count := cmds[i].count.Val()
		if count == 0 {
			expired = append(expired, id)
			continue
		}
		first, err := decodeEvent(cmds[i].first.Val())
		if err != nil {
			return nil, err
		}
		latest, err := decodeEvent(cmds[i].latest.Val())
		if err != nil {
			return nil, err
		}
		runs = append(runs, store.RunSummary{
			RunID:     id,
			Events:    int(count),
			StartedAt: first.Timestamp,
			UpdatedAt: latest.Timestamp,
		})
	}

	if len(expired) > 0 {
		s.client.ZRem(ctx, s.runsKey(), expired...)
	}
	return runs, nil
}

// Clear removes all events of a run.
func (s *RedisEventStore) Clear(ctx context.Context, runID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.runKey(runID))
	pipe.ZRem(ctx, s.runsKey(), runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (s *RedisEventStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the redis client
func (s *RedisEventStore) Close() error {
	return s.client.Close()
}

func decodeEvent(raw string) (schemas.GameEvent, error) {
	var ev schemas.GameEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return ev, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}
	return ev, nil
}
