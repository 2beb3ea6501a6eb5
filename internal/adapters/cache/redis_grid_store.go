package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/blob"
	"voyage-routing-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const defaultGridTTL = 6 * time.Hour

// RedisGridStore shares built weather grids between service instances. It
// implements ports.GridSnapshotStore; grids are stored as compressed blobs
// under a prefixed key and expire after the TTL.
type RedisGridStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisGridStore wraps client. A zero ttl uses six hours, which covers
// the interval between forecast runs.
func NewRedisGridStore(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisGridStore, error) {
	if client == nil {
		return nil, errors.New("redis grid store: client is nil")
	}
	if ttl <= 0 {
		ttl = defaultGridTTL
	}
	if prefix == "" {
		prefix = "voyage:grid:"
	}
	return &RedisGridStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisGridStore) GetGrid(ctx context.Context, key string) (_ *grid.Grid, _ bool, err error) {
	defer obs.Time(ctx, "grid.redis.Get")(&err)

	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get grid %q: %w", key, err)
	}

	g, err := blob.DecodeGrid(payload)
	if err != nil {
		// A payload that no longer decodes is dropped so the next build
		// replaces it.
		_ = s.client.Del(ctx, s.prefix+key).Err()
		return nil, false, fmt.Errorf("get grid %q: %w", key, err)
	}
	return g, true, nil
}

func (s *RedisGridStore) PutGrid(ctx context.Context, key string, g *grid.Grid) (err error) {
	defer obs.Time(ctx, "grid.redis.Put")(&err)

	if g == nil {
		return errors.New("put grid: grid is nil")
	}
	payload, err := blob.EncodeGrid(g)
	if err != nil {
		return fmt.Errorf("put grid %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("put grid %q: %w", key, err)
	}
	return nil
}

// Ping checks the connection at start-up.
func (s *RedisGridStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
