package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKey    = "dashboard:snapshot"
	chartKeyPrefix = "chart:"
)

// Compile-time check to ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	client      *redis.Client
	snapshotTTL time.Duration
	chartTTL    time.Duration
}

func NewRedisStore(client *redis.Client, snapshotTTL, chartTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:      client,
		snapshotTTL: snapshotTTL,
		chartTTL:    chartTTL,
	}
}

// SaveSnapshot stores the most recently published snapshot. The TTL keeps
// the key from outliving a stopped poller.
func (r *RedisStore) SaveSnapshot(ctx context.Context, payload []byte) error {
	return r.client.Set(ctx, snapshotKey, payload, r.snapshotTTL).Err()
}

func (r *RedisStore) LatestSnapshot(ctx context.Context) ([]byte, error) {
	payload, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisStore) GetChart(ctx context.Context, symbol, period string) ([]byte, error) {
	payload, err := r.client.Get(ctx, chartKey(symbol, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisStore) SetChart(ctx context.Context, symbol, period string, payload []byte) error {
	return r.client.Set(ctx, chartKey(symbol, period), payload, r.chartTTL).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func chartKey(symbol, period string) string {
	return fmt.Sprintf("%s%s:%s", chartKeyPrefix, strings.ToUpper(symbol), period)
}
