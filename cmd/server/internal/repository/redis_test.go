package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/repository"
)

func newStore(t *testing.T) (*repository.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return repository.NewRedisStore(rdb, time.Hour, 5*time.Minute), mr
}

func TestSnapshot_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	payload := []byte(`[{"symbol":"PLTR"}]`)
	require.NoError(t, store.SaveSnapshot(ctx, payload))

	got, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestSnapshot_MissReturnsNil(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.LatestSnapshot(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestChart_RoundTripAndExpiry(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	payload := []byte(`{"dates":["2024-01-01"]}`)
	require.NoError(t, store.SetChart(ctx, "pltr", "1mo", payload))

	// Symbol lookup is case-insensitive (keys are uppercased)
	got, err := store.GetChart(ctx, "PLTR", "1mo")
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// A different period is a separate cache entry
	got, err = store.GetChart(ctx, "PLTR", "1y")
	require.NoError(t, err)
	require.Nil(t, got)

	mr.FastForward(6 * time.Minute)

	got, err = store.GetChart(ctx, "PLTR", "1mo")
	require.NoError(t, err)
	require.Nil(t, got)
}
