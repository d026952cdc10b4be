package repository

import (
	"context"
)

// Store caches the current dashboard state: the last published snapshot
// and recent chart responses. Both are short-TTL caches, not history.
type Store interface {
	SaveSnapshot(ctx context.Context, payload []byte) error
	// LatestSnapshot returns nil, nil when no snapshot has been published yet.
	LatestSnapshot(ctx context.Context) ([]byte, error)
	// GetChart returns nil, nil on cache miss.
	GetChart(ctx context.Context, symbol, period string) ([]byte, error)
	SetChart(ctx context.Context, symbol, period string, payload []byte) error
	Close() error
}
