package poller

import (
	"context"
	"time"

	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

// Clock abstracts time for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Snapshotter produces one aggregation cycle's worth of quotes
type Snapshotter interface {
	Snapshot(ctx context.Context) models.Snapshot
}

// Broadcaster fans one serialized snapshot out to all subscribers
type Broadcaster interface {
	Broadcast(payload []byte)
}

// SnapshotStore keeps the last published snapshot for late joiners
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, payload []byte) error
}
