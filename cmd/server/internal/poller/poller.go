package poller

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/metrics"
)

// Poller drives the fetch→publish cycle on a fixed cadence: one
// aggregation, one broadcast, then the configured delay. The delay runs
// after publishing, so total cycle time is fetch+publish plus the
// interval. The loop never exits on a failed cycle; an empty or partial
// snapshot is still published.
type Poller struct {
	agg          Snapshotter
	hub          Broadcaster
	store        SnapshotStore
	clock        Clock
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
}

func New(agg Snapshotter, hub Broadcaster, store SnapshotStore, clock Clock,
	interval, fetchTimeout time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		agg:          agg,
		hub:          hub,
		store:        store,
		clock:        clock,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Run loops until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Poller started",
		zap.Duration("interval", p.interval),
		zap.Duration("fetch_timeout", p.fetchTimeout))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return
		default:
			p.cycle(ctx)
			p.clock.Sleep(p.interval)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	start := p.clock.Now()

	// Guard against a slow upstream stacking cycles
	fctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	snapshot := p.agg.Snapshot(fctx)
	cancel()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		p.logger.Error("Snapshot marshal failed", zap.Error(err))
		return
	}

	p.hub.Broadcast(payload)

	if err := p.store.SaveSnapshot(ctx, payload); err != nil {
		p.logger.Error("Snapshot save failed", zap.Error(err))
	}

	metrics.PollCycles.Inc()
	metrics.CycleDuration.Observe(p.clock.Now().Sub(start).Seconds())
	p.logger.Debug("Cycle published", zap.Int("quotes", len(snapshot)))
}
