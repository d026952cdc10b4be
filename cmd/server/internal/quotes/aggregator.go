package quotes

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/metrics"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

// Aggregator fetches and normalizes quotes for the configured ticker set.
// One failing ticker never aborts the batch: it is logged, counted, and
// omitted from the snapshot.
type Aggregator struct {
	client  upstream.Client
	tickers []string
	limit   int
	logger  *zap.Logger
}

func NewAggregator(client upstream.Client, tickers []string, maxConcurrency int, logger *zap.Logger) *Aggregator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Aggregator{
		client:  client,
		tickers: tickers,
		limit:   maxConcurrency,
		logger:  logger,
	}
}

// Snapshot runs one aggregation cycle. Fetches run with bounded
// concurrency; results are written by index, so the returned snapshot
// preserves the configured ticker order exactly, minus failed tickers.
func (a *Aggregator) Snapshot(ctx context.Context) models.Snapshot {
	results := make([]*models.Quote, len(a.tickers))

	g := new(errgroup.Group)
	g.SetLimit(a.limit)
	for i, symbol := range a.tickers {
		g.Go(func() error {
			raw, err := a.client.FetchQuote(ctx, symbol)
			if err != nil {
				metrics.QuoteFetchErrors.WithLabelValues(symbol).Inc()
				a.logger.Warn("Quote fetch failed, omitting ticker",
					zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			q := Normalize(symbol, raw)
			results[i] = &q
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	snapshot := make(models.Snapshot, 0, len(a.tickers))
	for _, q := range results {
		if q != nil {
			snapshot = append(snapshot, *q)
		}
	}
	return snapshot
}
