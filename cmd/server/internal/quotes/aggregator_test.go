package quotes_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/quotes"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/testutils"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
)

func TestAggregator_PartialFailure(t *testing.T) {
	t.Parallel()

	src := testutils.NewMockUpstream()
	src.Quotes["A"] = upstream.RawQuote{LastPrice: 10, PreviousClose: 9}
	src.Quotes["C"] = upstream.RawQuote{LastPrice: 30, PreviousClose: 31}
	src.Errs["B"] = upstream.ErrUnavailable

	agg := quotes.NewAggregator(src, []string{"A", "B", "C"}, 1, zap.NewNop())
	snapshot := agg.Snapshot(context.Background())

	require.Len(t, snapshot, 2)
	require.Equal(t, "A", snapshot[0].Symbol)
	require.Equal(t, "C", snapshot[1].Symbol)

	// The failure must not disturb the surviving values
	require.Equal(t, 10.0, snapshot[0].CurrentValue)
	require.Equal(t, -1.0, snapshot[1].Change)
}

func TestAggregator_AllFail(t *testing.T) {
	t.Parallel()

	src := testutils.NewMockUpstream()
	src.Errs["A"] = upstream.ErrUnavailable
	src.Errs["B"] = upstream.ErrUnavailable

	agg := quotes.NewAggregator(src, []string{"A", "B"}, 2, zap.NewNop())
	snapshot := agg.Snapshot(context.Background())

	require.NotNil(t, snapshot)
	require.Empty(t, snapshot)

	// An empty snapshot still serializes as a JSON array
	payload, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.Equal(t, "[]", string(payload))
}

func TestAggregator_OrderPreservedWithConcurrency(t *testing.T) {
	t.Parallel()

	src := testutils.NewMockUpstream()
	tickers := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		sym := fmt.Sprintf("S%02d", i)
		tickers = append(tickers, sym)
		src.Quotes[sym] = upstream.RawQuote{LastPrice: float64(i), PreviousClose: 1}
	}

	agg := quotes.NewAggregator(src, tickers, 8, zap.NewNop())
	snapshot := agg.Snapshot(context.Background())

	require.Len(t, snapshot, 20)
	for i, q := range snapshot {
		require.Equal(t, tickers[i], q.Symbol)
	}
}

func TestAggregator_SymbolsSubsetOfConfigured(t *testing.T) {
	t.Parallel()

	src := testutils.NewMockUpstream()
	src.Quotes["A"] = upstream.RawQuote{LastPrice: 1}
	src.Quotes["B"] = upstream.RawQuote{LastPrice: 2}

	agg := quotes.NewAggregator(src, []string{"A", "B"}, 4, zap.NewNop())
	snapshot := agg.Snapshot(context.Background())

	seen := make(map[string]int)
	configured := map[string]bool{"A": true, "B": true}
	for _, q := range snapshot {
		require.True(t, configured[q.Symbol])
		seen[q.Symbol]++
		require.Equal(t, 1, seen[q.Symbol])
	}
}
