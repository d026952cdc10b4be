package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

// Chart fetches the historical series for one symbol. Unlike snapshot
// aggregation, a chart request fails as a whole: no partial series is ever
// returned.
func (a *Aggregator) Chart(ctx context.Context, symbol, period string) (models.ChartSeries, error) {
	bars, err := a.client.FetchHistory(ctx, symbol, period)
	if err != nil {
		return models.ChartSeries{}, fmt.Errorf("chart %s (%s): %w", symbol, period, err)
	}
	return NormalizeChart(bars), nil
}

// NormalizeChart converts raw bars into the parallel-array chart shape:
// ISO dates, 2-decimal prices, integer volumes, upstream order preserved.
func NormalizeChart(bars []upstream.RawBar) models.ChartSeries {
	series := models.ChartSeries{
		Dates:   make([]string, 0, len(bars)),
		Prices:  make([]float64, 0, len(bars)),
		Volumes: make([]int64, 0, len(bars)),
		High:    make([]float64, 0, len(bars)),
		Low:     make([]float64, 0, len(bars)),
		Open:    make([]float64, 0, len(bars)),
	}
	for _, b := range bars {
		series.Dates = append(series.Dates, time.Unix(b.Timestamp, 0).UTC().Format("2006-01-02"))
		series.Prices = append(series.Prices, round2(b.Close))
		series.Volumes = append(series.Volumes, b.Volume)
		series.High = append(series.High, round2(b.High))
		series.Low = append(series.Low, round2(b.Low))
		series.Open = append(series.Open, round2(b.Open))
	}
	return series
}
