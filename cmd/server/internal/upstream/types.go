package upstream

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable: transport failure, 5xx, or open circuit breaker.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrInvalidTicker: upstream does not know the requested symbol.
	ErrInvalidTicker = errors.New("unknown ticker")
	// ErrNoData: upstream answered but the payload carried no usable record.
	ErrNoData = errors.New("upstream returned no data")
)

// RawQuote is one upstream quote record. Fields the upstream omits decode
// to zero values; the normalizer treats those as "missing, default 0".
type RawQuote struct {
	Symbol        string
	LastPrice     float64
	PreviousClose float64
	Volume        int64
	MarketCap     float64
	PERatio       float64
	EPS           float64
}

// RawBar is one historical bar, chronological within a series.
type RawBar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Client is the market-data source. Any call may fail or return
// partially-populated records; callers must tolerate both.
type Client interface {
	FetchQuote(ctx context.Context, symbol string) (RawQuote, error)
	FetchHistory(ctx context.Context, symbol, period string) ([]RawBar, error)
}
