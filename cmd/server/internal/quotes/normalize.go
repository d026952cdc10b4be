package quotes

import (
	"math"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

// round2 rounds half away from zero to 2 fractional digits.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Normalize converts one raw upstream record into a Quote. Missing upstream
// numerics arrive as zero and stay zero; changePct divides by previousClose
// unless it is 0, in which case the denominator falls back to 1 so the
// result is always finite.
func Normalize(symbol string, raw upstream.RawQuote) models.Quote {
	change := raw.LastPrice - raw.PreviousClose

	denom := raw.PreviousClose
	if denom == 0 {
		denom = 1
	}
	changePct := change / denom * 100

	volume := raw.Volume
	if volume < 0 {
		volume = 0
	}
	marketCap := raw.MarketCap
	if marketCap < 0 {
		marketCap = 0
	}

	return models.Quote{
		Symbol:        symbol,
		CurrentValue:  round2(raw.LastPrice),
		PreviousClose: round2(raw.PreviousClose),
		Change:        round2(change),
		ChangePct:     round2(changePct),
		Volume:        volume,
		MarketCap:     marketCap,
		PERatio:       round2(raw.PERatio),
		EPS:           raw.EPS,
	}
}
