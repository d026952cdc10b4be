package models

// Quote is one normalized per-ticker entry in a snapshot. Field names are
// the dashboard wire format; decimal fields carry 2 fractional digits.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CurrentValue  float64 `json:"currentValue"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePct     float64 `json:"changePct"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"marketCap"`
	PERatio       float64 `json:"peRatio"`
	EPS           float64 `json:"eps"`
}

// Snapshot is one complete aggregation cycle: quotes in configured ticker
// order, failed tickers omitted entirely (never null-filled).
type Snapshot []Quote

// ChartSeries is a historical bar series as parallel arrays, chronological.
// "prices" holds the per-bar close.
type ChartSeries struct {
	Dates   []string  `json:"dates"`
	Prices  []float64 `json:"prices"`
	Volumes []int64   `json:"volumes"`
	High    []float64 `json:"high"`
	Low     []float64 `json:"low"`
	Open    []float64 `json:"open"`
}
