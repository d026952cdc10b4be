package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/metrics"
	"github.com/MarkYing2014/stock-dashboard/pkg/config"
)

// YahooClient fetches quotes and history from a Yahoo-Finance-shaped API.
// All requests are retried with exponential backoff and guarded by a
// circuit breaker so a dead upstream fails fast instead of stacking
// timeouts into every polling cycle.
type YahooClient struct {
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	retryMax time.Duration
}

var _ Client = (*YahooClient)(nil)

func NewYahooClient(cfg config.UpstreamConfig, logger *zap.Logger) *YahooClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		ForceAttemptHTTP2:   true,
		IdleConnTimeout:     90 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "market-data",
		Interval: 30 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Upstream circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &YahooClient{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: cfg.Timeout(), Transport: transport},
		breaker:  breaker,
		retryMax: cfg.RetryMaxElapsed(),
	}
}

// FetchQuote returns the latest quote record for one symbol.
func (c *YahooClient) FetchQuote(ctx context.Context, symbol string) (RawQuote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var resp quoteResponse
	if err := c.getJSON(ctx, "quote", u, &resp); err != nil {
		return RawQuote{}, err
	}

	results := resp.QuoteResponse.Result
	if len(results) == 0 {
		return RawQuote{}, fmt.Errorf("quote %s: %w", symbol, ErrInvalidTicker)
	}

	r := results[0]
	return RawQuote{
		Symbol:        r.Symbol,
		LastPrice:     r.RegularMarketPrice,
		PreviousClose: r.RegularMarketPreviousClose,
		Volume:        int64(r.RegularMarketVolume), // truncate, upstream types this loosely
		MarketCap:     r.MarketCap,
		PERatio:       r.ForwardPE,
		EPS:           r.EpsTrailingTwelveMonths,
	}, nil
}

// FetchHistory returns the historical bar series for one symbol. The period
// token (e.g. "1mo") is passed through to the upstream range parameter.
func (c *YahooClient) FetchHistory(ctx context.Context, symbol, period string) ([]RawBar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period))

	var resp chartResponse
	if err := c.getJSON(ctx, "chart", u, &resp); err != nil {
		return nil, err
	}

	results := resp.Chart.Result
	if resp.Chart.Error != nil || len(results) == 0 {
		return nil, fmt.Errorf("chart %s: %w", symbol, ErrInvalidTicker)
	}

	r := results[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart %s: %w", symbol, ErrNoData)
	}

	q := r.Indicators.Quote[0]
	bars := make([]RawBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bar := RawBar{Timestamp: ts}
		if i < len(q.Open) {
			bar.Open = q.Open[i]
		}
		if i < len(q.High) {
			bar.High = q.High[i]
		}
		if i < len(q.Low) {
			bar.Low = q.Low[i]
		}
		if i < len(q.Close) {
			bar.Close = q.Close[i]
		}
		if i < len(q.Volume) {
			bar.Volume = int64(q.Volume[i])
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// getJSON runs one GET through the breaker with retries and decodes into v.
// 4xx responses are permanent (no retry); transport errors and 5xx retry
// until retryMax elapses.
func (c *YahooClient) getJSON(ctx context.Context, endpoint, rawURL string, v any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = c.retryMax

	operation := func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doOnce(ctx, endpoint, rawURL, v)
		})
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return backoff.Permanent(fmt.Errorf("%v: %w", err, ErrUnavailable))
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return err
	}
	return nil
}

func (c *YahooClient) doOnce(ctx context.Context, endpoint, rawURL string, v any) error {
	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "stock-dashboard/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("status 404: %w", ErrInvalidTicker))
	case resp.StatusCode >= 500:
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnavailable))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, ErrNoData)
	}
	return nil
}

// Yahoo wire shapes.

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
	ForwardPE                  float64 `json:"forwardPE"`
	EpsTrailingTwelveMonths    float64 `json:"epsTrailingTwelveMonths"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`
}
