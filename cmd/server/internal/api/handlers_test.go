package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/api"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/quotes"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/testutils"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

func newServer(t *testing.T, src *testutils.MockUpstream, store *testutils.MockStore) *httptest.Server {
	t.Helper()

	agg := quotes.NewAggregator(src, []string{"A", "B", "C"}, 2, zap.NewNop())
	handler := api.NewHandler(agg, store, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stocks", handler.Stocks)
	mux.HandleFunc("GET /api/stock/{ticker}/chart", handler.Chart)
	mux.HandleFunc("GET /healthz", handler.Healthz)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStocks_ReturnsSnapshotMinusFailures(t *testing.T) {
	src := testutils.NewMockUpstream()
	src.Quotes["A"] = upstream.RawQuote{LastPrice: 10, PreviousClose: 8}
	src.Errs["B"] = upstream.ErrUnavailable
	src.Quotes["C"] = upstream.RawQuote{LastPrice: 30, PreviousClose: 30}

	srv := newServer(t, src, testutils.NewMockStore())

	resp, err := http.Get(srv.URL + "/api/stocks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot models.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Len(t, snapshot, 2)
	require.Equal(t, "A", snapshot[0].Symbol)
	require.Equal(t, "C", snapshot[1].Symbol)
	require.Equal(t, 25.0, snapshot[0].ChangePct)
}

func TestChart_Success(t *testing.T) {
	src := testutils.NewMockUpstream()
	src.Bars["A"] = []upstream.RawBar{
		{Timestamp: 1704067200, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
	}
	store := testutils.NewMockStore()

	srv := newServer(t, src, store)

	resp, err := http.Get(srv.URL + "/api/stock/a/chart?period=1mo")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var series models.ChartSeries
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&series))
	require.Equal(t, []string{"2024-01-01"}, series.Dates)
	require.Equal(t, []float64{1.5}, series.Prices)

	// Response must have been cached under the uppercased symbol
	cached, _ := store.GetChart(t.Context(), "A", "1mo")
	require.NotNil(t, cached)
}

func TestChart_CacheHitSkipsUpstream(t *testing.T) {
	src := testutils.NewMockUpstream() // knows no symbols at all
	store := testutils.NewMockStore()
	payload := []byte(`{"dates":["2024-02-02"],"prices":[9.99],"volumes":[1],"high":[10],"low":[9],"open":[9.5]}`)
	require.NoError(t, store.SetChart(t.Context(), "A", "1mo", payload))

	srv := newServer(t, src, store)

	resp, err := http.Get(srv.URL + "/api/stock/A/chart?period=1mo")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var series models.ChartSeries
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&series))
	require.Equal(t, []float64{9.99}, series.Prices)
}

func TestChart_UnknownTickerIs404(t *testing.T) {
	srv := newServer(t, testutils.NewMockUpstream(), testutils.NewMockStore())

	resp, err := http.Get(srv.URL + "/api/stock/NOPE/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Contains(t, body, "error")
}

func TestChart_UpstreamDownIs502(t *testing.T) {
	src := testutils.NewMockUpstream()
	src.Errs["A"] = upstream.ErrUnavailable

	srv := newServer(t, src, testutils.NewMockStore())

	resp, err := http.Get(srv.URL + "/api/stock/A/chart")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, testutils.NewMockUpstream(), testutils.NewMockStore())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(api.CORS([]string{"http://localhost:3000"})(mux))
	t.Cleanup(srv.Close)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
