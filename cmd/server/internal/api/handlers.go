package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/repository"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/models"
)

const defaultPeriod = "1mo"

// QuoteSource is the aggregation core the HTTP layer sits on.
type QuoteSource interface {
	Snapshot(ctx context.Context) models.Snapshot
	Chart(ctx context.Context, symbol, period string) (models.ChartSeries, error)
}

type Handler struct {
	quotes QuoteSource
	store  repository.Store
	logger *zap.Logger
}

func NewHandler(quotes QuoteSource, store repository.Store, logger *zap.Logger) *Handler {
	return &Handler{quotes: quotes, store: store, logger: logger}
}

// Stocks runs one ad-hoc aggregation cycle and returns the snapshot.
// Failed tickers are simply absent; the request itself never fails.
func (h *Handler) Stocks(w http.ResponseWriter, r *http.Request) {
	snapshot := h.quotes.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, snapshot)
}

// Chart serves the historical series for one ticker, cached per
// (symbol, period) for a short TTL. Upstream failures surface as a single
// error response; no partial chart data is ever returned.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("ticker")))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing ticker"})
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = defaultPeriod
	}

	if cached, err := h.store.GetChart(r.Context(), symbol, period); err == nil && cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	series, err := h.quotes.Chart(r.Context(), symbol, period)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, upstream.ErrInvalidTicker) {
			status = http.StatusNotFound
		}
		h.logger.Warn("Chart request failed",
			zap.String("symbol", symbol), zap.String("period", period), zap.Error(err))
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	payload, err := json.Marshal(series)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encode chart"})
		return
	}
	if err := h.store.SetChart(r.Context(), symbol, period, payload); err != nil {
		h.logger.Warn("Chart cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
