package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gobwas/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/api"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/gateway"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/hub"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/poller"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/quotes"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/repository"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
	"github.com/MarkYing2014/stock-dashboard/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.App)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	store := repository.NewRedisStore(rdb, cfg.Redis.SnapshotTTL(), cfg.Redis.ChartTTL())

	client := upstream.NewYahooClient(cfg.Upstream, logger)
	aggregator := quotes.NewAggregator(client, cfg.Poller.Tickers, cfg.Poller.MaxConcurrency, logger)

	wsHub := hub.NewHub(store, logger)

	loop := poller.New(aggregator, wsHub, store, poller.RealClock{},
		cfg.Poller.Interval(), cfg.Poller.FetchTimeout(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	handler := api.NewHandler(aggregator, store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stocks", handler.Stocks)
	mux.HandleFunc("GET /api/stock/{ticker}/chart", handler.Chart)
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		sub := gateway.NewClient(conn, wsHub, logger)
		wsHub.Register(sub)
		sub.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: api.CORS(cfg.App.CORSOrigins)(mux)}

	go func() {
		logger.Info("Server Started",
			zap.String("port", cfg.App.Port),
			zap.Strings("tickers", cfg.Poller.Tickers))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	cancel()
	srv.Shutdown(context.Background())
	store.Close()
	logger.Info("Shutdown Complete")
}
