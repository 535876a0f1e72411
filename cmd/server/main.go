package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"cattle_backend/internal/app/di"
	"cattle_backend/internal/app/router"
	"cattle_backend/internal/feature/prices/adapters/seedfile"
	"cattle_backend/internal/feature/prices/transport/handler"
	"cattle_backend/internal/feature/prices/usecase"
	infradb "cattle_backend/internal/platform/db"
	healthhandler "cattle_backend/internal/platform/http/handler"
	"cattle_backend/internal/platform/logging"
	infraredis "cattle_backend/internal/platform/redis"
	"cattle_backend/internal/shared/ratelimiter"
)

const (
	defaultPort           = "8080"
	defaultSeedPath       = "data/historical.json"
	defaultScrapeInterval = time.Hour
	shutdownTimeout       = 10 * time.Second
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logging.Setup(logging.LoadConfig(), os.Stdout)

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		if err := infradb.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository（Redisがあればキャッシュでラップ）
	priceRepo := di.NewPriceRepository(rdb, db, durationEnv("CACHE_TTL", 0))

	scraper, err := di.NewScraper()
	if err != nil {
		return err
	}

	// Usecase
	clock := di.NewClock()
	pricesUC := usecase.NewPricesUsecase(priceRepo, clock)
	ingestUC := usecase.NewIngestUsecase(scraper, priceRepo, ratelimiter.NewRateLimiter(1, time.Second), usecase.IngestOptions{
		Seed:           seedfile.New(envOr("SEED_PATH", defaultSeedPath)),
		BackfillMonths: intEnv("BACKFILL_MONTHS", usecase.DefaultBackfillMonths),
		Now:            clock,
	})

	// Handler
	pricesH := handler.NewPricesHandler(pricesUC, ingestUC)
	health := healthhandler.NewHealth(func(ctx context.Context) error { return infradb.Ping(ctx, db) })

	// ルータ生成
	r := router.NewRouter(pricesH, health)

	// 起動時処理と定期スクレイピング
	// DBを閉じる前に終了を待つ（deferは逆順に実行される）
	interval := durationEnv("SCRAPE_INTERVAL", defaultScrapeInterval)
	background := runBackground(ctx,
		func(ctx context.Context) { ingestUC.Startup(ctx) },
		func(ctx context.Context) { scheduleScrape(ctx, ingestUC, interval) },
	)
	defer background.Wait()

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", defaultPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		// 待機中のバックグラウンド処理を止める
		stop()
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runBackground は各タスクをゴルーチンで起動し、終了を待つためのWaitGroupを返します。
// タスクは ctx のキャンセルで終了する必要があります。
func runBackground(ctx context.Context, tasks ...func(context.Context)) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task(ctx)
		}()
	}
	return &wg
}

// latestFetcher は定期スクレイピングが使うIngestUsecaseのメソッドです。
type latestFetcher interface {
	FetchLatest(ctx context.Context) (int, error)
}

// scheduleScrape は interval ごとに最新データを取得します。
func scheduleScrape(ctx context.Context, ingest latestFetcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slog.Info("running scheduled scrape")
			if _, err := ingest.FetchLatest(ctx); err != nil {
				slog.Error("scheduled scrape failed", "error", err)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
