package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"cattle_backend/internal/app/di"
	"cattle_backend/internal/feature/prices/adapters/seedfile"
	"cattle_backend/internal/feature/prices/usecase"
	infradb "cattle_backend/internal/platform/db"
	"cattle_backend/internal/platform/logging"
	infraredis "cattle_backend/internal/platform/redis"
	"cattle_backend/internal/shared/ratelimiter"
)

const monthLayout = "2006-01"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logging.Setup(logging.LoadConfig(), os.Stderr)

	from := flag.String("from", "", "first month to scrape (YYYY-MM); defaults to BACKFILL_MONTHS months back")
	to := flag.String("to", "", "last month to scrape (YYYY-MM); defaults to the current month")
	out := flag.String("out", "", "write the collected records to this JSON seed file instead of the database")
	cleanup := flag.Bool("cleanup", false, "remove invalid rows from the database before ingesting")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := run(ctx, *from, *to, *out, *cleanup); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	slog.Info("ingest ok")
}

func run(ctx context.Context, fromFlag, toFlag, out string, cleanup bool) error {
	now := di.NewClock()()
	months := usecase.DefaultBackfillMonths
	if v := os.Getenv("BACKFILL_MONTHS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid BACKFILL_MONTHS %q", v)
		}
		months = n
	}
	from, to, err := monthRange(fromFlag, toFlag, now, months)
	if err != nil {
		return err
	}

	scraper, err := di.NewScraper()
	if err != nil {
		return err
	}
	limiter := ratelimiter.NewRateLimiter(1, time.Second)

	// 書き出しのみの場合はDBを開かない
	if out != "" {
		uc := usecase.NewIngestUsecase(scraper, nil, limiter, usecase.IngestOptions{})
		records, err := uc.CollectMonths(ctx, from, to)
		if err != nil {
			return err
		}
		if err := seedfile.Write(out, records); err != nil {
			return err
		}
		slog.Info("seed file written", "path", out, "count", len(records))
		return nil
	}

	db, err := infradb.OpenDB(infradb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() { _ = infradb.Close(db) }()

	// サーバーのキャッシュを無効化するため、Redisが設定されていればキャッシュ経由で書き込む
	repo, closeRedis := newWriteRepository(ctx, db, infraredis.LoadConfig())
	defer closeRedis()

	uc := usecase.NewIngestUsecase(scraper, repo, limiter, usecase.IngestOptions{})
	if cleanup {
		if _, err := uc.Cleanup(ctx); err != nil {
			return err
		}
	}
	n, err := uc.BackfillMonths(ctx, from, to)
	if err != nil {
		return err
	}
	slog.Info("backfill finished", "from", from.Format(monthLayout), "to", to.Format(monthLayout), "count", n)
	return nil
}

// monthRange resolves the -from/-to flags. Empty flags default to the last
// months months ending with the month of now.
func monthRange(fromFlag, toFlag string, now time.Time, months int) (time.Time, time.Time, error) {
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if toFlag != "" {
		t, err := time.Parse(monthLayout, toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to %q, expected YYYY-MM", toFlag)
		}
		to = t
	}
	from := to.AddDate(0, -(months - 1), 0)
	if fromFlag != "" {
		f, err := time.Parse(monthLayout, fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from %q, expected YYYY-MM", fromFlag)
		}
		from = f
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, usecase.ErrInvalidRange
	}
	return from, to, nil
}

// newWriteRepository returns the store wrapped by the Redis cache when Redis is
// configured and reachable, so writes drop the aggregates a running server
// has cached. Without Redis the store is used directly.
func newWriteRepository(ctx context.Context, db *gorm.DB, cfg infraredis.Config) (usecase.PriceRepository, func()) {
	rdb, err := infraredis.NewRedisClient(ctx, cfg)
	if err != nil {
		if !errors.Is(err, infraredis.ErrNotConfigured) {
			slog.Warn("Redis unavailable. Server cache will not be invalidated.", "error", err)
		}
		return di.NewPriceRepository(nil, db, 0), func() {}
	}
	return di.NewPriceRepository(rdb, db, 0), func() {
		if err := rdb.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
}
