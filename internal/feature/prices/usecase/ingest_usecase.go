package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/shared/ratelimiter"
)

// DefaultBackfillMonths は初回起動時に再取得する月数の既定値です。
const DefaultBackfillMonths = 2

// MarketScraper は市場サイトから価格データを取得するインターフェースです。
// 失敗は実装側でログに出力され、空の結果として返されます。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketScraper interface {
	Scrape(ctx context.Context, start, end time.Time) []entity.PriceRecord
	ScrapeMonth(ctx context.Context, year int, month time.Month) []entity.PriceRecord
}

// SeedSource はバンドルされた過去データを読み込むインターフェースです。
type SeedSource interface {
	Load() ([]entity.PriceRecord, error)
}

// IngestOptions は IngestUsecase の任意設定です。
type IngestOptions struct {
	Seed           SeedSource       // nil の場合はシードを使わず再取得する
	BackfillMonths int              // 0 以下の場合は DefaultBackfillMonths
	Now            func() time.Time // nil の場合は time.Now
}

// IngestUsecase は市場サイトからデータを取得し、データベースに永続化するユースケースを定義します。
// 一括バックフィルを実行できるのはこのユースケースだけです。
type IngestUsecase struct {
	market         MarketScraper
	prices         PriceWriter
	rateLimiter    ratelimiter.RateLimiterInterface
	seed           SeedSource
	backfillMonths int
	now            func() time.Time
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketScraper, prices PriceWriter, rateLimiter ratelimiter.RateLimiterInterface, opts IngestOptions) *IngestUsecase {
	if opts.BackfillMonths <= 0 {
		opts.BackfillMonths = DefaultBackfillMonths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &IngestUsecase{
		market:         market,
		prices:         prices,
		rateLimiter:    rateLimiter,
		seed:           opts.Seed,
		backfillMonths: opts.BackfillMonths,
		now:            opts.Now,
	}
}

// FetchLatest は期間指定なしで最新データを取得して保存し、保存件数を返します。
// 取得結果が空の場合は「新しいデータなし」として 0 を返します。
func (iu *IngestUsecase) FetchLatest(ctx context.Context) (int, error) {
	records := iu.market.Scrape(ctx, time.Time{}, time.Time{})
	if len(records) == 0 {
		slog.Info("no new price data")
		return 0, nil
	}
	if err := iu.prices.UpsertBatch(ctx, records); err != nil {
		return 0, err
	}
	slog.Info("saved latest prices", "count", len(records))
	return len(records), nil
}

// CollectMonths は from から to までの各月を順に取得し、日付で重複を除いて昇順に並べて返します。
// 月ごとのリクエストはレートリミッタで間隔を空けます。
func (iu *IngestUsecase) CollectMonths(ctx context.Context, from, to time.Time) ([]entity.PriceRecord, error) {
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	if first.After(last) {
		return nil, ErrInvalidRange
	}

	var all []entity.PriceRecord
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		if iu.rateLimiter != nil {
			if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
				return nil, err
			}
		}
		records := iu.market.ScrapeMonth(ctx, m.Year(), m.Month())
		slog.Info("scraped month", "year", m.Year(), "month", int(m.Month()), "count", len(records))
		all = append(all, records...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date < all[j].Date })
	out := make([]entity.PriceRecord, 0, len(all))
	for i, r := range all {
		if i > 0 && r.Date == all[i-1].Date {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// BackfillMonths は月単位で再取得したデータを一括で保存します。
func (iu *IngestUsecase) BackfillMonths(ctx context.Context, from, to time.Time) (int, error) {
	records, err := iu.CollectMonths(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := iu.prices.UpsertBatch(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadSeed はバンドルされた過去データを一括で保存します。
func (iu *IngestUsecase) LoadSeed(ctx context.Context) (int, error) {
	if iu.seed == nil {
		return 0, ErrNoSeedData
	}
	records, err := iu.seed.Load()
	if err != nil {
		return 0, fmt.Errorf("load seed data: %w", err)
	}
	if len(records) == 0 {
		return 0, ErrNoSeedData
	}
	if err := iu.prices.UpsertBatch(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Cleanup は不正な日付と INMAG が 0 の行を削除します。
func (iu *IngestUsecase) Cleanup(ctx context.Context) (entity.CleanupResult, error) {
	res, err := iu.prices.CleanBadData(ctx)
	if err != nil {
		return entity.CleanupResult{}, err
	}
	if res.Total() > 0 {
		slog.Info("removed bad price rows", "invalid_dates", res.InvalidDates, "zero_index", res.ZeroIndex)
	}
	return res, nil
}

// StartupReport は起動処理の各ステップの結果です。
type StartupReport struct {
	Cleanup    entity.CleanupResult
	Seeded     int
	Backfilled int
	Fetched    int
	Errors     []error
}

// Startup は起動時の処理を順に実行します:
// クリーンアップ → ストアが空の場合のみシード投入（なければ再取得）→ 最新データの取得。
// 各ステップのエラーはログに出力し、後続のステップは止めません。
func (iu *IngestUsecase) Startup(ctx context.Context) StartupReport {
	var rep StartupReport
	fail := func(step string, err error) {
		slog.Error("startup step failed", "step", step, "error", err)
		rep.Errors = append(rep.Errors, fmt.Errorf("%s: %w", step, err))
	}

	if res, err := iu.Cleanup(ctx); err != nil {
		fail("cleanup", err)
	} else {
		rep.Cleanup = res
	}

	count, err := iu.prices.Count(ctx)
	if err != nil {
		fail("count", err)
	} else if count == 0 {
		n, err := iu.LoadSeed(ctx)
		if err != nil {
			slog.Warn("seed data not loaded, backfilling from the market", "error", err)
		}
		rep.Seeded = n
		if n == 0 {
			now := iu.now()
			from := time.Date(now.Year(), now.Month()-time.Month(iu.backfillMonths-1), 1, 0, 0, 0, 0, time.UTC)
			if n, err := iu.BackfillMonths(ctx, from, now); err != nil {
				fail("backfill", err)
			} else {
				rep.Backfilled = n
			}
		}
	}

	if n, err := iu.FetchLatest(ctx); err != nil {
		fail("fetch latest", err)
	} else {
		rep.Fetched = n
	}

	slog.Info("startup finished",
		"removed", rep.Cleanup.Total(),
		"seeded", rep.Seeded,
		"backfilled", rep.Backfilled,
		"fetched", rep.Fetched,
		"errors", len(rep.Errors))
	return rep
}
