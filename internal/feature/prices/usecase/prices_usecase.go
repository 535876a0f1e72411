package usecase

import (
	"context"
	"time"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/shared/parseutil"
)

const (
	// DefaultLatestLimit は最新データの既定件数です。
	DefaultLatestLimit = 10
	// DefaultHistoryDays は履歴ウィンドウの既定日数です。
	DefaultHistoryDays = 30
	// MaxHistoryDays は履歴ウィンドウの最大日数です。
	MaxHistoryDays = 3650
	// DefaultComparisonMonths は月次比較の既定月数です。
	DefaultComparisonMonths = 6
	// MaxComparisonMonths は月次比較の最大月数です。
	MaxComparisonMonths = 60
)

// PriceReader abstracts the read and aggregate side of the price store.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceReader interface {
	Latest(ctx context.Context, n int) ([]entity.PriceRecord, error)
	History(ctx context.Context, days int) ([]entity.PriceRecord, error)
	Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error)
	MonthlyAverage(ctx context.Context, year int, month time.Month) (entity.MonthlyStats, error)
	LastMonthStats(ctx context.Context, ref time.Time) (entity.MonthlyStats, error)
	RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error)
	Trends(ctx context.Context, ref time.Time) (entity.Trends, error)
	MonthlyComparison(ctx context.Context, ref time.Time, months int) ([]entity.MonthlyStats, error)
	YearlyStats(ctx context.Context, year int) (entity.YearlyStats, error)
	AllTimeStats(ctx context.Context) (entity.AllTimeStats, error)
}

// PriceWriter abstracts the write side of the price store.
type PriceWriter interface {
	Upsert(ctx context.Context, record entity.PriceRecord) error
	UpsertBatch(ctx context.Context, records []entity.PriceRecord) error
	Count(ctx context.Context) (int64, error)
	CleanBadData(ctx context.Context) (entity.CleanupResult, error)
}

// PriceRepository is the full store surface.
type PriceRepository interface {
	PriceReader
	PriceWriter
}

// PricesUsecase は価格データの参照系ユースケースです。
// 入力値の正規化と「現在日」の解決だけを行い、集計はストアに委ねます。
type PricesUsecase struct {
	prices PriceReader
	now    func() time.Time
}

// NewPricesUsecase は新しい PricesUsecase を作成します。now が nil の場合は time.Now を使います。
func NewPricesUsecase(prices PriceReader, now func() time.Time) *PricesUsecase {
	if now == nil {
		now = time.Now
	}
	return &PricesUsecase{prices: prices, now: now}
}

// Latest は最新 n 件を返します。範囲外の n は既定値に置き換えます。
func (u *PricesUsecase) Latest(ctx context.Context, n int) ([]entity.PriceRecord, error) {
	if n <= 0 || n > MaxHistoryDays {
		n = DefaultLatestLimit
	}
	return u.prices.Latest(ctx, n)
}

// History は直近 days 件の履歴を返します。
func (u *PricesUsecase) History(ctx context.Context, days int) ([]entity.PriceRecord, error) {
	if days <= 0 || days > MaxHistoryDays {
		days = DefaultHistoryDays
	}
	return u.prices.History(ctx, days)
}

// Range は [start, end] の取引日を返します。どちらかが空なら全件を返します。
func (u *PricesUsecase) Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error) {
	if err := validateBounds(start, end); err != nil {
		return nil, err
	}
	return u.prices.Range(ctx, start, end)
}

// Monthly は指定月の集計を返します。year と month が両方 0 の場合は前月を返します。
func (u *PricesUsecase) Monthly(ctx context.Context, year, month int) (entity.MonthlyStats, error) {
	if year == 0 && month == 0 {
		return u.prices.LastMonthStats(ctx, u.now())
	}
	if year <= 0 || month < 1 || month > 12 {
		return entity.MonthlyStats{}, ErrInvalidMonth
	}
	return u.prices.MonthlyAverage(ctx, year, time.Month(month))
}

// RangeStats は期間の集計とボラティリティを返します。
func (u *PricesUsecase) RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error) {
	if err := validateBounds(start, end); err != nil {
		return entity.RangeStats{}, err
	}
	return u.prices.RangeStats(ctx, start, end)
}

// Trends は週次・月次のトレンドを現在日基準で返します。
func (u *PricesUsecase) Trends(ctx context.Context) (entity.Trends, error) {
	return u.prices.Trends(ctx, u.now())
}

// MonthlyComparison は直近 months か月の月次集計を古い順に返します。
func (u *PricesUsecase) MonthlyComparison(ctx context.Context, months int) ([]entity.MonthlyStats, error) {
	if months <= 0 {
		months = DefaultComparisonMonths
	}
	if months > MaxComparisonMonths {
		months = MaxComparisonMonths
	}
	return u.prices.MonthlyComparison(ctx, u.now(), months)
}

// Yearly は年次集計を返します。year が 0 の場合は今年を対象にします。
func (u *PricesUsecase) Yearly(ctx context.Context, year int) (entity.YearlyStats, error) {
	if year == 0 {
		year = u.now().Year()
	}
	if year < 0 {
		return entity.YearlyStats{}, ErrInvalidYear
	}
	return u.prices.YearlyStats(ctx, year)
}

// AllTime は全期間の集計を返します。
func (u *PricesUsecase) AllTime(ctx context.Context) (entity.AllTimeStats, error) {
	return u.prices.AllTimeStats(ctx)
}

// validateBounds checks that every non-empty bound is a YYYY-MM-DD day and
// that start does not come after end.
func validateBounds(start, end string) error {
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if !parseutil.IsCanonicalDate(d) {
			return ErrInvalidDate
		}
		if _, err := parseutil.ParseISODate(d); err != nil {
			return ErrInvalidDate
		}
	}
	if start != "" && end != "" && start > end {
		return ErrInvalidRange
	}
	return nil
}
