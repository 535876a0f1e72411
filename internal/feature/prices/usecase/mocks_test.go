package usecase

import (
	"context"
	"errors"
	"time"

	"cattle_backend/internal/feature/prices/domain/entity"
)

var errNotImplemented = errors.New("mock func is not implemented")

// mockPriceRepository is a func-field implementation of PriceRepository.
// Calls records every method name in call order.
type mockPriceRepository struct {
	Calls []string

	LatestFunc            func(ctx context.Context, n int) ([]entity.PriceRecord, error)
	HistoryFunc           func(ctx context.Context, days int) ([]entity.PriceRecord, error)
	RangeFunc             func(ctx context.Context, start, end string) ([]entity.PriceRecord, error)
	MonthlyAverageFunc    func(ctx context.Context, year int, month time.Month) (entity.MonthlyStats, error)
	LastMonthStatsFunc    func(ctx context.Context, ref time.Time) (entity.MonthlyStats, error)
	RangeStatsFunc        func(ctx context.Context, start, end string) (entity.RangeStats, error)
	TrendsFunc            func(ctx context.Context, ref time.Time) (entity.Trends, error)
	MonthlyComparisonFunc func(ctx context.Context, ref time.Time, months int) ([]entity.MonthlyStats, error)
	YearlyStatsFunc       func(ctx context.Context, year int) (entity.YearlyStats, error)
	AllTimeStatsFunc      func(ctx context.Context) (entity.AllTimeStats, error)
	UpsertFunc            func(ctx context.Context, record entity.PriceRecord) error
	UpsertBatchFunc       func(ctx context.Context, records []entity.PriceRecord) error
	CountFunc             func(ctx context.Context) (int64, error)
	CleanBadDataFunc      func(ctx context.Context) (entity.CleanupResult, error)
}

var _ PriceRepository = (*mockPriceRepository)(nil)

func (m *mockPriceRepository) Latest(ctx context.Context, n int) ([]entity.PriceRecord, error) {
	m.Calls = append(m.Calls, "Latest")
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, n)
	}
	return nil, errNotImplemented
}

func (m *mockPriceRepository) History(ctx context.Context, days int) ([]entity.PriceRecord, error) {
	m.Calls = append(m.Calls, "History")
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, days)
	}
	return nil, errNotImplemented
}

func (m *mockPriceRepository) Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error) {
	m.Calls = append(m.Calls, "Range")
	if m.RangeFunc != nil {
		return m.RangeFunc(ctx, start, end)
	}
	return nil, errNotImplemented
}

func (m *mockPriceRepository) MonthlyAverage(ctx context.Context, year int, month time.Month) (entity.MonthlyStats, error) {
	m.Calls = append(m.Calls, "MonthlyAverage")
	if m.MonthlyAverageFunc != nil {
		return m.MonthlyAverageFunc(ctx, year, month)
	}
	return entity.MonthlyStats{}, errNotImplemented
}

func (m *mockPriceRepository) LastMonthStats(ctx context.Context, ref time.Time) (entity.MonthlyStats, error) {
	m.Calls = append(m.Calls, "LastMonthStats")
	if m.LastMonthStatsFunc != nil {
		return m.LastMonthStatsFunc(ctx, ref)
	}
	return entity.MonthlyStats{}, errNotImplemented
}

func (m *mockPriceRepository) RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error) {
	m.Calls = append(m.Calls, "RangeStats")
	if m.RangeStatsFunc != nil {
		return m.RangeStatsFunc(ctx, start, end)
	}
	return entity.RangeStats{}, errNotImplemented
}

func (m *mockPriceRepository) Trends(ctx context.Context, ref time.Time) (entity.Trends, error) {
	m.Calls = append(m.Calls, "Trends")
	if m.TrendsFunc != nil {
		return m.TrendsFunc(ctx, ref)
	}
	return entity.Trends{}, errNotImplemented
}

func (m *mockPriceRepository) MonthlyComparison(ctx context.Context, ref time.Time, months int) ([]entity.MonthlyStats, error) {
	m.Calls = append(m.Calls, "MonthlyComparison")
	if m.MonthlyComparisonFunc != nil {
		return m.MonthlyComparisonFunc(ctx, ref, months)
	}
	return nil, errNotImplemented
}

func (m *mockPriceRepository) YearlyStats(ctx context.Context, year int) (entity.YearlyStats, error) {
	m.Calls = append(m.Calls, "YearlyStats")
	if m.YearlyStatsFunc != nil {
		return m.YearlyStatsFunc(ctx, year)
	}
	return entity.YearlyStats{}, errNotImplemented
}

func (m *mockPriceRepository) AllTimeStats(ctx context.Context) (entity.AllTimeStats, error) {
	m.Calls = append(m.Calls, "AllTimeStats")
	if m.AllTimeStatsFunc != nil {
		return m.AllTimeStatsFunc(ctx)
	}
	return entity.AllTimeStats{}, errNotImplemented
}

func (m *mockPriceRepository) Upsert(ctx context.Context, record entity.PriceRecord) error {
	m.Calls = append(m.Calls, "Upsert")
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, record)
	}
	return errNotImplemented
}

func (m *mockPriceRepository) UpsertBatch(ctx context.Context, records []entity.PriceRecord) error {
	m.Calls = append(m.Calls, "UpsertBatch")
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, records)
	}
	return errNotImplemented
}

func (m *mockPriceRepository) Count(ctx context.Context) (int64, error) {
	m.Calls = append(m.Calls, "Count")
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, errNotImplemented
}

func (m *mockPriceRepository) CleanBadData(ctx context.Context) (entity.CleanupResult, error) {
	m.Calls = append(m.Calls, "CleanBadData")
	if m.CleanBadDataFunc != nil {
		return m.CleanBadDataFunc(ctx)
	}
	return entity.CleanupResult{}, errNotImplemented
}

// mockMarketScraper is a mock implementation of MarketScraper.
type mockMarketScraper struct {
	ScrapeFunc      func(ctx context.Context, start, end time.Time) []entity.PriceRecord
	ScrapeMonthFunc func(ctx context.Context, year int, month time.Month) []entity.PriceRecord
	ScrapeCalls     int
	MonthCalls      []string
}

func (m *mockMarketScraper) Scrape(ctx context.Context, start, end time.Time) []entity.PriceRecord {
	m.ScrapeCalls++
	if m.ScrapeFunc != nil {
		return m.ScrapeFunc(ctx, start, end)
	}
	return []entity.PriceRecord{}
}

func (m *mockMarketScraper) ScrapeMonth(ctx context.Context, year int, month time.Month) []entity.PriceRecord {
	m.MonthCalls = append(m.MonthCalls, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
	if m.ScrapeMonthFunc != nil {
		return m.ScrapeMonthFunc(ctx, year, month)
	}
	return []entity.PriceRecord{}
}

// mockRateLimiter returns immediately.
type mockRateLimiter struct {
	WaitIfNeededCalls int
	Err               error
}

func (m *mockRateLimiter) WaitIfNeeded(ctx context.Context) error {
	m.WaitIfNeededCalls++
	return m.Err
}

// mockSeedSource is a mock implementation of SeedSource.
type mockSeedSource struct {
	Records []entity.PriceRecord
	Err     error
}

func (m *mockSeedSource) Load() ([]entity.PriceRecord, error) {
	return m.Records, m.Err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
