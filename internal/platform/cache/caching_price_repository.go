// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/feature/prices/usecase"
)

// CachingPriceRepository decorates a PriceRepository with Redis caching.
// Reads are served from Redis when possible; every successful write drops the
// whole namespace so aggregates never outlive the rows they were built from.
// Count is not cached.
type CachingPriceRepository struct {
	usecase.PriceRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, entries expire at the next full hour, when the scheduled scrape
// may bring new data. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	ttlFunc := func() time.Duration { return ttl }
	if ttl <= 0 {
		ttlFunc = func() time.Duration { return TimeUntilNextHour(time.Now()) }
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		PriceRepository: inner,
		rdb:             rdb,
		ttl:             ttlFunc,
		namespace:       namespace,
	}
}

// Upsert writes one record and invalidates the namespace.
func (c *CachingPriceRepository) Upsert(ctx context.Context, record entity.PriceRecord) error {
	if err := c.PriceRepository.Upsert(ctx, record); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// UpsertBatch writes records and invalidates the namespace.
func (c *CachingPriceRepository) UpsertBatch(ctx context.Context, records []entity.PriceRecord) error {
	if err := c.PriceRepository.UpsertBatch(ctx, records); err != nil {
		return err
	}
	if len(records) > 0 {
		c.invalidate(ctx)
	}
	return nil
}

// CleanBadData purges bad rows and invalidates the namespace when anything was removed.
func (c *CachingPriceRepository) CleanBadData(ctx context.Context) (entity.CleanupResult, error) {
	res, err := c.PriceRepository.CleanBadData(ctx)
	if err != nil {
		return res, err
	}
	if res.Total() > 0 {
		c.invalidate(ctx)
	}
	return res, nil
}

func (c *CachingPriceRepository) Latest(ctx context.Context, n int) ([]entity.PriceRecord, error) {
	return cached(ctx, c, c.key("latest", n), func() ([]entity.PriceRecord, error) {
		return c.PriceRepository.Latest(ctx, n)
	})
}

func (c *CachingPriceRepository) History(ctx context.Context, days int) ([]entity.PriceRecord, error) {
	return cached(ctx, c, c.key("history", days), func() ([]entity.PriceRecord, error) {
		return c.PriceRepository.History(ctx, days)
	})
}

func (c *CachingPriceRepository) Range(ctx context.Context, start, end string) ([]entity.PriceRecord, error) {
	return cached(ctx, c, c.key("range", start, end), func() ([]entity.PriceRecord, error) {
		return c.PriceRepository.Range(ctx, start, end)
	})
}

func (c *CachingPriceRepository) MonthlyAverage(ctx context.Context, year int, month time.Month) (entity.MonthlyStats, error) {
	return cached(ctx, c, c.key("monthly", year, int(month)), func() (entity.MonthlyStats, error) {
		return c.PriceRepository.MonthlyAverage(ctx, year, month)
	})
}

func (c *CachingPriceRepository) LastMonthStats(ctx context.Context, ref time.Time) (entity.MonthlyStats, error) {
	return cached(ctx, c, c.key("lastmonth", ref.Format("2006-01")), func() (entity.MonthlyStats, error) {
		return c.PriceRepository.LastMonthStats(ctx, ref)
	})
}

func (c *CachingPriceRepository) RangeStats(ctx context.Context, start, end string) (entity.RangeStats, error) {
	return cached(ctx, c, c.key("rangestats", start, end), func() (entity.RangeStats, error) {
		return c.PriceRepository.RangeStats(ctx, start, end)
	})
}

func (c *CachingPriceRepository) Trends(ctx context.Context, ref time.Time) (entity.Trends, error) {
	return cached(ctx, c, c.key("trends", ref.Format(time.DateOnly)), func() (entity.Trends, error) {
		return c.PriceRepository.Trends(ctx, ref)
	})
}

func (c *CachingPriceRepository) MonthlyComparison(ctx context.Context, ref time.Time, months int) ([]entity.MonthlyStats, error) {
	return cached(ctx, c, c.key("comparison", ref.Format("2006-01"), months), func() ([]entity.MonthlyStats, error) {
		return c.PriceRepository.MonthlyComparison(ctx, ref, months)
	})
}

func (c *CachingPriceRepository) YearlyStats(ctx context.Context, year int) (entity.YearlyStats, error) {
	return cached(ctx, c, c.key("yearly", year), func() (entity.YearlyStats, error) {
		return c.PriceRepository.YearlyStats(ctx, year)
	})
}

func (c *CachingPriceRepository) AllTimeStats(ctx context.Context) (entity.AllTimeStats, error) {
	return cached(ctx, c, c.key("alltime"), func() (entity.AllTimeStats, error) {
		return c.PriceRepository.AllTimeStats(ctx)
	})
}

// cached checks Redis first, then falls back to load and stores the result.
// Redis failures never fail the read.
func cached[T any](ctx context.Context, c *CachingPriceRepository, key string, load func() (T, error)) (T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl()).Err()
	}
	return out, nil
}

// key builds "<namespace>:<kind>:<part>:<part>..."; empty parts become "-".
func (c *CachingPriceRepository) key(kind string, parts ...any) string {
	var sb strings.Builder
	sb.WriteString(c.namespace)
	sb.WriteString(":")
	sb.WriteString(kind)
	for _, p := range parts {
		s := safe(fmt.Sprint(p))
		if s == "" {
			s = "-"
		}
		sb.WriteString(":")
		sb.WriteString(s)
	}
	return sb.String()
}

func (c *CachingPriceRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	// Best effort: the write already succeeded
	if err := c.deleteByPattern(ctx, c.namespace+":*"); err != nil {
		slog.Warn("failed to invalidate price cache", "namespace", c.namespace, "error", err)
	}
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
