package di

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cattle_backend/internal/feature/prices/adapters"
	"cattle_backend/internal/feature/prices/usecase"
	"cattle_backend/internal/platform/cache"
)

// MarketTimeZone is the zone the market publishes its trading days in.
const MarketTimeZone = "America/Argentina/Buenos_Aires"

// NewPriceRepository creates a PriceRepository implementation.
// If Redis is available, reads go through the cache; otherwise the store is used directly.
func NewPriceRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) usecase.PriceRepository {
	store := adapters.NewPriceRepository(db)
	if rdb == nil {
		return store
	}
	return cache.NewCachingPriceRepository(rdb, ttl, store, "prices")
}

// NewClock returns a clock in the market time zone so that "today" and
// "last month" follow the market's calendar. Falls back to UTC when the zone
// database is unavailable.
func NewClock() func() time.Time {
	loc, err := time.LoadLocation(MarketTimeZone)
	if err != nil {
		slog.Warn("market time zone unavailable, using UTC", "zone", MarketTimeZone, "error", err)
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}
