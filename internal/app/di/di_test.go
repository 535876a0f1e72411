package di

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cattle_backend/internal/platform/cache"
)

func TestNewPriceRepository(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	repo := NewPriceRepository(nil, db, 0)
	_, isCache := repo.(*cache.CachingPriceRepository)
	assert.False(t, isCache, "nil redis must bypass the cache")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	repo = NewPriceRepository(rdb, db, time.Minute)
	_, isCache = repo.(*cache.CachingPriceRepository)
	assert.True(t, isCache)
}

func TestNewScraper(t *testing.T) {
	t.Setenv("MERCADO_BASE_URL", "http://localhost:1/report")
	t.Setenv("MERCADO_TIMEOUT", "2s")

	s, err := NewScraper()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1/report", s.URL(time.Time{}, time.Time{}))

	t.Setenv("MERCADO_TIMEOUT", "soon")
	_, err = NewScraper()
	assert.Error(t, err)
}

func TestNewClock(t *testing.T) {
	now := NewClock()
	got := now()
	assert.WithinDuration(t, time.Now(), got, time.Second)
}
