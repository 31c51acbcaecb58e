package provider

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rateharvester/internal/config"
)

func TestCachedRatesProvider_FetchRates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []RawRate{{Result: "1", CurUnit: "USD", CurName: "미국 달러", DealBaseRate: "1,432.5"}}
	ttl := 10 * time.Second

	t.Run("cache miss then hit", func(t *testing.T) {
		mr.FlushAll()
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()

		cachedProv := NewCachedRatesProvider(mockProv, rdb, ttl, "test_provider")

		got, err := cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)
		assert.Equal(t, rows, got)
		mockProv.AssertExpectations(t)

		// Second call must be served from cache (.Once() above).
		got2, err := cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)
		assert.Equal(t, rows, got2)
	})

	t.Run("provider error is not cached", func(t *testing.T) {
		mr.FlushAll()
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(nil, assert.AnError).Once()

		cachedProv := NewCachedRatesProvider(mockProv, rdb, ttl, "test_provider")

		_, err := cachedProv.FetchRates(context.Background(), date)
		assert.Error(t, err)

		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()
		got, err := cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)
		assert.Equal(t, rows, got)
		mockProv.AssertExpectations(t)
	})

	t.Run("empty payload is not cached", func(t *testing.T) {
		mr.FlushAll()
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return([]RawRate{}, nil).Twice()

		cachedProv := NewCachedRatesProvider(mockProv, rdb, ttl, "test_provider")

		for i := 0; i < 2; i++ {
			got, err := cachedProv.FetchRates(context.Background(), date)
			assert.NoError(t, err)
			assert.Empty(t, got)
		}
		mockProv.AssertExpectations(t)
	})

	t.Run("cache expires", func(t *testing.T) {
		mr.FlushAll()
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()

		cachedProv := NewCachedRatesProvider(mockProv, rdb, ttl, "test_provider")

		_, _ = cachedProv.FetchRates(context.Background(), date)

		mr.FastForward(ttl + time.Second)

		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()
		_, err := cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)
		mockProv.AssertExpectations(t)
	})

	t.Run("nil cache delegates", func(t *testing.T) {
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Twice()

		cachedProv := NewCachedRatesProvider(mockProv, nil, ttl, "test_provider")
		_, _ = cachedProv.FetchRates(context.Background(), date)
		_, _ = cachedProv.FetchRates(context.Background(), date)
		mockProv.AssertExpectations(t)
	})

	t.Run("missing credential fails before cache", func(t *testing.T) {
		mr.FlushAll()
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()
		_, err := NewCachedRatesProvider(mockProv, rdb, ttl, "koreaexim").FetchRates(context.Background(), date)
		assert.NoError(t, err)

		noKey := NewCachedRatesProvider(NewKoreaEximProvider(config.KoreaEximConfig{}), rdb, ttl, "koreaexim")
		got, err := noKey.FetchRates(context.Background(), date)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("bypass skips cached payload and refreshes it", func(t *testing.T) {
		mr.FlushAll()
		fresh := []RawRate{{Result: "1", CurUnit: "USD", CurName: "미국 달러", DealBaseRate: "1,440.1"}}
		mockProv := new(MockProvider)
		mockProv.On("FetchRates", mock.Anything, date).Return(rows, nil).Once()

		cachedProv := NewCachedRatesProvider(mockProv, rdb, ttl, "test_provider")
		_, err := cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)

		mockProv.On("FetchRates", mock.Anything, date).Return(fresh, nil).Once()
		got, err := cachedProv.FetchRates(WithCacheBypass(context.Background()), date)
		assert.NoError(t, err)
		assert.Equal(t, fresh, got)

		// The bypassing call replaced the cached payload.
		got, err = cachedProv.FetchRates(context.Background(), date)
		assert.NoError(t, err)
		assert.Equal(t, fresh, got)
		mockProv.AssertExpectations(t)
	})
}
