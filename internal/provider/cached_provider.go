package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedRatesProviderDecorator wraps a RatesProvider with Redis caching of daily payloads.
// Errors and empty payloads are never cached, so a holiday that later gets data is re-fetched.
type CachedRatesProviderDecorator struct {
	provider     RatesProvider
	cache        *redis.Client
	ttl          time.Duration
	providerName string
}

// NewCachedRatesProvider creates a new CachedRatesProviderDecorator.
func NewCachedRatesProvider(provider RatesProvider, cache *redis.Client, ttl time.Duration, providerName string) *CachedRatesProviderDecorator {
	return &CachedRatesProviderDecorator{
		provider:     provider,
		cache:        cache,
		ttl:          ttl,
		providerName: providerName,
	}
}

func (p *CachedRatesProviderDecorator) cacheKey(date time.Time) string {
	return fmt.Sprintf("provider_cache:%s:{%s}", p.providerName, date.Format(searchDateLayout))
}

// FetchRates returns the cached payload for the date if present, otherwise calls the underlying provider.
// A provider without its credential fails before the cache is consulted.
// Contexts marked with WithCacheBypass always reach the underlying provider.
func (p *CachedRatesProviderDecorator) FetchRates(ctx context.Context, date time.Time) ([]RawRate, error) {
	if cr, ok := p.provider.(CredentialReporter); ok && !cr.HasCredential() {
		return nil, &Error{Op: "configure", Err: ErrMissingAPIKey}
	}
	if p.cache == nil {
		return p.provider.FetchRates(ctx, date)
	}

	key := p.cacheKey(date)

	if !cacheBypassed(ctx) {
		if data, err := p.cache.Get(ctx, key).Bytes(); err == nil {
			var rows []RawRate
			if jsonErr := json.Unmarshal(data, &rows); jsonErr == nil && len(rows) > 0 {
				return rows, nil
			}
		}
	}

	rows, err := p.provider.FetchRates(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	if data, err := json.Marshal(rows); err == nil {
		_ = p.cache.Set(ctx, key, data, p.ttl).Err()
	}

	return rows, nil
}

var _ RatesProvider = (*CachedRatesProviderDecorator)(nil)
