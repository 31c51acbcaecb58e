package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"rateharvester/internal/repository"
)

const cacheKeyPrefixRate = "rate:"

var cacheFields = []string{
	"id", "name", "base_rate", "cash_buy_rate", "cash_sell_rate",
	"remit_send_rate", "remit_receive_rate", "fetched_at",
}

// fillIfAbsent populates a cache entry only when no entry exists yet, so a
// lookup that read an older row cannot replace a concurrent write-through.
// ARGV[1] is the TTL in milliseconds, the rest are field/value pairs.
var fillIfAbsent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

func rateCacheKey(code string, date time.Time) string {
	return cacheKeyPrefixRate + "{" + code + ":" + date.Format(repository.DateLayout) + "}"
}

func (s *RateService) cacheGetRate(ctx context.Context, code string, date time.Time) (*RateResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	key := rateCacheKey(code, date)
	vals, err := s.cache.HMGet(ctx, key, cacheFields...).Result()
	if err != nil || len(vals) != len(cacheFields) {
		return nil, false
	}

	str := make([]string, len(vals))
	for i, v := range vals {
		x, ok := asString(v)
		if !ok {
			return nil, false
		}
		str[i] = x
	}

	id, err := strconv.ParseInt(str[0], 10, 64)
	if err != nil || str[2] == "" {
		return nil, false
	}

	return &RateResult{
		ID:               id,
		Code:             code,
		Name:             str[1],
		BaseRate:         str[2],
		CashBuyRate:      optional(str[3]),
		CashSellRate:     optional(str[4]),
		RemitSendRate:    optional(str[5]),
		RemitReceiveRate: optional(str[6]),
		Date:             date.Format(repository.DateLayout),
		FetchedAt:        str[7],
	}, true
}

func cacheValues(rate *repository.ExchangeRate) []any {
	r := rateResultFromRepo(rate)
	return []any{
		"id", strconv.FormatInt(r.ID, 10),
		"name", r.Name,
		"base_rate", r.BaseRate,
		"cash_buy_rate", derefStr(r.CashBuyRate),
		"cash_sell_rate", derefStr(r.CashSellRate),
		"remit_send_rate", derefStr(r.RemitSendRate),
		"remit_receive_rate", derefStr(r.RemitReceiveRate),
		"fetched_at", r.FetchedAt,
	}
}

// cacheSetRate writes a freshly stored row through to the point-lookup cache.
func (s *RateService) cacheSetRate(ctx context.Context, rate *repository.ExchangeRate) {
	if s.cache == nil {
		return
	}

	key := rateCacheKey(rate.Code, rate.Date)
	pipe := s.cache.Pipeline()
	pipe.HSet(ctx, key, cacheValues(rate)...)
	pipe.Expire(ctx, key, s.cacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warnw("Failed to update cache", "key", key, "error", err)
	}
}

// cacheFillRate caches a row read from storage unless an entry already exists.
func (s *RateService) cacheFillRate(ctx context.Context, rate *repository.ExchangeRate) {
	if s.cache == nil {
		return
	}

	key := rateCacheKey(rate.Code, rate.Date)
	args := append([]any{s.cacheTTL.Milliseconds()}, cacheValues(rate)...)
	if err := fillIfAbsent.Run(ctx, s.cache, []string{key}, args...).Err(); err != nil {
		s.log.Warnw("Failed to fill cache", "key", key, "error", err)
	}
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

// optional maps the cache's empty-string encoding of an absent rate back to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
