// Package service implements rate ingestion and the read-side query logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rateharvester/internal/config"
	"rateharvester/internal/events"
	"rateharvester/internal/metrics"
	"rateharvester/internal/provider"
	"rateharvester/internal/repository"
)

// RateServiceInterface defines the operations exposed to the HTTP layer and the worker.
type RateServiceInterface interface {
	ListRates(ctx context.Context, params ListParams) (*RatePage, error)
	History(ctx context.Context, code string, params ListParams) (*RatePage, error)
	GetRate(ctx context.Context, code, date string) (*RateResult, error)
	FetchToday(ctx context.Context) (*RefreshResult, error)
	FetchByDate(ctx context.Context, date string) (*RefreshResult, error)
}

// RateService defines business logic for exchange rates.
type RateService struct {
	repo        repository.RateRepository
	provider    provider.RatesProvider
	validator   Validator
	cache       *redis.Client
	publisher   events.Publisher
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger
	cacheTTL    time.Duration
	pageSize    int
	maxPageSize int
	now         func() time.Time
}

// Option customizes a RateService.
type Option func(*RateService)

// WithPublisher sets the refresh event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *RateService) { s.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RateService) { s.metrics = m }
}

// WithClock overrides the source of "now" used to resolve today's date.
func WithClock(now func() time.Time) Option {
	return func(s *RateService) { s.now = now }
}

// NewRateService creates a new RateService. cache may be nil.
func NewRateService(repo repository.RateRepository, prov provider.RatesProvider, validator Validator, cache *redis.Client, logger *zap.SugaredLogger, cacheCfg config.CacheConfig, pageCfg config.PaginationConfig, opts ...Option) *RateService {
	s := &RateService{
		repo:        repo,
		provider:    prov,
		validator:   validator,
		cache:       cache,
		publisher:   events.NopPublisher{},
		log:         logger,
		cacheTTL:    time.Duration(cacheCfg.RateTTLSec) * time.Second,
		pageSize:    pageCfg.PageSize,
		maxPageSize: pageCfg.MaxPageSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageSize <= 0 {
		s.pageSize = 100
	}
	if s.maxPageSize < s.pageSize {
		s.maxPageSize = s.pageSize
	}
	return s
}

// Today returns the process-local calendar date.
func (s *RateService) Today() time.Time {
	return calendarDate(s.now().In(time.Local))
}

// FetchToday fetches and stores the rates for the current local date.
func (s *RateService) FetchToday(ctx context.Context) (*RefreshResult, error) {
	return s.refresh(ctx, s.Today())
}

// FetchByDate validates date and fetches and stores the rates for it.
func (s *RateService) FetchByDate(ctx context.Context, date string) (*RefreshResult, error) {
	d, err := ParseDate(date)
	if err != nil {
		s.metrics.ObserveRefresh(metrics.OutcomeValidationError)
		return nil, err
	}
	return s.refresh(ctx, d)
}

func (s *RateService) refresh(ctx context.Context, date time.Time) (*RefreshResult, error) {
	count, err := s.FetchAndSave(provider.WithCacheBypass(ctx), &date)
	if err != nil {
		return nil, err
	}

	day := date.Format(repository.DateLayout)
	res := &RefreshResult{
		Date:    day,
		Count:   count,
		Message: fmt.Sprintf("Collected %d exchange rates for %s", count, day),
	}
	if count == 0 {
		res.Message = fmt.Sprintf("No exchange rate data for %s (weekend or holiday)", day)
		return res, nil
	}

	if err := s.publisher.PublishRatesFetched(ctx, events.RatesFetched{
		Date:      day,
		Count:     count,
		FetchedAt: s.now().UTC(),
	}); err != nil {
		s.log.Warnw("Failed to publish refresh event", "date", day, "error", err)
	}
	return res, nil
}

// FetchAndSave fetches rates for date (today when nil) and upserts them.
// It may be answered by a provider cache; FetchToday and FetchByDate always reach the provider.
// Provider errors are returned unchanged; storage errors wrap ErrStoreUnavailable.
func (s *RateService) FetchAndSave(ctx context.Context, date *time.Time) (int, error) {
	day := s.Today()
	if date != nil {
		day = calendarDate(*date)
	}

	start := time.Now()
	raws, err := s.provider.FetchRates(ctx, day)
	s.metrics.ObserveProviderFetch(time.Since(start))
	if err != nil {
		s.metrics.ObserveRefresh(metrics.OutcomeProviderError)
		s.log.Errorw("Provider fetch failed", "date", day.Format(repository.DateLayout), "error", err)
		return 0, err
	}

	count, err := s.SaveRates(ctx, day, raws)
	if err != nil {
		s.metrics.ObserveRefresh(metrics.OutcomeStoreError)
		return count, err
	}

	if count == 0 {
		s.metrics.ObserveRefresh(metrics.OutcomeEmpty)
		s.log.Infow("No exchange rate data (weekend or holiday?)", "date", day.Format(repository.DateLayout))
	} else {
		s.metrics.ObserveRefresh(metrics.OutcomeSuccess)
	}
	return count, nil
}

// SaveRates upserts raws as the quotations for date and returns how many rows were stored.
// Rows with a blank code or an unparseable base rate are skipped and not counted.
func (s *RateService) SaveRates(ctx context.Context, date time.Time, raws []provider.RawRate) (int, error) {
	if len(raws) == 0 {
		return 0, nil
	}
	day := calendarDate(date)

	saved := 0
	for _, raw := range raws {
		code := strings.TrimSpace(raw.CurUnit)
		if code == "" {
			s.metrics.ObserveSkipped()
			continue
		}

		base := ParseRate(raw.DealBaseRate)
		if !base.Valid {
			s.metrics.ObserveSkipped()
			s.log.Warnw("Skipping rate without a base rate", "code", code, "raw", raw.DealBaseRate)
			continue
		}

		rate := &repository.ExchangeRate{
			Code:             code,
			Name:             strings.TrimSpace(raw.CurName),
			BaseRate:         base.Decimal,
			CashBuyRate:      ParseRate(raw.CashBuyRate),
			CashSellRate:     ParseRate(raw.CashSellRate),
			RemitSendRate:    ParseRate(raw.RemitSendRate),
			RemitReceiveRate: ParseRate(raw.RemitReceiveRate),
			Date:             day,
		}

		created, err := s.repo.Upsert(ctx, rate)
		if err != nil {
			s.log.Errorw("Upsert failed", "code", code, "date", day.Format(repository.DateLayout), "error", err)
			return saved, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.metrics.ObserveUpsert(created)
		s.cacheSetRate(ctx, rate)

		action := "updated"
		if created {
			action = "created"
		}
		s.log.Debugw("Rate stored", "code", code, "date", day.Format(repository.DateLayout),
			"action", action, "base_rate", FormatRate(rate.BaseRate))
		saved++
	}

	s.log.Infow("Exchange rates saved", "date", day.Format(repository.DateLayout), "count", saved)
	return saved, nil
}

// ListRates returns one page of rates matching params.
func (s *RateService) ListRates(ctx context.Context, params ListParams) (*RatePage, error) {
	if err := s.validator.ValidateListParams(params); err != nil {
		return nil, err
	}

	filter, err := s.buildFilter(params)
	if err != nil {
		return nil, err
	}
	return s.listPage(ctx, filter, params)
}

// History returns one page of a single currency's rates across dates.
func (s *RateService) History(ctx context.Context, code string, params ListParams) (*RatePage, error) {
	normCode, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	params.Code = normCode
	return s.ListRates(ctx, params)
}

// GetRate returns the rate for one currency on one date.
func (s *RateService) GetRate(ctx context.Context, code, date string) (*RateResult, error) {
	normCode, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	if r, ok := s.cacheGetRate(ctx, normCode, d); ok {
		return r, nil
	}

	rate, err := s.repo.GetByCodeAndDate(ctx, normCode, d)
	if err != nil {
		s.log.Errorw("DB error fetching rate", "code", normCode, "date", date, "error", err)
		return nil, ErrInternal
	}
	if rate == nil {
		return nil, ErrNotFound
	}

	s.cacheFillRate(ctx, rate)
	return rateResultFromRepo(rate), nil
}

func (s *RateService) buildFilter(params ListParams) (repository.RateFilter, error) {
	var filter repository.RateFilter
	if params.Code != "" {
		filter.Code = strings.ToUpper(strings.TrimSpace(params.Code))
	}

	for _, f := range []struct {
		raw string
		dst **time.Time
	}{
		{params.Date, &filter.Date},
		{params.DateFrom, &filter.DateFrom},
		{params.DateTo, &filter.DateTo},
	} {
		if f.raw == "" {
			continue
		}
		d, err := ParseDate(f.raw)
		if err != nil {
			return filter, err
		}
		*f.dst = &d
	}
	return filter, nil
}

func (s *RateService) listPage(ctx context.Context, filter repository.RateFilter, params ListParams) (*RatePage, error) {
	page := params.Page
	if page == 0 {
		page = 1
	}
	size := params.PageSize
	if size == 0 {
		size = s.pageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}

	rates, total, err := s.repo.List(ctx, filter, size, (page-1)*size)
	if err != nil {
		s.log.Errorw("DB error listing rates", "error", err)
		return nil, ErrInternal
	}

	results := make([]RateResult, 0, len(rates))
	for i := range rates {
		results = append(results, *rateResultFromRepo(&rates[i]))
	}

	return &RatePage{
		Count:       total,
		Page:        page,
		PageSize:    size,
		HasNext:     page*size < total,
		HasPrevious: page > 1,
		Results:     results,
	}, nil
}

// IsUnavailable reports whether err should be surfaced as "upstream unavailable".
func IsUnavailable(err error) bool {
	var perr *provider.Error
	return errors.As(err, &perr) || errors.Is(err, ErrStoreUnavailable)
}
