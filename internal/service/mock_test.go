package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"rateharvester/internal/provider"
	"rateharvester/internal/repository"
)

// memRateRepo is an in-memory RateRepository keyed by (code, date).
type memRateRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[string]*repository.ExchangeRate
	upserts   int
	upsertErr error
}

func newMemRateRepo() *memRateRepo {
	return &memRateRepo{rows: map[string]*repository.ExchangeRate{}}
}

func memKey(code string, date time.Time) string {
	return code + "|" + date.Format(repository.DateLayout)
}

func (m *memRateRepo) Upsert(_ context.Context, rate *repository.ExchangeRate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return false, m.upsertErr
	}

	key := memKey(rate.Code, rate.Date)
	if existing, ok := m.rows[key]; ok {
		rate.ID = existing.ID
		rate.FetchedAt = existing.FetchedAt
		cp := *rate
		m.rows[key] = &cp
		return false, nil
	}

	m.nextID++
	rate.ID = m.nextID
	rate.FetchedAt = time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)
	cp := *rate
	m.rows[key] = &cp
	return true, nil
}

func (m *memRateRepo) List(_ context.Context, filter repository.RateFilter, limit, offset int) ([]repository.ExchangeRate, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []repository.ExchangeRate
	for _, r := range m.rows {
		if filter.Code != "" && r.Code != filter.Code {
			continue
		}
		if filter.Date != nil && !r.Date.Equal(*filter.Date) {
			continue
		}
		if filter.DateFrom != nil && r.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && r.Date.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, *r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].Code < matched[j].Code
	})

	total := len(matched)
	if offset >= total {
		return []repository.ExchangeRate{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memRateRepo) GetByCodeAndDate(_ context.Context, code string, date time.Time) (*repository.ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[memKey(code, date)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRateRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// mockRatesProvider is a testify mock of provider.RatesProvider.
type mockRatesProvider struct {
	mock.Mock
}

func (m *mockRatesProvider) FetchRates(ctx context.Context, date time.Time) ([]provider.RawRate, error) {
	args := m.Called(ctx, date)
	rows, _ := args.Get(0).([]provider.RawRate)
	return rows, args.Error(1)
}
