package api

import (
	"context"

	"rateharvester/internal/service"
)

// mockRateService implements service.RateServiceInterface for testing.
type mockRateService struct {
	listRatesFunc   func(ctx context.Context, params service.ListParams) (*service.RatePage, error)
	historyFunc     func(ctx context.Context, code string, params service.ListParams) (*service.RatePage, error)
	getRateFunc     func(ctx context.Context, code, date string) (*service.RateResult, error)
	fetchTodayFunc  func(ctx context.Context) (*service.RefreshResult, error)
	fetchByDateFunc func(ctx context.Context, date string) (*service.RefreshResult, error)
}

func (m *mockRateService) ListRates(ctx context.Context, params service.ListParams) (*service.RatePage, error) {
	return m.listRatesFunc(ctx, params)
}

func (m *mockRateService) History(ctx context.Context, code string, params service.ListParams) (*service.RatePage, error) {
	return m.historyFunc(ctx, code, params)
}

func (m *mockRateService) GetRate(ctx context.Context, code, date string) (*service.RateResult, error) {
	return m.getRateFunc(ctx, code, date)
}

func (m *mockRateService) FetchToday(ctx context.Context) (*service.RefreshResult, error) {
	return m.fetchTodayFunc(ctx)
}

func (m *mockRateService) FetchByDate(ctx context.Context, date string) (*service.RefreshResult, error) {
	return m.fetchByDateFunc(ctx, date)
}
