package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"rateharvester/internal/config"
	"rateharvester/internal/metrics"
	"rateharvester/internal/service"
)

// routeRecorder records which service operation a request reached.
type routeRecorder struct {
	last string
}

func (s *routeRecorder) ListRates(_ context.Context, p service.ListParams) (*service.RatePage, error) {
	s.last = "list:" + p.Code
	return &service.RatePage{Page: 1, PageSize: 100}, nil
}

func (s *routeRecorder) History(_ context.Context, code string, _ service.ListParams) (*service.RatePage, error) {
	s.last = "history:" + code
	return &service.RatePage{Page: 1, PageSize: 100}, nil
}

func (s *routeRecorder) GetRate(_ context.Context, code, date string) (*service.RateResult, error) {
	s.last = "get:" + code + "/" + date
	return &service.RateResult{Code: code, Date: date, BaseRate: "1432.5000"}, nil
}

func (s *routeRecorder) FetchToday(context.Context) (*service.RefreshResult, error) {
	s.last = "today"
	return &service.RefreshResult{Date: "2024-01-15"}, nil
}

func (s *routeRecorder) FetchByDate(_ context.Context, date string) (*service.RefreshResult, error) {
	s.last = "by-date:" + date
	return &service.RefreshResult{Date: date}, nil
}

func newTestRouter(t *testing.T, svc service.RateServiceInterface) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	app := &App{
		cfg:      &config.Config{Server: config.ServerConfig{Port: 8080, FetchRateLimit: "1000-M"}},
		logger:   zap.NewNop().Sugar(),
		registry: reg,
		metrics:  metrics.New(reg),
	}
	if err := app.initHTTP(svc, nil); err != nil {
		t.Fatalf("initHTTP: %v", err)
	}
	return app.httpServer.Handler
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/exchange-rates", "list:"},
		{http.MethodGet, "/exchange-rates/", "list:"},
		{http.MethodGet, "/exchange-rates/?code=usd", "list:usd"},
		{http.MethodGet, "/exchange-rates/USD", "history:USD"},
		{http.MethodGet, "/exchange-rates/USD/", "history:USD"},
		{http.MethodGet, "/exchange-rates/JPY(100)/dates/2024-01-15", "get:JPY(100)/2024-01-15"},
		{http.MethodGet, "/exchange-rates/USD/dates/2024-01-15/", "get:USD/2024-01-15"},
		{http.MethodPost, "/exchange-rates/fetch", "today"},
		{http.MethodPost, "/exchange-rates/fetch/", "today"},
		{http.MethodPost, "/exchange-rates/fetch/dates/2024-01-12", "by-date:2024-01-12"},
		{http.MethodPost, "/exchange-rates/fetch/dates/2024-01-12/", "by-date:2024-01-12"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			svc := &routeRecorder{}
			router := newTestRouter(t, svc)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if svc.last != tt.want {
				t.Errorf("Expected %q to reach %q, got %q", tt.path, tt.want, svc.last)
			}
		})
	}
}

func TestRoutes_MethodMismatch(t *testing.T) {
	svc := &routeRecorder{}
	router := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exchange-rates/USD/dates/2024-01-15", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
	if svc.last != "" {
		t.Errorf("Expected no service call, got %q", svc.last)
	}
}

func TestRoutes_OpsEndpoints(t *testing.T) {
	router := newTestRouter(t, &routeRecorder{})

	for _, path := range []string{"/healthz", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}
