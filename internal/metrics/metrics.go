// Package metrics defines the Prometheus instruments exported by the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeEmpty           = "empty"
	OutcomeProviderError   = "provider_error"
	OutcomeValidationError = "validation_error"
	OutcomeStoreError      = "store_error"
)

// Metrics holds every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RefreshTotal         *prometheus.CounterVec
	RatesUpsertedTotal   *prometheus.CounterVec
	RatesSkippedTotal    prometheus.Counter
	ProviderFetchSeconds prometheus.Histogram
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestSeconds   *prometheus.HistogramVec
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RefreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_refresh_total",
				Help: "Fetch-and-store cycles by outcome",
			},
			[]string{"outcome"},
		),
		RatesUpsertedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_upserted_total",
				Help: "Exchange rate rows written, split by insert or update",
			},
			[]string{"action"},
		),
		RatesSkippedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_skipped_total",
				Help: "Provider rows skipped because of a blank code or unparseable base rate",
			},
		),
		ProviderFetchSeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rates_provider_fetch_seconds",
				Help:    "Latency of provider fetch calls",
				Buckets: prometheus.DefBuckets,
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveRefresh counts one refresh cycle.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpsert counts one stored row.
func (m *Metrics) ObserveUpsert(created bool) {
	if m == nil {
		return
	}
	action := "updated"
	if created {
		action = "created"
	}
	m.RatesUpsertedTotal.WithLabelValues(action).Inc()
}

// ObserveSkipped counts one skipped provider row.
func (m *Metrics) ObserveSkipped() {
	if m == nil {
		return
	}
	m.RatesSkippedTotal.Inc()
}

// ObserveProviderFetch records the latency of one provider call.
func (m *Metrics) ObserveProviderFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderFetchSeconds.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
