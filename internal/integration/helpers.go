//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rateharvester/internal/repository"
	"rateharvester/internal/testkit"
)

// resetTestData empties exchange_rates and the Redis database before a test.
func resetTestData(t *testing.T) {
	t.Helper()
	testkit.Global().Reset(t)
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newRepo() repository.RateRepository {
	return repository.NewPostgresRateRepository(testkit.Global().DB())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(repository.DateLayout, s, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// insertRate upserts a rate with only the base rate set.
func insertRate(t *testing.T, code, date, base string) *repository.ExchangeRate {
	t.Helper()
	rate := &repository.ExchangeRate{
		Code:     code,
		Name:     code + " name",
		BaseRate: decimal.RequireFromString(base),
		Date:     day(t, date),
	}
	if _, err := newRepo().Upsert(testContext(t), rate); err != nil {
		t.Fatalf("Upsert %s/%s: %v", code, date, err)
	}
	return rate
}
