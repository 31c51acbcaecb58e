// Package provider implements the external source of daily exchange rate quotations.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RatesProvider fetches the raw quotation rows published for a single date.
// An empty slice with a nil error means the provider has no data for that date.
type RatesProvider interface {
	FetchRates(ctx context.Context, date time.Time) ([]RawRate, error)
}

// RawRate is one row of the provider payload. Rate fields are kept as the
// provider sends them (comma grouped strings) and parsed by the caller.
type RawRate struct {
	Result           json.Number `json:"result"`
	CurUnit          string      `json:"cur_unit"`
	CurName          string      `json:"cur_nm"`
	DealBaseRate     string      `json:"deal_bas_r"`
	CashBuyRate      string      `json:"bkpr"`
	CashSellRate     string      `json:"kftc_bkpr"`
	RemitSendRate    string      `json:"tts"`
	RemitReceiveRate string      `json:"ttb"`
}

// CredentialReporter is implemented by providers that need an API credential.
type CredentialReporter interface {
	HasCredential() bool
}

type bypassCacheKey struct{}

// WithCacheBypass marks ctx so caching decorators skip their read path and
// always ask the underlying provider. Fresh results are still cached.
func WithCacheBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCacheKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassCacheKey{}).(bool)
	return v
}

// ErrMissingAPIKey is reported when no API credential is configured.
var ErrMissingAPIKey = errors.New("provider API key is not configured")

// Error is returned for every provider failure: configuration, transport,
// malformed payload, or an in-band failure reported by the provider.
type Error struct {
	Op      string
	Payload string // raw body for in-band failures, if any
	Err     error
}

func (e *Error) Error() string {
	msg := "provider " + e.Op + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Payload != "" {
		msg += fmt.Sprintf(" (payload: %s)", e.Payload)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err was caused by missing provider configuration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMissingAPIKey)
}
