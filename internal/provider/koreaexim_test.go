package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rateharvester/internal/config"
)

func newTestProvider(baseURL, apiKey string) *KoreaEximProvider {
	return NewKoreaEximProvider(config.KoreaEximConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		DataCode:   "AP01",
		TimeoutSec: 5,
	})
}

var testDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestKoreaEximProvider_FetchRates(t *testing.T) {
	t.Run("builds request and decodes rows", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.URL.Query().Get("authkey"))
			assert.Equal(t, "20240115", r.URL.Query().Get("searchdate"))
			assert.Equal(t, "AP01", r.URL.Query().Get("data"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"result":1,"cur_unit":"USD","cur_nm":"미국 달러","deal_bas_r":"1,432.5","bkpr":"1,432","kftc_bkpr":"1,432","tts":"1,446.82","ttb":"1,418.17"}]`))
		}))
		defer srv.Close()

		rows, err := newTestProvider(srv.URL, "secret").FetchRates(context.Background(), testDate)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "USD", rows[0].CurUnit)
		assert.Equal(t, "1,432.5", rows[0].DealBaseRate)
		assert.Equal(t, "1,418.17", rows[0].RemitReceiveRate)
	})

	t.Run("empty list is a valid result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		rows, err := newTestProvider(srv.URL, "secret").FetchRates(context.Background(), testDate)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("object response is an in-band failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":0}`))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "secret").FetchRates(context.Background(), testDate)
		var perr *Error
		require.True(t, errors.As(err, &perr))
		assert.Contains(t, perr.Payload, `"result":0`)
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "secret").FetchRates(context.Background(), testDate)
		var perr *Error
		require.True(t, errors.As(err, &perr))
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "secret").FetchRates(context.Background(), testDate)
		var perr *Error
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("connection error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := newTestProvider(url, "secret").FetchRates(context.Background(), testDate)
		var perr *Error
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("missing api key fails without calling out", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL, "").FetchRates(context.Background(), testDate)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		var perr *Error
		assert.True(t, errors.As(err, &perr))
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("timeout is a provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		p := newTestProvider(srv.URL, "secret")
		p.client.Timeout = 50 * time.Millisecond

		_, err := p.FetchRates(context.Background(), testDate)
		var perr *Error
		assert.True(t, errors.As(err, &perr))
	})
}
