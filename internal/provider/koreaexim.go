package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"rateharvester/internal/config"
)

var (
	_ RatesProvider      = (*KoreaEximProvider)(nil)
	_ CredentialReporter = (*KoreaEximProvider)(nil)
)

const (
	searchDateLayout = "20060102"
	maxErrorBody     = 512
)

// KoreaEximProvider fetches daily rates from the Korea Eximbank open API.
type KoreaEximProvider struct {
	baseURL  string
	apiKey   string
	dataCode string
	client   *http.Client
}

// NewKoreaEximProvider creates a provider from the given configuration.
func NewKoreaEximProvider(cfg config.KoreaEximConfig) *KoreaEximProvider {
	dataCode := cfg.DataCode
	if dataCode == "" {
		dataCode = "AP01"
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KoreaEximProvider{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		dataCode: dataCode,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *KoreaEximProvider) requestURL(date time.Time) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", p.baseURL, err)
	}
	q := u.Query()
	q.Set("authkey", p.apiKey)
	q.Set("searchdate", date.Format(searchDateLayout))
	q.Set("data", p.dataCode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HasCredential reports whether an API key is configured.
func (p *KoreaEximProvider) HasCredential() bool {
	return p.apiKey != ""
}

// FetchRates retrieves the quotation rows for the given date.
func (p *KoreaEximProvider) FetchRates(ctx context.Context, date time.Time) ([]RawRate, error) {
	if !p.HasCredential() {
		return nil, &Error{Op: "configure", Err: ErrMissingAPIKey}
	}

	reqURL, err := p.requestURL(date)
	if err != nil {
		return nil, &Error{Op: "request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, &Error{Op: "request", Err: fmt.Errorf("request creation failed: %w", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "request", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read", Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Op:  "request",
			Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body)),
		}
	}

	return decodeRates(body)
}

// decodeRates accepts either a JSON array of rows or a JSON object signalling an in-band failure.
func decodeRates(body []byte) ([]RawRate, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []RawRate{}, nil
	}

	switch trimmed[0] {
	case '[':
		var rows []RawRate
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, &Error{Op: "decode", Err: fmt.Errorf("decode response: %w", err)}
		}
		if rows == nil {
			rows = []RawRate{}
		}
		return rows, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, &Error{Op: "decode", Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil, &Error{
			Op:      "fetch",
			Payload: truncate(trimmed),
			Err:     errors.New("API returned an error response"),
		}
	default:
		return nil, &Error{Op: "decode", Payload: truncate(trimmed), Err: errors.New("unexpected response shape")}
	}
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
