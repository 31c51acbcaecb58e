package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rateharvester/internal/metrics"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates UUID when no request ID provided", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Context().Value(requestIDKey).(string)
			if reqID == "" {
				t.Error("Expected request ID in context, got empty string")
			}
			if _, err := uuid.Parse(reqID); err != nil {
				t.Errorf("Expected valid UUID, got: %s", reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		respReqID := w.Header().Get(headerRequestID)
		if respReqID == "" {
			t.Error("Expected X-Request-Id in response header")
		}
		if _, err := uuid.Parse(respReqID); err != nil {
			t.Errorf("Expected valid UUID in response header, got: %s", respReqID)
		}
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		providedID := "test-request-id-123"
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Context().Value(requestIDKey).(string)
			if reqID != providedID {
				t.Errorf("Expected request ID %s, got %s", providedID, reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(headerRequestID, providedID)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		respReqID := w.Header().Get(headerRequestID)
		if respReqID != providedID {
			t.Errorf("Expected X-Request-Id %s in response, got %s", providedID, respReqID)
		}
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sugar := zap.New(core).Sugar()

	handler := RequestIDMiddleware(RequestLoggingMiddleware(sugar)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("OK"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/exchange-rates?code=USD", nil)
	req.Header.Set(headerRequestID, "req-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/boom", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if first["request_id"] != "req-1" || first["path"] != "/exchange-rates?code=USD" || first["status"] != int64(200) {
		t.Errorf("Unexpected log fields: %v", first)
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Errorf("Expected 5xx to log at error level, got %s", entries[1].Level)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/exchange-rates/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/exchange-rates/USD", "/exchange-rates/EUR", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/exchange-rates/{code}", "200")); got != 2 {
		t.Errorf("Expected 2 requests on route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Errorf("Expected 1 unmatched request, got %v", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l, err := NewIPLimiter("2-M")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	handler := RateLimitMiddleware(l, zap.NewNop().Sugar())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/exchange-rates/fetch", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := send("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over quota, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("Expected remaining 0, got %q", w.Header().Get("X-RateLimit-Remaining"))
	}

	if w := send("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("Expected other client to pass, got %d", w.Code)
	}

	if _, err := NewIPLimiter("ten per minute"); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: 0, size: 0}

	rw.WriteHeader(http.StatusCreated)
	if rw.status != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, rw.status)
	}

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}
	if rw.size != len(data) {
		t.Errorf("Expected size %d, got %d", len(data), rw.size)
	}
}

func TestWriteError(t *testing.T) {
	msg := "limit \x01 reached: \"quoted\" \u00e9"
	w := httptest.NewRecorder()
	writeError(w, http.StatusTooManyRequests, msg)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Body is not valid JSON: %v (%s)", err, w.Body.String())
	}
	if body["error"] != msg {
		t.Errorf("Expected error %q, got %q", msg, body["error"])
	}
}
