package api

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 2 * time.Second

// ReadyResponse reports the overall readiness and the state of each dependency.
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// ReadinessCheck is a named dependency probe.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// DBCheck probes a Postgres pool.
func DBCheck(db *sql.DB) ReadinessCheck {
	return ReadinessCheck{Name: "postgres", Ping: db.PingContext}
}

// RedisCheck probes a Redis client.
func RedisCheck(name string, rdb *redis.Client) ReadinessCheck {
	return ReadinessCheck{Name: name, Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// HandleHealthz godoc
// @Summary Health check (liveness)
// @Description Always returns 200 OK if the service is running. Used for liveness probes.
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleReadyz godoc
// @Summary Readiness check
// @Description Pings Postgres, the cache Redis and the queue Redis concurrently. Returns 200 only when every dependency answers.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse "All dependencies ready"
// @Failure 503 {object} ReadyResponse "At least one dependency unavailable"
// @Router /readyz [get]
func HandleReadyz(checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]string, len(checks))
			ready   = true
		)
		for _, c := range checks {
			wg.Add(1)
			go func(c ReadinessCheck) {
				defer wg.Done()
				state := "ok"
				if err := c.Ping(ctx); err != nil {
					state = "unavailable"
				}
				mu.Lock()
				results[c.Name] = state
				if state != "ok" {
					ready = false
				}
				mu.Unlock()
			}(c)
		}
		wg.Wait()

		if !ready {
			writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready", Checks: results})
			return
		}
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Checks: results})
	}
}
