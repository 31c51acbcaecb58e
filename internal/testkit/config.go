// Package testkit starts the Postgres and Redis dependencies of the integration
// tests, either as testcontainers or from externally supplied addresses.
package testkit

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration for integration test infrastructure.
type Config struct {
	PGImage        string
	RedisImage     string
	PGDSN          string        // If set, skip Postgres container.
	RedisAddr      string        // If set, skip Redis container.
	StartupTimeout time.Duration // Max time to wait for containers to become ready.
	KeepContainers bool          // If true, do not terminate containers on shutdown.
}

// LoadConfig reads test infrastructure settings from RATESVC_TEST_* environment variables.
func LoadConfig() Config {
	return Config{
		PGImage:        envOrDefault("RATESVC_TEST_PG_IMAGE", "postgres:18.1-alpine"),
		RedisImage:     envOrDefault("RATESVC_TEST_REDIS_IMAGE", "redis:8.4.0-alpine"),
		PGDSN:          os.Getenv("RATESVC_TEST_PG_DSN"),
		RedisAddr:      os.Getenv("RATESVC_TEST_REDIS_ADDR"),
		StartupTimeout: envDuration("RATESVC_TEST_STARTUP_TIMEOUT", 90*time.Second),
		KeepContainers: envBool("RATESVC_TEST_KEEP_CONTAINERS", false),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration accepts a Go duration ("2m") or plain seconds ("120").
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	fmt.Fprintf(os.Stderr, "testkit: ignoring %s=%q, using %v\n", key, v, def)
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testkit: ignoring %s=%q, using %v\n", key, v, def)
		return def
	}
	return b
}
