package testkit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// endpoint is a reachable dependency. ctr is nil when the address came from the environment.
type endpoint struct {
	ctr  testcontainers.Container
	addr string // DSN for Postgres, host:port for Redis
}

func (e *endpoint) terminate(ctx context.Context) error {
	if e == nil || e.ctr == nil {
		return nil
	}
	return e.ctr.Terminate(ctx)
}

// startPostgres runs a throwaway Postgres with a random database name unless cfg.PGDSN is set.
func startPostgres(ctx context.Context, cfg *Config) (*endpoint, error) {
	if cfg.PGDSN != "" {
		return &endpoint{addr: cfg.PGDSN}, nil
	}

	ctr, err := postgres.Run(ctx,
		cfg.PGImage,
		postgres.WithDatabase(randomDBName()),
		postgres.WithUsername("rates"),
		postgres.WithPassword("rates"),
		testcontainers.WithWaitStrategyAndDeadline(cfg.StartupTimeout,
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return &endpoint{ctr: ctr, addr: dsn}, nil
}

// startRedis runs a Redis container unless cfg.RedisAddr is set.
func startRedis(ctx context.Context, cfg *Config) (*endpoint, error) {
	if cfg.RedisAddr != "" {
		return &endpoint{addr: cfg.RedisAddr}, nil
	}

	ctr, err := tcredis.Run(ctx, cfg.RedisImage,
		testcontainers.WithWaitStrategyAndDeadline(cfg.StartupTimeout,
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("redis connection string: %w", err)
	}
	// go-redis Options take host:port, not a redis:// URL.
	u, err := url.Parse(connStr)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("parse redis connection string %q: %w", connStr, err)
	}
	return &endpoint{ctr: ctr, addr: u.Host}, nil
}

func randomDBName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "rates_test"
	}
	return "rates_test_" + hex.EncodeToString(b)
}
