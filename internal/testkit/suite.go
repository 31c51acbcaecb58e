package testkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rateharvester/internal/repository"
)

// Suite owns the integration infrastructure: containers plus a migrated
// database handle and a Redis client shared by all tests in a package.
type Suite struct {
	mu    sync.Mutex
	cfg   Config
	pg    *endpoint
	redis *endpoint
	db    *sql.DB
	rdb   *redis.Client
}

var (
	globalSuite *Suite
	globalOnce  sync.Once
)

// Global returns the singleton Suite instance.
func Global() *Suite {
	globalOnce.Do(func() {
		globalSuite = &Suite{cfg: LoadConfig()}
	})
	return globalSuite
}

// Setup starts the containers, opens connections and applies migrations.
func (s *Suite) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return errors.New("suite already set up; call Shutdown first")
	}

	pg, err := startPostgres(ctx, &s.cfg)
	if err != nil {
		return fmt.Errorf("setup postgres: %w", err)
	}
	s.pg = pg

	rm, err := startRedis(ctx, &s.cfg)
	if err != nil {
		s.teardown(ctx)
		return fmt.Errorf("setup redis: %w", err)
	}
	s.redis = rm

	db, err := sql.Open("pgx", pg.addr)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		s.teardown(ctx)
		return fmt.Errorf("open postgres: %w", err)
	}
	s.db = db

	if err := repository.RunMigrations(db, zap.NewNop().Sugar()); err != nil {
		s.teardown(ctx)
		return fmt.Errorf("migrate: %w", err)
	}

	s.rdb = redis.NewClient(&redis.Options{Addr: rm.addr})
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.teardown(ctx)
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Shutdown closes connections and terminates containers unless KeepContainers is set.
func (s *Suite) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown(ctx)
}

func (s *Suite) teardown(ctx context.Context) {
	if s.rdb != nil {
		_ = s.rdb.Close()
		s.rdb = nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}

	switch {
	case s.cfg.KeepContainers:
		if s.pg != nil {
			fmt.Println("testkit: keeping containers; Postgres DSN:", s.pg.addr)
		}
		if s.redis != nil {
			fmt.Println("testkit: keeping containers; Redis addr:", s.redis.addr)
		}
	default:
		if err := s.redis.terminate(ctx); err != nil {
			fmt.Println("testkit: failed to terminate redis container:", err)
		}
		if err := s.pg.terminate(ctx); err != nil {
			fmt.Println("testkit: failed to terminate postgres container:", err)
		}
	}
	s.pg, s.redis = nil, nil
}

// DB returns the migrated database handle.
func (s *Suite) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Redis returns the shared Redis client.
func (s *Suite) Redis() *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rdb
}

// Reset empties the exchange_rates table and the Redis database.
func (s *Suite) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.DB().ExecContext(ctx, "TRUNCATE TABLE exchange_rates RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to truncate exchange_rates: %v", err)
	}
	if err := s.Redis().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// Run sets up the suite, executes tests, then shuts down. Intended for use in TestMain.
func (s *Suite) Run(m *testing.M) {
	ctx := context.Background()

	if err := s.Setup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "integration test setup failed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	s.Shutdown(ctx)
	os.Exit(code)
}

// Run is a package-level convenience that delegates to Global().Run.
func Run(m *testing.M) {
	Global().Run(m)
}
