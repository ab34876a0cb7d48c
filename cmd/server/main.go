package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pollpulse/internal/adapter/httpserver"
	"github.com/pscheid92/pollpulse/internal/adapter/metrics"
	"github.com/pscheid92/pollpulse/internal/adapter/postgres"
	"github.com/pscheid92/pollpulse/internal/adapter/redis"
	"github.com/pscheid92/pollpulse/internal/adapter/websocket"
	"github.com/pscheid92/pollpulse/internal/app"
	"github.com/pscheid92/pollpulse/internal/broadcast"
	"github.com/pscheid92/pollpulse/internal/domain"
	"github.com/pscheid92/pollpulse/internal/platform/config"
	"github.com/pscheid92/pollpulse/internal/platform/logging"
	"github.com/pscheid92/pollpulse/internal/platform/retry"
	"github.com/pscheid92/pollpulse/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 10 * time.Second
	breakerDelay    = 5 * time.Second
)

var startupRetry = retry.Policy{
	MaxAttempts:    6,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     8 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Startup dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, m *metrics.StorageMetrics) *pgxpool.Pool {
	pool, err := retry.Do(ctx, startupRetry, retry.Transient, func(ctx context.Context) (*pgxpool.Pool, error) {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return postgres.Connect(connectCtx, cfg.DatabaseURL, version.UserAgent(), postgres.NewQueryTracer(m))
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := postgres.RunMigrationsWithLock(migrateCtx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil when REDIS_URL is unset; vote rate limiting is then disabled.
func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.StorageMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, vote rate limiting disabled")
		return nil
	}

	client, err := retry.Do(ctx, startupRetry, retry.Transient, func(ctx context.Context) (*goredis.Client, error) {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return redis.NewClient(connectCtx, cfg.RedisURL, version.UserAgent(), redis.NewMetricsHook(m))
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client, connections *broadcast.ConnectionManager, maxConnections int) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "websocket_capacity", Check: func(context.Context) error {
			if n := connections.ConnectionCount(); n >= maxConnections {
				return fmt.Errorf("connection limit reached (%d/%d)", n, maxConnections)
			}
			return nil
		}},
	}
	if redisClient != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return checks
}

func runGracefulShutdown(ctx context.Context, srv *httpserver.Server, connections *broadcast.ConnectionManager, dispatcher *broadcast.Dispatcher) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Close WebSockets first: hijacked connections are not drained by the HTTP server.
		if err := connections.Shutdown(shutdownCtx); err != nil {
			slog.Error("WebSocket shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		// Queued broadcasts still use the database pool.
		if err := dispatcher.Wait(shutdownCtx); err != nil {
			slog.Error("Broadcast drain error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()
	storageMetrics := metrics.NewStorageMetrics(registry)

	pool := setupDB(ctx, cfg, storageMetrics)
	defer pool.Close()

	redisClient := setupRedis(ctx, cfg, storageMetrics)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	voteMetrics := metrics.NewVoteMetrics(registry)
	broadcastMetrics := metrics.NewBroadcastMetrics(registry)
	wsMetrics := metrics.NewWebSocketMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	userRepo := postgres.NewUserRepo(pool)
	pollRepo := postgres.NewPollRepo(pool)
	voteRepo := postgres.NewVoteRepo(pool)

	rooms := broadcast.NewRegistry()
	metrics.RegisterRoomGauges(registry, rooms.RoomCount, rooms.MemberCount)

	fetcher := broadcast.NewBreakerFetcher(pollRepo, broadcastMetrics, breakerDelay)
	dispatcher := broadcast.NewDispatcher(rooms, fetcher, broadcastMetrics, clock, cfg.TallyFetchTimeout)

	checkOrigin := websocket.NewCheckOrigin(cfg.AppURL, !cfg.IsProduction())
	connections := broadcast.NewConnectionManager(rooms, checkOrigin, wsMetrics, clock, cfg.MaxWebSocketConnections)

	// Pass nil explicitly to avoid a typed-nil interface
	var limiter domain.VoteRateLimiter
	if redisClient != nil {
		limiter = redis.NewVoteRateLimiter(redisClient, clock, cfg.VoteRateBurst, cfg.VoteRatePerMinute)
	}

	appSvc := app.NewService(userRepo, pollRepo, voteRepo, limiter, dispatcher, voteMetrics, clock)

	srv := httpserver.NewServer(cfg, appSvc, connections, registry, httpMetrics,
		healthChecks(pool, redisClient, connections, cfg.MaxWebSocketConnections))

	done := runGracefulShutdown(ctx, srv, connections, dispatcher)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
