package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/marketloom/socialconnect/internal/adapter/cache"
	"github.com/marketloom/socialconnect/internal/authorize"
	"github.com/marketloom/socialconnect/internal/config"
	"github.com/marketloom/socialconnect/internal/exchange"
	httptransport "github.com/marketloom/socialconnect/internal/http"
	"github.com/marketloom/socialconnect/internal/http/handler"
	httpmiddleware "github.com/marketloom/socialconnect/internal/http/middleware"
	apimiddleware "github.com/marketloom/socialconnect/internal/middleware"
	"github.com/marketloom/socialconnect/internal/platform"
	"github.com/marketloom/socialconnect/internal/repository"
	"github.com/marketloom/socialconnect/internal/server"
	"github.com/marketloom/socialconnect/internal/service/connect"
	"github.com/marketloom/socialconnect/internal/session"
	"github.com/marketloom/socialconnect/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newRedisClient,
			newStateStore,
			newRefreshLocker,
			newConnectionRepository,
			platform.New,
			authorize.NewBuilder,
			newExchanger,
			newConnectService,
			newSessionVerifier,
			newAuthMiddleware,
			newRateLimiter,
			handler.NewConnectHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newStateStore(client redis.UniversalClient) repository.StateStore {
	return cacheadapter.NewRedisStateStore(client)
}

func newRefreshLocker(client redis.UniversalClient) repository.RefreshLocker {
	return cacheadapter.NewRedisRefreshLocker(client)
}

func newConnectionRepository(pool *pgxpool.Pool, node *snowflake.Node) repository.ConnectionRepository {
	return repository.NewPostgresConnectionRepo(pool, node)
}

func newExchanger(registry *platform.Registry, cfg config.Config, logger *zap.Logger) *exchange.Exchanger {
	client := &http.Client{Timeout: cfg.ProviderTimeout}
	return exchange.New(registry, client, logger)
}

func newConnectService(
	builder *authorize.Builder,
	stateStore repository.StateStore,
	exchanger *exchange.Exchanger,
	connections repository.ConnectionRepository,
	locker repository.RefreshLocker,
	logger *zap.Logger,
) *connect.Service {
	return connect.NewService(builder, stateStore, exchanger, connections, locker, logger)
}

func newSessionVerifier(cfg config.Config) *session.Verifier {
	return session.NewVerifier(cfg.SessionKey)
}

func newAuthMiddleware(verifier *session.Verifier) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Verifier: verifier}
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
