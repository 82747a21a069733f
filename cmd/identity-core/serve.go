package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/foodorder-identity/internal/adapters/driven/auth"
	"github.com/custodia-labs/foodorder-identity/internal/adapters/driven/postgres"
	"github.com/custodia-labs/foodorder-identity/internal/adapters/driven/redis"
	httpserver "github.com/custodia-labs/foodorder-identity/internal/adapters/driving/http"
	"github.com/custodia-labs/foodorder-identity/internal/config"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
	"github.com/custodia-labs/foodorder-identity/internal/core/services"
	"github.com/custodia-labs/foodorder-identity/internal/observability"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Connect to PostgreSQL (and Redis when configured), apply migrations
if enabled, and serve the customer API until interrupted.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	logger.Info("identity-core starting",
		"version", version,
		"addr", cfg.Addr(),
		"session_backend", sessionBackend(cfg),
	)

	db, err := postgres.Connect(ctx, dbConfig(cfg))
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return oops.Code("MIGRATION_FAILED").Wrap(err)
		}
		logger.Info("database migrations applied")
	}

	customerStore := postgres.NewCustomerStore(db)

	var (
		sessionStore driven.SessionStore
		signupLock   driven.DistributedLock
		redisPing    httpserver.Pinger
	)
	if cfg.UsesRedis() {
		client, err := redis.Connect(ctx, cfg.RedisURL, cfg.ConnectRetries)
		if err != nil {
			return oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
		}
		defer client.Close()

		sessionStore = redis.NewSessionStore(client)
		signupLock = redis.NewLock(client)
		redisPing = redisPinger{client}
	} else {
		sessionStore = postgres.NewSessionStore(db)
		signupLock = postgres.NewAdvisoryLock(db)
	}

	crypto := auth.NewPasswordCryptoWithParams(cfg.Argon2Params())
	tokens := auth.NewTokenIssuer(cfg.TokenIssuer)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithSignupLock(signupLock, cfg.SignupLockWait),
	}
	customerService := services.NewCustomerService(customerStore, crypto, opts...)
	authService := services.NewAuthService(customerStore, sessionStore, crypto, tokens, opts...)

	deps := httpserver.Deps{
		DB:     db,
		Redis:  redisPing,
		Logger: logger,
	}
	if cfg.MetricsEnabled {
		registry := observability.NewRegistry()
		deps.Metrics = observability.NewMetrics(registry)
		deps.MetricsView = observability.Handler(registry)
	}

	server := httpserver.NewServer(httpserver.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         version,
		CORSOrigins:     cfg.CORSOrigins,
		ShutdownTimeout: httpserver.DefaultConfig().ShutdownTimeout,
	}, authService, customerService, deps)

	return server.Start(ctx)
}

func dbConfig(cfg *config.Config) postgres.Config {
	dbCfg := postgres.DefaultConfig(cfg.DatabaseURL)
	dbCfg.MaxOpenConns = cfg.DBMaxOpenConns
	dbCfg.MaxIdleConns = cfg.DBMaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.DBConnMaxLifetime
	dbCfg.ConnectRetries = cfg.ConnectRetries
	return dbCfg
}

func sessionBackend(cfg *config.Config) string {
	if cfg.UsesRedis() {
		return "redis"
	}
	return "postgres"
}

// redisPinger adapts a go-redis client to the readiness check
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
