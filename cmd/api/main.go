package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/jwt-builder/internal/api/http"
	"github.com/spec-kit/jwt-builder/internal/api/http/handlers"
	"github.com/spec-kit/jwt-builder/internal/auth"
	"github.com/spec-kit/jwt-builder/internal/bootstrap"
	"github.com/spec-kit/jwt-builder/internal/catalog"
	"github.com/spec-kit/jwt-builder/internal/config"
	"github.com/spec-kit/jwt-builder/internal/events"
	"github.com/spec-kit/jwt-builder/internal/expiry"
	"github.com/spec-kit/jwt-builder/internal/observability"
	"github.com/spec-kit/jwt-builder/internal/persistence"
	"github.com/spec-kit/jwt-builder/internal/repository"
	"github.com/spec-kit/jwt-builder/internal/service"
	"github.com/spec-kit/jwt-builder/internal/session"
	"github.com/spec-kit/jwt-builder/internal/token"
	"github.com/spec-kit/jwt-builder/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// read before anything else can observe the environment
	boot := bootstrap.New(bootstrap.EnvCarrier{Key: cfg.Builder.SecretEnv})
	seeded := boot.Seed()

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	cat, err := loadCatalog(ctx, cfg.Builder, pg)
	if err != nil {
		logger.Fatal("failed to load role catalog", zap.Error(err))
	}
	logger.Info("role catalog loaded",
		zap.String("source", cfg.Builder.CatalogSource),
		zap.Int("tables", len(cat.Tables())),
		zap.Int("roles", len(cat.Roles())),
	)

	var (
		sessions session.Store
		rdb      *persistence.Redis
	)
	switch cfg.Builder.SessionStore {
	case config.SessionStoreRedis:
		rdb, err = persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb.Client, cfg.Redis.KeyPrefix, cfg.Builder.SessionTTL())
	default:
		sessions = session.NewMemoryStore(cfg.Builder.SessionTTL())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	clock := expiry.SystemClock{}
	builder := service.NewBuilderService(cfg.Builder, service.BuilderDependencies{
		Catalog:      cat,
		Sessions:     sessions,
		Signer:       token.NewSigner(token.WithClock(clock)),
		Clock:        clock,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		SeededSecret: seeded,
	})
	if boot.Seeded() {
		logger.Info("signing secret seeded from environment", zap.String("variable", cfg.Builder.SecretEnv))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if rdb != nil {
		deps["redis"] = rdb
	}

	var operator fiber.Handler
	if cfg.Auth.OperatorPasswordHash != "" {
		operator = auth.OperatorGate(cfg.Auth)
	} else {
		logger.Warn("AUTH_OPERATOR_PASSWORD_HASH not set; builder API is unauthenticated")
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, deps),
		Catalog:  handlers.NewCatalogHandler(builder, cfg.Builder.DefaultExpiry),
		Sessions: handlers.NewSessionsHandler(builder),
		Tokens:   handlers.NewTokensHandler(builder),
		Operator: operator,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func loadCatalog(ctx context.Context, cfg config.BuilderConfig, pg *persistence.Postgres) (*catalog.Catalog, error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceFile:
		return catalog.LoadFile(cfg.CatalogPath)
	case config.CatalogSourcePostgres:
		if !pg.Enabled() {
			return nil, errors.New("catalog source postgres requires POSTGRES_DSN")
		}
		data, err := repository.NewCatalogRepository(pg.Pool).Load(ctx)
		if err != nil {
			return nil, err
		}
		if len(data.Tables) == 0 {
			return nil, errors.New("postgres catalog has no tables")
		}
		return catalog.New(data), nil
	default:
		return catalog.Default(), nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
