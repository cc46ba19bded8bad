package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
	"github.com/spec-kit/auth-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codec, err := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var users repository.UserRepository
	if pg.Pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		users = repository.NewUserRepository(pg.PoolHandle())
	} else {
		logger.Warn("running with in-memory user store")
		users = repository.NewMemoryUserRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	authenticator := auth.NewAuthenticator(users, cfg.Auth.BcryptCost)

	seedAdmin(ctx, authenticator, cfg.Auth, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Authenticator: authenticator,
		Codec:         codec,
		Limiter:       service.NewLoginLimiter(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginCooldown()),
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	auditService := service.NewAuditService(dispatcher, logger, redis.Client, cfg.Audit)
	worker.StartAuditWorker(auditService)

	filter := auth.NewFilter(codec, users, logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:     handlers.NewAuthHandler(authService),
		Accounts: handlers.NewAccountsHandler(users),
		Filter:   filter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// seedAdmin bootstraps an ADMIN account when configured, so a fresh
// deployment has a caller able to reach the role-gated routes.
func seedAdmin(ctx context.Context, authenticator *auth.Authenticator, cfg config.AuthConfig, logger *zap.Logger) {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return
	}
	_, err := authenticator.Register(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, []domain.Role{domain.RoleAdmin})
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateIdentifier) {
			return
		}
		logger.Warn("failed to seed admin account", zap.Error(err))
		return
	}
	logger.Info("seeded admin account", zap.String("email", cfg.SeedAdminEmail))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
