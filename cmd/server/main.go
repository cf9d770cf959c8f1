// @title           Inventory Back-office API
// @version         1.0
// @description     Session authentication for the inventory back-office.
// @BasePath        /
// @securityDefinitions.apikey  CookieAuth
// @in              cookie
// @name            token
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	_ "github.com/inventory-system/backoffice-api/docs"
	"github.com/inventory-system/backoffice-api/internal/api"
	"github.com/inventory-system/backoffice-api/internal/api/handler"
	"github.com/inventory-system/backoffice-api/internal/api/metrics"
	"github.com/inventory-system/backoffice-api/internal/api/session"
	"github.com/inventory-system/backoffice-api/internal/core/ports"
	"github.com/inventory-system/backoffice-api/internal/core/service"
	"github.com/inventory-system/backoffice-api/internal/infrastructure/config"
	mongostore "github.com/inventory-system/backoffice-api/internal/infrastructure/db/mongo"
	redisstore "github.com/inventory-system/backoffice-api/internal/infrastructure/db/redis"
	"github.com/inventory-system/backoffice-api/internal/infrastructure/queue"
	"github.com/inventory-system/backoffice-api/pkg/logger"
)

const serviceName = "backoffice-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		l := logger.Get()
		l.Error().Err(err).Msg("server exited")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsLocal(),
		Service: serviceName,
	})

	// --- Stores ---
	mongoProvider := mongostore.NewProvider(mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	db, err := mongoProvider.Database(ctx)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := mongoProvider.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	auditRepo := mongostore.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo ready")

	health := map[string]handler.PingFunc{"mongodb": mongoProvider.Ping}

	var revocations ports.RevocationStore
	if cfg.Auth.TokenRevocation {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		denylist := redisstore.NewDenylist(rdb)
		revocations = denylist
		health["redis"] = denylist.Ping
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token revocation enabled")
	}

	// --- Audit trail ---
	auditCtx, cancelAudit := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelAudit()
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.For("audit"),
		queue.WithDropCounter(metrics.AuditEventsDropped),
		queue.WithQueueDepth(metrics.AuditQueueDepth),
	)
	dispatcher.Start(auditCtx)
	defer dispatcher.Stop()

	// --- Auth ---
	tokens, err := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	authService, err := service.NewAuthService(service.AuthDeps{
		Users:       users,
		Locations:   mongostore.NewLocationRepository(db),
		Hasher:      service.NewBcryptHasher(cfg.Auth.BcryptCost),
		Issuer:      tokens,
		Verifier:    tokens,
		Revocations: revocations,
		Audit:       dispatcher,
		Logger:      logger.For("auth"),
	})
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Auth:        authService,
		Verifier:    tokens,
		Revocations: revocations,
		Session: session.New(session.Config{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Secure:   !cfg.IsLocal(),
			SameSite: cfg.SameSite(),
			TTL:      tokens.TTL(),
		}),
		Health: health,
		Log:    log,
	}, api.Options{
		CORSOrigins:    cfg.CORS.Origins,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		LoginBurst:     cfg.RateLimit.LoginBurst,
		Docs:           cfg.IsLocal(),
	})

	return serve(ctx, e, cfg, log)
}

func serve(ctx context.Context, e *echo.Echo, cfg *config.Config, log zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		serverErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed, forcing close")
		return e.Close()
	}
	log.Info().Msg("server shutdown complete")
	return nil
}
