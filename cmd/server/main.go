package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adminhandler "sigil/internal/admin/handler"
	adminservice "sigil/internal/admin/service"
	adminstore "sigil/internal/admin/store"
	"sigil/internal/admin/token"
	certificatehandler "sigil/internal/certificate/handler"
	"sigil/internal/certificate/metrics"
	certificateservice "sigil/internal/certificate/service"
	certificatestore "sigil/internal/certificate/store"
	"sigil/internal/certificate/tracer"
	"sigil/internal/platform/config"
	"sigil/internal/platform/database"
	"sigil/internal/platform/health"
	"sigil/internal/platform/httpserver"
	"sigil/internal/platform/logger"
	"sigil/internal/platform/redis"
	httptransport "sigil/internal/transport/http"
	"sigil/pkg/platform/audit/publisher"
	"sigil/pkg/platform/middleware/metadata"
	"sigil/pkg/platform/middleware/request"
	"sigil/pkg/secrets"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing sigil",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"store", cfg.StoreBackend,
	)

	healthHandler := health.New(cfg.Environment)

	registry, cleanup, err := buildRegistryStore(ctx, cfg, healthHandler)
	if err != nil {
		log.Error("failed to initialize registry store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	auditor := publisher.NewOps(log)

	certService := certificateservice.New(registry,
		certificateservice.WithLogger(log),
		certificateservice.WithAuditor(auditor),
		certificateservice.WithMetrics(metrics.New()),
		certificateservice.WithTracer(tracer.NewOTel()),
	)

	roster, err := adminstore.NewFileStore(cfg.AdminsPath)
	if err != nil {
		log.Error("failed to open admin roster", "error", err, "path", cfg.AdminsPath)
		os.Exit(1)
	}

	tokens := token.NewIssuer(cfg.JWTSigningKey, cfg.AdminTokenTTL)
	adminService := adminservice.New(roster, tokens,
		adminservice.WithLogger(log),
		adminservice.WithAuditor(auditor),
	)

	if err := seedAdmin(ctx, cfg, adminService, log); err != nil {
		log.Error("failed to seed admin roster", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Certificates:  certificatehandler.New(certService, log),
		Admins:        adminhandler.New(adminService, log),
		Health:        healthHandler,
		TokenVerifier: tokens,
		Metadata:      metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}),
		Latency:       request.NewMetrics(),
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildRegistryStore selects the registry backend and registers its readiness
// check. The returned cleanup closes backend connections on shutdown.
func buildRegistryStore(ctx context.Context, cfg config.Server, healthHandler *health.Handler) (certificatestore.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return certificatestore.NewInMemoryStore(), func() {}, nil

	case config.StorePostgres:
		pool, err := database.NewPool(ctx, database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		healthHandler.RegisterCheck("postgres", func() error { return pool.Ping(context.Background()) })
		return certificatestore.NewPostgres(pool.DB()), func() { _ = pool.Close() }, nil

	case config.StoreRedis:
		client, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		healthHandler.RegisterCheck("redis", func() error { return client.Ping(context.Background()).Err() })
		return certificatestore.NewRedis(client), func() { _ = client.Close() }, nil

	default:
		store, err := certificatestore.NewFileStore(cfg.RegistryPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// seedAdmin ensures a fresh deployment has a usable login. When no bootstrap
// password is configured, one is generated and logged once at startup.
func seedAdmin(ctx context.Context, cfg config.Server, admins *adminservice.Service, log *slog.Logger) error {
	password := cfg.BootstrapAdminPassword
	if password == "" {
		generated, err := secrets.Generate()
		if err != nil {
			return err
		}
		password = generated
		log.Warn("no bootstrap admin password configured, generated one",
			"admin_id", cfg.BootstrapAdminID,
			"password", password,
		)
	}
	return admins.Bootstrap(ctx, cfg.BootstrapAdminName, cfg.BootstrapAdminID, password)
}
