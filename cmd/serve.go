package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prequal-service/config"
	httpLayer "prequal-service/http"
	"prequal-service/metrics"
	"prequal-service/render"
	"prequal-service/repository"
	"prequal-service/service"
)

const serviceName = "Pre-Qualification App API"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	checks := map[string]httpLayer.HealthCheck{}

	repo, closeRepo, err := openRepository(ctx, cfg.Storage, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	cache, closeCache, err := openCache(ctx, cfg.Cache, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	if cfg.Documents.Dir != "" {
		if err := os.MkdirAll(cfg.Documents.Dir, 0o755); err != nil {
			return fmt.Errorf("create documents dir: %w", err)
		}
	}

	engine, err := newEngine(cfg.Certificates)
	if err != nil {
		return err
	}

	m := metrics.New("prequal")
	renderer := render.NewPDFRenderer(render.Branding{
		Title:   cfg.Documents.BrandTitle,
		Website: cfg.Documents.BrandWebsite,
	})
	certificates := service.NewCertificateService(engine, repo, cache, renderer, logger.Named("certificates"),
		service.WithRecorder(m),
		service.WithArchiveDir(cfg.Documents.Dir),
	)

	var limiter *httpLayer.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	httpLogger := logger.Named("http")
	router := httpLayer.NewRouter(httpLayer.RouterDeps{
		Quotes:       httpLayer.NewQuoteHandler(certificates, httpLogger),
		Certificates: httpLayer.NewCertificateHandler(certificates, httpLogger),
		Health:       httpLayer.NewHealthHandler(serviceName, Version, checks, httpLogger),
		Auth:         httpLayer.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Required, httpLogger),
		CORS:         httpLayer.NewCORS(cfg.CORS.AllowedOrigins),
		RateLimiter:  limiter,
		Metrics:      m,
		Logger:       httpLogger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("cache", cfg.Cache.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info("server exited")
	return nil
}

func newEngine(cfg config.CertificatesConfig) (*service.QuoteEngine, error) {
	ids, err := service.NewIDGenerator(cfg.IDFormat)
	if err != nil {
		return nil, err
	}
	return service.NewQuoteEngine(ids, nil, service.Policy{
		MinValidityDays:     cfg.MinValidityDays,
		MaxValidityDays:     cfg.MaxValidityDays,
		DefaultValidityDays: cfg.DefaultValidityDays,
		Currencies:          cfg.Currencies,
		DefaultCurrency:     cfg.DefaultCurrency,
	}), nil
}

func openRepository(ctx context.Context, cfg config.StorageConfig, checks map[string]httpLayer.HealthCheck) (repository.CertificateRepository, func(), error) {
	if cfg.Driver != "postgres" {
		return repository.NewCertificateRepositoryMemory(), func() {}, nil
	}

	pool, err := repository.NewPostgresPool(ctx, repository.PostgresConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
	})
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewCertificateRepositoryPostgres(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	checks["postgres"] = pool.Ping
	return repo, pool.Close, nil
}

func openCache(ctx context.Context, cfg config.CacheConfig, checks map[string]httpLayer.HealthCheck) (repository.CacheRepository, func(), error) {
	if cfg.Driver != "redis" {
		return repository.NewMemoryCache(cfg.TTL), func() {}, nil
	}

	cache, err := repository.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = cache.Ping
	return cache, func() { _ = cache.Close() }, nil
}
