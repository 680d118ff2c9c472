package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/api"
	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/httpclient"
	"github.com/suspect-registry-api/internal/metrics"
	"github.com/suspect-registry-api/internal/postgrest"
	"github.com/suspect-registry-api/internal/privacy"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/scoring"
	"github.com/suspect-registry-api/internal/service"
	"github.com/suspect-registry-api/internal/session"
	"github.com/suspect-registry-api/internal/steam"
	"github.com/suspect-registry-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Str("backend", cfg.Store.Backend).Msg("Starting suspect registry API server...")

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Initialize repositories
	repos, healthCheck, closeStore := openStore(cfg, m, log)
	defer closeStore()

	// Identity provider
	steamHTTP := httpclient.New(httpclient.Options{
		Timeout:  cfg.Steam.Timeout,
		RetryMax: cfg.Steam.RetryMax,
	}, log)
	client := steam.NewClient(cfg.Steam.BaseURL, cfg.Steam.APIKey, steamHTTP, log)

	var cache steam.Cache
	if cfg.Steam.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Steam.Timeout)
		redisCache, err := steam.NewRedisCache(ctx, cfg.Steam.RedisURL, cfg.Steam.CacheTTL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to identity cache")
		}
		cache = redisCache
		log.Info().Msg("Identity cache backed by redis")
	} else {
		cache = steam.NewMemoryCache(cfg.Steam.CacheSize, cfg.Steam.CacheTTL)
	}
	gateway := steam.NewCachedGateway(client, cache, m, log)
	resolver := steam.NewResolver(gateway, steamHTTP, cfg.Steam.VerifyProfileURL, log)

	policy, err := scoring.NewPolicy(cfg.Enrichment.ScoringPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scoring policy")
	}

	// Initialize services
	services := service.NewServices(service.Dependencies{
		Repos:    repos,
		Gateway:  gateway,
		Resolver: resolver,
		Policy:   policy,
		Hasher:   privacy.NewHasher(cfg.Privacy.IPSalt),
		Observer: m,
	}, cfg, log)

	// Initialize router
	router := api.NewRouter(services, api.Deps{
		Sessions:    session.NewStore(cfg.Session, log),
		Metrics:     m,
		Gatherer:    reg,
		HealthCheck: healthCheck,
	}, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// openStore builds the repositories for the configured backend, along with
// a health probe and a close function
func openStore(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*repository.Repositories, func(context.Context) error, func()) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}

		if cfg.Store.AutoMigrate {
			if err := db.RunMigrations(cfg.Store.MigrationsPath, cfg.Store.MigrationVersion); err != nil {
				log.Fatal().Err(err).Msg("Failed to run database migrations")
			}
		}

		if err := m.RegisterDB(db.DB, cfg.Database.Name); err != nil {
			log.Warn().Err(err).Msg("Failed to register database metrics")
		}

		return repository.New(db), db.HealthCheck, func() { db.Close() }

	default:
		storeHTTP := httpclient.New(httpclient.Options{
			Timeout:  cfg.PostgREST.Timeout,
			RetryMax: cfg.PostgREST.RetryMax,
		}, log)
		client := postgrest.NewClient(cfg.PostgREST.URL, cfg.PostgREST.APIKey, storeHTTP, log)
		return postgrest.NewRepositories(client, log), nil, func() {}
	}
}
