// Package main is the entrypoint for the zonemap API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/zonemap/zonemap/internal/auth"
	"github.com/zonemap/zonemap/internal/cache"
	"github.com/zonemap/zonemap/internal/config"
	"github.com/zonemap/zonemap/internal/handler"
	"github.com/zonemap/zonemap/internal/metrics"
	"github.com/zonemap/zonemap/internal/middleware"
	"github.com/zonemap/zonemap/internal/reconcile"
	"github.com/zonemap/zonemap/internal/repository"
	"github.com/zonemap/zonemap/internal/server"
	"github.com/zonemap/zonemap/internal/service"
	"github.com/zonemap/zonemap/internal/views"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	// Auth: session tokens plus the ordered dual-realm gateway.
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	customerRealm := service.NewCustomerResolver(repo)
	adminRealm := service.NewAdminResolver(repo)
	gateway := service.NewAuthGateway(
		[]service.CredentialResolver{customerRealm, adminRealm},
		issuer, cfg.AuthRealmTimeout, logger, recorder,
	)
	adminGateway := service.NewAuthGateway(
		[]service.CredentialResolver{adminRealm},
		issuer, cfg.AuthRealmTimeout, logger, recorder,
	)
	registry := service.NewRegistrationService(repo, logger)

	// Domain services.
	mapService := service.NewMapService(repo, cacheClient, cfg.BaseURL, recorder)
	zoneService := service.NewZoneService(repo, recorder)
	quotaService := service.NewQuotaService(repo)
	reconciler := reconcile.New(zoneService, logger)

	// Share views: async publish, periodic flush to PostgreSQL.
	viewPublisher := views.NewPublisher(cacheClient, logger, recorder)
	viewWorker := views.NewWorker(cacheClient, repo, logger, recorder)
	viewWorker.SetFlushInterval(cfg.ViewFlushInterval)

	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	go func() {
		if err := viewWorker.Run(workerCtx); err != nil && err != context.Canceled {
			logger.Error("view worker stopped", "error", err)
		}
	}()

	// Handlers.
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(gateway, adminGateway, registry, logger)
	customerHandler := handler.NewCustomerHandler(quotaService, mapService, logger)
	mapHandler := handler.NewMapHandler(mapService, logger)
	zoneHandler := handler.NewZoneHandler(zoneService, mapService, reconciler, logger)
	shareHandler := handler.NewShareHandler(mapService, zoneService, viewPublisher, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)

	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		auth:     authHandler,
		customer: customerHandler,
		maps:     mapHandler,
		zones:    zoneHandler,
		share:    shareHandler,
		admin:    adminHandler,
		issuer:   issuer,
		cache:    cacheClient,
		cfg:      cfg,
		logger:   logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("view_worker", viewWorker.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	auth     *handler.AuthHandler
	customer *handler.CustomerHandler
	maps     *handler.MapHandler
	zones    *handler.ZoneHandler
	share    *handler.ShareHandler
	admin    *handler.AdminHandler
	issuer   *auth.TokenIssuer
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	if origins := d.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       d.logger,
		Cache:        d.cache,
		LoginEnabled: d.cfg.RateLimitLoginEnabled,
		LoginRPS:     d.cfg.RateLimitLoginRPS,
		LoginBurst:   d.cfg.RateLimitLoginBurst,
		ShareEnabled: d.cfg.RateLimitShareEnabled,
		ShareRPS:     d.cfg.RateLimitShareRPS,
		ShareBurst:   d.cfg.RateLimitShareBurst,
	}

	// Public auth endpoints, rate limited per IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitLogin(rateLimitCfg))
		r.Post("/api/register", d.auth.Register)
		r.Post("/api/login", d.auth.Login)
		r.Post("/api/admin/login", d.auth.AdminLogin)
	})

	// Authenticated API.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.issuer, d.logger))

		r.Route("/api/customer/{id}", func(r chi.Router) {
			r.Get("/package", d.customer.GetPackage)
			r.Get("/maps", d.customer.ListMaps)
		})

		r.Route("/api/map", func(r chi.Router) {
			r.Post("/", d.maps.Create)
			r.Get("/{id}", d.maps.Get)
			r.Put("/{id}", d.maps.Update)
			r.Delete("/{id}", d.maps.Delete)
			r.Get("/{id}/zones", d.zones.List)
			r.Delete("/{id}/zones/{zoneID}", d.zones.Delete)
		})

		// Legacy path kept for deployed clients; flush target for the
		// pending zone buffer.
		r.Post("/api/db/tables/zones", d.zones.Create)

		r.Route("/api/admin/packages", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.logger))
			r.Get("/", d.admin.ListPackages)
			r.Post("/", d.admin.CreatePackage)
			r.Get("/{id}", d.admin.GetPackage)
			r.Put("/{id}", d.admin.UpdatePackage)
			r.Delete("/{id}", d.admin.DeletePackage)
		})
	})

	// Public share endpoint with IP-based rate limiting.
	r.With(middleware.RateLimitShare(rateLimitCfg)).Get("/m/{mapCode}", d.share.Resolve)

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
