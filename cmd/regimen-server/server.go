package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ehr/regimen/internal/config"
	"github.com/ehr/regimen/internal/domain/encounter"
	"github.com/ehr/regimen/internal/domain/episode"
	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/domain/observation"
	"github.com/ehr/regimen/internal/domain/recommendation"
	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/domain/user"
	"github.com/ehr/regimen/internal/platform/auditlog"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/platform/middleware"
	"github.com/ehr/regimen/internal/platform/telemetry"
)

const requestTimeout = 30 * time.Second

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, os.Stdout)
	if cfg.ResolvedAuthMode() == "development" {
		logger.Warn().Str("env", cfg.Env).Msg("development auth is active: requests without a token get admin access")
	}

	ctx := context.Background()
	pool, err := connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	a, err := newApp(cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}

	if cfg.SeedOnStart {
		loaded, err := a.seedDefault(auth.WithIdentity(ctx, auth.SystemActor, nil))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed default metadata")
		}
		logger.Info().Bool("loaded", loaded).Msg("seed check complete")
	}

	audit, err := auditlog.Open(cfg.AuditDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open audit log")
	}
	defer audit.Close()

	metrics := telemetry.NewMetrics(poolGauges(pool)...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(authMiddleware(cfg))
	e.Use(middleware.Audit(logger, audit))
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/health", db.HealthHandler(pool, func() db.PoolStats { return db.GetPoolStats(pool) }))
	e.GET("/metrics", metrics.Handler())

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitConfig(cfg)))

	terminology.NewHandler(a.concepts).RegisterRoutes(apiV1)
	identity.NewHandler(a.patients).RegisterRoutes(apiV1)
	encounter.NewHandler(a.encounters).RegisterRoutes(apiV1)
	episode.NewHandler(a.episodes).RegisterRoutes(apiV1)
	observation.NewHandler(a.observations).RegisterRoutes(apiV1)
	regimen.NewHandler(a.catalog).RegisterRoutes(apiV1)
	user.NewHandler(a.users, a.tokens).RegisterRoutes(apiV1)
	recommendation.NewHandler(&instrumented{next: a.engine, metrics: metrics}, a.loc, logger).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.ResolvedAuthMode() == "development" {
		return auth.DevAuthMiddleware()
	}
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(jwtCfg)
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS <= 0 {
		return rl
	}
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.BurstSize = cfg.RateLimitBurst
	if rl.BurstSize <= 0 {
		rl.BurstSize = int(rl.RequestsPerSecond)
	}
	return rl
}

// instrumented counts every evaluation served over HTTP.
type instrumented struct {
	next    recommendation.Recommender
	metrics *telemetry.Metrics
}

func (r *instrumented) Recommend(ctx context.Context, patientID int64, encounterDate time.Time) ([]*regimen.Category, error) {
	cats, err := r.next.Recommend(ctx, patientID, encounterDate)
	r.metrics.ObserveRecommendation(len(cats), err)
	return cats, err
}

func poolGauges(pool *pgxpool.Pool) []telemetry.Gauge {
	stat := func(f func(db.PoolStats) int32) func() float64 {
		return func() float64 { return float64(f(db.GetPoolStats(pool))) }
	}
	return []telemetry.Gauge{
		{Name: "db_pool_acquired_connections", Help: "Connections currently in use.", Value: stat(func(s db.PoolStats) int32 { return s.AcquiredConns })},
		{Name: "db_pool_idle_connections", Help: "Idle connections in the pool.", Value: stat(func(s db.PoolStats) int32 { return s.IdleConns })},
		{Name: "db_pool_total_connections", Help: "Open connections in the pool.", Value: stat(func(s db.PoolStats) int32 { return s.TotalConns })},
	}
}
