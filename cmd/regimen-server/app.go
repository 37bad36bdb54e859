package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ehr/regimen/internal/config"
	"github.com/ehr/regimen/internal/domain/encounter"
	"github.com/ehr/regimen/internal/domain/episode"
	"github.com/ehr/regimen/internal/domain/identity"
	"github.com/ehr/regimen/internal/domain/observation"
	"github.com/ehr/regimen/internal/domain/recommendation"
	"github.com/ehr/regimen/internal/domain/regimen"
	"github.com/ehr/regimen/internal/domain/terminology"
	"github.com/ehr/regimen/internal/domain/user"
	"github.com/ehr/regimen/internal/platform/auth"
	"github.com/ehr/regimen/internal/platform/db"
	"github.com/ehr/regimen/internal/seed"
)

// app holds the services shared by the server and the CLI commands.
type app struct {
	cfg          *config.Config
	pool         *pgxpool.Pool
	loc          *time.Location
	logger       zerolog.Logger
	concepts     *terminology.Service
	patients     *identity.Service
	encounters   *encounter.Service
	episodes     *episode.Service
	observations *observation.Service
	catalog      *regimen.Service
	users        *user.Service
	tokens       *auth.TokenIssuer
	engine       *recommendation.Engine
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// loadConfig reads and validates the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: 5 * time.Minute,
		ApplicationName: "regimen-server",
	})
}

func newApp(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*app, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	ageAt, err := recommendation.ParseAgeReference(cfg.RecommendAgeAt)
	if err != nil {
		return nil, err
	}

	concepts, err := terminology.NewService(
		terminology.NewConceptRepo(pool),
		terminology.NewVocabularySetRepo(pool),
		cfg.ConceptCacheSize,
	)
	if err != nil {
		return nil, fmt.Errorf("create terminology service: %w", err)
	}
	patients := identity.NewService(identity.NewPatientRepo(pool))
	encounters := encounter.NewService(encounter.NewRepo(pool), patients)
	episodes := episode.NewService(episode.NewRepo(pool), concepts, encounters)
	observations := observation.NewService(observation.NewRepo(pool), concepts, encounters)
	catalog := regimen.NewService(regimen.Repos{
		Conditions:  regimen.NewConditionRepo(pool),
		Frequencies: regimen.NewFrequencyRepo(pool),
		Actions:     regimen.NewActionRepo(pool),
		Regimens:    regimen.NewRegimenRepo(pool),
		Categories:  regimen.NewCategoryRepo(pool),
	}, concepts)

	engine := recommendation.NewEngine(patients, catalog, observations,
		recommendation.WithAgeReference(ageAt),
		recommendation.WithLogger(logger.With().Str("component", "recommendation").Logger()),
		recommendation.WithSnapshot(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithReadTx(ctx, pool, fn)
		}),
	)

	return &app{
		cfg:          cfg,
		pool:         pool,
		loc:          loc,
		logger:       logger,
		concepts:     concepts,
		patients:     patients,
		encounters:   encounters,
		episodes:     episodes,
		observations: observations,
		catalog:      catalog,
		users:        user.NewService(user.NewRepo(pool)),
		tokens:       tokenIssuer(cfg),
		engine:       engine,
	}, nil
}

// tokenIssuer returns nil unless a signing key is configured; login is then
// unavailable and tokens come from the external identity provider.
func tokenIssuer(cfg *config.Config) *auth.TokenIssuer {
	if cfg.AuthSigningKey == "" {
		return nil
	}
	return &auth.TokenIssuer{
		Key:      []byte(cfg.AuthSigningKey),
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		TTL:      cfg.AuthTokenTTL,
	}
}

// seedDefault loads the embedded rule base when the database has no concepts.
func (a *app) seedDefault(ctx context.Context) (bool, error) {
	doc, err := seed.Default()
	if err != nil {
		return false, err
	}
	loader := seed.NewLoader(a.concepts, a.catalog,
		func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, a.pool, fn)
		},
		a.logger.With().Str("component", "seed").Logger(),
	)
	loaded, err := loader.Load(ctx, doc)
	if err != nil {
		// Entries cached before the rollback no longer exist.
		a.concepts.PurgeCache()
		return false, err
	}
	return loaded, nil
}

// bootstrap opens the pool and builds the app for one-shot CLI commands.
func bootstrap(ctx context.Context) (*app, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.Env, os.Stderr)
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return a, pool.Close, nil
}
