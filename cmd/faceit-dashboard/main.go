package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/matchops/faceit-dashboard/internal/adapters/driven/auth"
	"github.com/matchops/faceit-dashboard/internal/adapters/driven/faceit"
	"github.com/matchops/faceit-dashboard/internal/adapters/driven/postgres"
	redisadapter "github.com/matchops/faceit-dashboard/internal/adapters/driven/redis"
	"github.com/matchops/faceit-dashboard/internal/adapters/driving/http"
	"github.com/matchops/faceit-dashboard/internal/config"
	"github.com/matchops/faceit-dashboard/internal/core/ports/driven"
	"github.com/matchops/faceit-dashboard/internal/core/services"
)

var version = "dev"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "faceit-dashboard").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger.Info().Str("version", version).Str("environment", cfg.Environment).Msg("starting")

	ctx := context.Background()

	// ===== Session store: Redis preferred, Postgres fallback =====
	var (
		sessions    driven.SessionStore
		storePinger http.Pinger
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()

		sessions = redisadapter.NewSessionStore(redisClient)
		storePinger = pingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info().Msg("using Redis session store")
	} else {
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize schema")
		}

		store := postgres.NewSessionStore(db)
		sessions = store
		storePinger = db
		logger.Info().Msg("using PostgreSQL session store")

		// Postgres has no native TTL; sweep expired rows in the background.
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				n, err := store.Cleanup(ctx)
				if err != nil {
					logger.Warn().Err(err).Msg("session cleanup failed")
					continue
				}
				if n > 0 {
					logger.Debug().Int64("removed", n).Msg("expired sessions removed")
				}
			}
		}()
	}

	// ===== Identity provider and resource API =====
	provider, err := faceit.NewProvider(faceit.ProviderConfig{
		ClientID:     cfg.FaceitClientID,
		ClientSecret: cfg.FaceitClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		UserInfoURL:  cfg.UserInfoURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid provider configuration")
	}

	resourceAPI := faceit.NewClient(cfg.APIBaseURL, nil)

	// ===== Core services =====
	authFlow := services.NewAuthFlowService(services.AuthFlowConfig{
		Sessions: sessions,
		Provider: provider,
		Logger:   logger,
	})
	dashboard := services.NewDashboardService(resourceAPI, logger)

	// ===== HTTP server =====
	cookies := http.NewCookieManager(auth.NewAdapter(cfg.SessionSecret), cfg.IsProduction())

	serverCfg := http.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: version,
	}
	server := http.NewServer(serverCfg, authFlow, dashboard, sessions, cookies, storePinger, logger)

	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

// pingFunc adapts a function to the http.Pinger interface
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
