package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/config"
	httpserver "github.com/Clark-Hu/cinerank/internal/http"
	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/report"
	"github.com/Clark-Hu/cinerank/internal/repository"
	"github.com/Clark-Hu/cinerank/internal/seed"
	"github.com/Clark-Hu/cinerank/internal/store"
	"github.com/Clark-Hu/cinerank/internal/votes"
)

// backend bundles the storage-facing dependencies of the HTTP layer.
type backend struct {
	health  httpserver.HealthChecker
	votes   votes.Store
	titles  votes.Catalog
	reports report.Source
	close   func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config error")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.WithComponent("cinerank")

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("open storage backend")
	}
	defer be.close()

	if cfg.SeedCatalog {
		if _, err := seed.Load(ctx, be.titles, i18n.NewGenres(cfg.DisplayLocale), logger); err != nil {
			logger.Fatal().Err(err).Msg("seed catalog")
		}
	}

	upstream, err := catalog.NewHTTPClient(catalog.Options{
		BaseURL:      cfg.CatalogURL,
		Token:        cfg.CatalogToken,
		ImageBaseURL: cfg.CatalogImageURL,
		Locale:       cfg.DisplayLocale,
		Timeout:      time.Duration(cfg.CatalogTimeoutSecs) * time.Second,
		Genres:       i18n.NewGenres(cfg.DisplayLocale),
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog client")
	}

	tokens, err := auth.NewManager(cfg.AuthJWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("init auth")
	}

	reportOpts := []report.Option{report.WithLogger(logger)}
	if rdb := openRedis(ctx, cfg, logger); rdb != nil {
		defer rdb.Close()
		reportOpts = append(reportOpts, report.WithCache(report.NewRedisCache(rdb), time.Duration(cfg.DashboardCacheSecs)*time.Second))
	}

	server := httpserver.New(cfg, httpserver.Deps{
		Health:   be.health,
		Votes:    votes.NewService(be.votes, logger),
		Resolver: votes.NewResolver(be.titles, upstream),
		Catalog:  upstream,
		Reports:  report.NewService(be.reports, reportOpts...),
		Auth:     tokens,
		Logger:   logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		mem := votes.NewMemoryStore()
		logger.Warn().Msg("using in-memory vote store; data is lost on restart")
		return backend{health: mem, votes: mem, titles: mem, reports: mem, close: func() {}}, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return backend{}, err
	}
	repo := repository.New(st)
	return backend{health: st, votes: repo.Votes, titles: repo.Titles, reports: repo.Stats, close: st.Close}, nil
}

// openRedis returns nil when no address is configured or the server is
// unreachable; the dashboard is then computed on every request.
func openRedis(ctx context.Context, cfg config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisAddr == "" || cfg.DashboardCacheSecs == 0 {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, dashboard cache disabled")
		_ = rdb.Close()
		return nil
	}
	logger.Info().Str("addr", cfg.RedisAddr).Int("ttl_secs", cfg.DashboardCacheSecs).Msg("dashboard cache enabled")
	return rdb
}
