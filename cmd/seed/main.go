// Command seed applies the SQL migrations and loads the starter catalog into
// an empty database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinerank/internal/i18n"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/repository"
	"github.com/Clark-Hu/cinerank/internal/seed"
	"github.com/Clark-Hu/cinerank/internal/store"
)

type seedConfig struct {
	DBURL         string `env:"DB_URL,required"`
	DisplayLocale string `env:"DISPLAY_LOCALE" envDefault:"pt-BR"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"`
}

func main() {
	var (
		migrationsDir = flag.String("migrations", "db/migrations", "directory holding *.up.sql files")
		skipMigrate   = flag.Bool("skip-migrate", false, "only load the catalog")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := env.ParseAs[seedConfig]()
	if err != nil {
		logging.Fatal().Err(err).Msg("parse environment")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.WithComponent("seed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{MaxConns: 2, StatementCacheCapacity: -1, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	if !*skipMigrate {
		if err := migrate(ctx, st, *migrationsDir, logger); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	n, err := seed.Load(ctx, repository.New(st).Titles, i18n.NewGenres(cfg.DisplayLocale), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int("inserted", n).Msg("seed finished")
}

// migrate executes every *_*.up.sql file in dir in lexical order. The
// migrations are written to be re-runnable.
func migrate(ctx context.Context, st *store.Store, dir string, logger zerolog.Logger) error {
	files, err := filepath.Glob(filepath.Join(dir, "*_*.up.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(files)

	for _, path := range files {
		payload, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := st.Pool().Exec(ctx, string(payload)); err != nil {
			return fmt.Errorf("exec %s: %w", filepath.Base(path), err)
		}
		logger.Info().Str("file", filepath.Base(path)).Msg("migration applied")
	}
	return nil
}
