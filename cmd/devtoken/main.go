// Command devtoken prints a signed bearer token for local testing.
//
//	AUTH_JWT_SECRET=dev go run ./cmd/devtoken -user 3f2a... -email me@example.com
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Clark-Hu/cinerank/internal/auth"
	"github.com/Clark-Hu/cinerank/internal/domain"
	"github.com/Clark-Hu/cinerank/internal/logging"
)

type tokenConfig struct {
	Secret string `env:"AUTH_JWT_SECRET,required"`
}

func main() {
	var (
		user  = flag.String("user", "", "voter id (random UUID when empty)")
		email = flag.String("email", "", "voter email")
		ttl   = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := env.ParseAs[tokenConfig]()
	if err != nil {
		logging.Fatal().Err(err).Msg("parse environment")
	}

	tokens, err := auth.NewManager(cfg.Secret)
	if err != nil {
		logging.Fatal().Err(err).Msg("init auth")
	}

	voter := domain.Voter{ID: *user, Email: *email}
	if voter.ID == "" {
		voter.ID = uuid.NewString()
	}
	token, err := tokens.Issue(voter, *ttl)
	if err != nil {
		logging.Fatal().Err(err).Msg("issue token")
	}
	fmt.Println(token)
}
