// main.go
//
// Entry point for the Mastermind HTTP server.
// Boot order: .env, log level, game rules, store, auth, game service, router.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/auth"
	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/httpserver"
	"github.com/robalobadob/mastermind/internal/service"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	rules, err := config.Load(os.Getenv("GAME_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game rules")
	}

	st, err := openStore(getEnv("STORE", "sqlite"), getEnv("DB_PATH", "./data/mastermind.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	authOpts, err := authOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth configuration")
	}
	if authOpts.Secret == "" {
		log.Warn().Msg("JWT_SECRET is unset; using the development secret")
	}
	a := auth.New(st, authOpts)

	games := service.NewGames(st, rules.GameConfig(), nil).WithDailySalt(os.Getenv("DAILY_SALT"))
	srv := httpserver.New(games, a, st, httpserver.Options{ClientOrigin: os.Getenv("CLIENT_ORIGIN")})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := getEnv("PORT", "5175")
	log.Info().
		Str("port", port).
		Int("holes", rules.Holes).
		Int("maxMoves", rules.MaxMoves).
		Strs("palette", rules.Palette).
		Msg("starting mastermind server")
	if err := srv.Start(ctx, ":"+port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// authOptions reads token and cookie settings from the environment.
// Production (NODE_ENV=production) requires JWT_SECRET.
func authOptions() (auth.Options, error) {
	production := os.Getenv("NODE_ENV") == "production"
	secret := os.Getenv("JWT_SECRET")
	if secret == "" && production {
		return auth.Options{}, errors.New("JWT_SECRET must be set when NODE_ENV=production")
	}
	return auth.Options{
		Secret:     secret,
		TTL:        time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName: getEnv("COOKIE_NAME", "mastermind_token"),
		Secure:     production,
	}, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses k as a positive int, falling back to def.
func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
