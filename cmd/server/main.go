// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/cardwell/mayi/internal/bot"
	"github.com/cardwell/mayi/internal/config"
	"github.com/cardwell/mayi/internal/coordinator"
	"github.com/cardwell/mayi/internal/handlers"
	"github.com/cardwell/mayi/internal/middleware"
	"github.com/cardwell/mayi/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}

	coord := coordinator.New(st, bot.Greedy{}, logger, cfg.DecisionTimeout)
	srv := handlers.NewSessionServer(logger, st, coord)

	mux := http.NewServeMux()

	mux.Handle("/session/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateSessionHandler(logger, srv),
	)))
	mux.Handle("/session/state", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.StateHandler(logger, srv),
	)))
	mux.Handle("/session/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.SessionWSHandler(logger, srv),
	)))

	addr := ":" + cfg.Port
	logger.Infof("Running on %s (store=%s)", addr, cfg.StoreBackend)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func openStore(cfg config.Config) (store.StateStore, error) {
	ctx := context.Background()
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case "redis":
		return store.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	default:
		return store.NewMemory(), nil
	}
}
