// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jbbjarnason/fivesuitsrummy/internal/auth"
	"github.com/jbbjarnason/fivesuitsrummy/internal/cache"
	"github.com/jbbjarnason/fivesuitsrummy/internal/config"
	"github.com/jbbjarnason/fivesuitsrummy/internal/database"
	"github.com/jbbjarnason/fivesuitsrummy/internal/game"
	"github.com/jbbjarnason/fivesuitsrummy/internal/handlers"
	"github.com/jbbjarnason/fivesuitsrummy/internal/hub"
	"github.com/jbbjarnason/fivesuitsrummy/internal/mailer"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Warnf("redis unavailable, event mirroring disabled: %v", err)
		cache.Rdb = nil
	}

	sessions := auth.NewService(cfg.SessionSecret, cfg.SessionTTLDays, cfg.RefreshTTLDays)
	store := game.NewStore()
	h := hub.New(logger, store, sessions)

	if err := rehydrate(ctx, logger, h); err != nil {
		logger.Fatalf("rehydrate: %v", err)
	}

	mail := mailer.New(cfg, logger)
	server := handlers.NewServer(logger, cfg, sessions, h, mail)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Routes(),
	}

	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	h.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}

// rehydrate rebuilds every unfinished game from its persisted seed,
// seating, and event log, then registers it with the hub at the next log
// position.
func rehydrate(ctx context.Context, logger *logrus.Logger, h *hub.Hub) error {
	recs, err := database.ListActiveGames(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		seats, err := database.ListGamePlayers(ctx, rec.ID)
		if err != nil {
			return err
		}
		usernames := make(map[string]string, len(seats))
		for _, seat := range seats {
			u, err := database.GetUserByID(ctx, seat.UserID)
			if err != nil {
				return err
			}
			usernames[seat.UserID.String()] = u.Username
		}
		events, err := database.ListGameEvents(ctx, rec.ID)
		if err != nil {
			return err
		}

		g, err := game.Replay(rec, seats, usernames, events)
		if err != nil {
			logger.Errorf("could not rehydrate game %s, skipping: %v", rec.ID, err)
			continue
		}
		h.Register(g, len(events))
		logger.Infof("rehydrated game %s (%s, %d events)", rec.ID, rec.Status, len(events))
	}
	return nil
}
