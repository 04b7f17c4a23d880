package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/WatchParty/internal/adapters/http"
	sig "github.com/dkeye/WatchParty/internal/adapters/signal"
	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/cache"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer func() {
		if err := store.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	checks := []router.HealthCheck{{
		Name:  "db",
		Check: func(ctx context.Context) error { return store.Ping(ctx, db) },
	}}

	var rooms core.RoomRepository = store.NewRoomStore(db)
	if cfg.RedisAddr != "" {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, "watchparty:", cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, running without room cache")
		} else {
			defer func() {
				log.Info().Interface("stats", rc.Stats()).Msg("room cache stats")
				_ = rc.Close()
			}()
			rooms = store.NewCachedRooms(rooms, rc)
			checks = append(checks, router.HealthCheck{Name: "cache", Check: rc.Ping})
		}
	}

	o := orch.New(rooms, store.NewUserStore(db), store.NewMessageStore(db))
	o.HistoryLimit = cfg.HistoryLimit
	o.Policy = app.PolicyFor(cfg.Backpressure)
	ctl := sig.NewSignalWSController(o, cfg)

	r := router.SetupRouter(ctx, cfg, ctl, checks...)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("WatchParty server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second+cfg.CleanupTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := ctl.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("connections still cleaning up")
	}
	log.Info().Msg("Server exited gracefully")
}
