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

	router "github.com/kkuzmin/gabble/internal/adapters/http"
	"github.com/kkuzmin/gabble/internal/adapters/ws"
	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/auth"
	"github.com/kkuzmin/gabble/internal/config"
	"github.com/kkuzmin/gabble/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open store")
	}

	users := store.NewUserStore(db, cfg.StoreTimeout)
	rooms := store.NewRoomStore(db, cfg.StoreTimeout)

	tokens := auth.NewTokenManager(cfg.JWTSecret, "gabble")
	accounts := auth.NewService(users, auth.NewPasswordHasher(), tokens)

	reg := app.NewRegistry()
	coord := app.NewCoordinator(rooms, reg)
	disp := app.NewDispatcher(reg)

	ctl := ws.NewController(coord, reg, disp, ws.Options{
		ReadLimit:    cfg.ReadLimit,
		SendBuffer:   cfg.SendBuffer,
		MsgRateLimit: cfg.MsgRateLimit,
		MsgRateEvery: cfg.MsgRateEvery,
	})

	r := router.SetupRouter(ctx, cfg, accounts, tokens, coord, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("gabble server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
