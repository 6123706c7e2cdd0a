package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voicerelay/internal/adapters/httpapi"
	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/auth"
	"voicerelay/internal/config"
	"voicerelay/internal/core"
	"voicerelay/internal/domain"
	"voicerelay/internal/users"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// .env feeds viper's environment lookup (VOICERELAY_SECRET etc.).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("token secret is not configured")
	}

	manager := core.NewManager()
	verifier := auth.NewVerifier(cfg.Secret)
	directory := users.NewDirectory()
	for _, u := range cfg.Users {
		directory.Put(&domain.User{
			ID:       domain.UserID(u.ID),
			Username: u.Username,
			FullName: u.FullName,
		})
	}

	wsCtl := &ws.Controller{
		Manager:      manager,
		Verifier:     verifier,
		Users:        directory,
		ReadLimit:    cfg.ReadLimit,
		WriteTimeout: cfg.WriteTimeout,
	}

	r := httpapi.NewRouter(cfg, manager, verifier, directory, wsCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("voice relay started")
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
