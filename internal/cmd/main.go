package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/profiles"
)

// Exit codes for the server binary.
const (
	exitOK          = 0
	exitConfigError = 1
	exitBindError   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("configuration error")
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profileManager, err := profiles.Open(cfg.DataDir)
	if err != nil {
		log.Error().Err(err).Msg("failed to open profile registry")
		return exitConfigError
	}

	database, err := setupDatabase(ctx, profileManager)
	if err != nil {
		log.Error().Err(err).Msg("failed to set up database")
		return exitConfigError
	}
	defer database.Close()

	services := setupServices(cfg, database)
	server := setupServer(cfg, services)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Bool("tls", cfg.TLSCertFile != "").Msg("scheduler server listening")
		if cfg.TLSCertFile != "" {
			errCh <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return exitBindError
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}

	return exitOK
}
