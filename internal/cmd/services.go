package main

import (
	"database/sql"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/gateway"
	"github.com/mrodz/fieldz/internal/scheduler"
	"github.com/mrodz/fieldz/internal/store"
)

type Services struct {
	Scheduler *scheduler.Service
	Auth      *scheduler.AuthInterceptor
	Store     *store.Store
	Bridge    *gateway.Bridge
	Usage     scheduler.UsageHook
}

func setupServices(cfg *Config, database *sql.DB) *Services {
	clock := clockwork.NewRealClock()

	// Wire up dependency injection chain
	// Database layer → Store facade → Service layer
	entityStore := store.Open(database, clock)

	var usage scheduler.UsageHook = scheduler.NopUsageHook{}
	if cfg.NATSURL != "" {
		hook, err := scheduler.ConnectUsageHook(cfg.NATSURL)
		if err != nil {
			// metering is best effort end to end; the scheduler still runs
			log.Error().Err(err).Msg("usage metering disabled: NATS unreachable")
		} else {
			usage = hook
		}
	}

	keys := scheduler.NewKeyCache(cfg.JWKSEndpoint(), http.DefaultClient, clock)
	limiter := scheduler.NewSubjectLimiter(cfg.ScheduleCreationDelay)
	auth := scheduler.NewAuthInterceptor(keys, cfg.AuthServerURL, cfg.JWTAudience, usage, limiter)

	return &Services{
		Scheduler: scheduler.NewService(),
		Auth:      auth,
		Store:     entityStore,
		Bridge:    gateway.NewBridge(gateway.DefaultConnectionConfig()),
		Usage:     usage,
	}
}
