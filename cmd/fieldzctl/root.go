package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mrodz/fieldz/internal/dbconfig"
	"github.com/mrodz/fieldz/internal/orchestrator"
	"github.com/mrodz/fieldz/internal/profiles"
	"github.com/mrodz/fieldz/internal/store"
	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "fieldzctl",
		Short:        "Operate the fieldz scheduling server",
		SilenceUsage: true,
	}

	root.AddCommand(
		newReportCommand(),
		newScheduleCommand(),
		newProfileCommand(),
		newHealthCommand(),
		newResetCommand(),
	)
	return root
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func schedulerURL() string {
	return getEnv("SCHEDULER_SERVER_URL", "http://localhost:8080")
}

func openProfiles() (*profiles.Manager, error) {
	return profiles.Open(getEnv("FIELDZ_DATA_DIR", "."))
}

// openStore connects to the active profile's dataset.
func openStore(ctx context.Context) (*store.Store, *sql.DB, error) {
	manager, err := openProfiles()
	if err != nil {
		return nil, nil, err
	}
	active := manager.Active()

	dsn := fmt.Sprintf("%s&search_path=%s", dbconfig.NewConfigFromEnv().DSN(), active.Schema)
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return store.Open(database, clockwork.NewRealClock()), database, nil
}

// newOrchestrator wires the client side of a run.
func newOrchestrator(entityStore *store.Store) *orchestrator.Orchestrator {
	baseURL := schedulerURL()
	client := schedulerv1connect.NewSchedulerServiceClient(
		orchestrator.NewHTTPClient(baseURL), baseURL)

	cooldown := time.Duration(envInt("SCHEDULE_CREATION_DELAY", 30000)) * time.Millisecond

	return orchestrator.New(orchestrator.Config{
		Snapshots: entityStore,
		Saver:     entityStore.Schedules,
		Opener:    orchestrator.NewConnectOpener(client),
		Tokens:    orchestrator.StaticTokenSource(os.Getenv("FIELDZ_TOKEN")),
		Clock:     clockwork.NewRealClock(),
		Cooldown:  cooldown,
	})
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
