// Package store is the entity-store facade: one handle bundling every
// repository over the active profile's schema, plus the snapshot loader the
// analyzer and payload builder consume.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/mrodz/fieldz/internal/analyzer"
	"github.com/mrodz/fieldz/internal/conflicts"
	"github.com/mrodz/fieldz/internal/fields"
	"github.com/mrodz/fieldz/internal/groups"
	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/regions"
	"github.com/mrodz/fieldz/internal/reservationtypes"
	"github.com/mrodz/fieldz/internal/schedules"
	"github.com/mrodz/fieldz/internal/targets"
	"github.com/mrodz/fieldz/internal/teams"
	"github.com/mrodz/fieldz/internal/timeslots"
)

//go:embed schema.sql
var schemaSQL string

// Store bundles the per-entity repositories over one database handle.
type Store struct {
	db *sql.DB

	Regions          *regions.Repository
	Fields           *fields.Repository
	Groups           *groups.Repository
	Teams            *teams.Repository
	ReservationTypes *reservationtypes.Repository
	Targets          *targets.Repository
	Conflicts        *conflicts.Repository
	TimeSlots        *timeslots.App
	Schedules        *schedules.App
}

// Open wires every repository onto the handle. The handle's search_path must
// already point at the active profile's schema.
func Open(db *sql.DB, clock clockwork.Clock) *Store {
	return &Store{
		db:               db,
		Regions:          regions.NewRepository(regions.New(db)),
		Fields:           fields.NewRepository(fields.New(db)),
		Groups:           groups.NewRepository(groups.New(db)),
		Teams:            teams.NewRepository(db),
		ReservationTypes: reservationtypes.NewRepository(reservationtypes.New(db)),
		Targets:          targets.NewRepository(targets.New(db)),
		Conflicts:        conflicts.NewRepository(conflicts.New(db)),
		TimeSlots:        timeslots.NewApp(db),
		Schedules:        schedules.NewApp(db, clock),
	}
}

// EnsureSchema creates the profile's schema and tables if absent.
func EnsureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("SET search_path = %q", schema)); err != nil {
		return fmt.Errorf("failed to select schema %s: %w", schema, err)
	}
	for _, statement := range splitStatements(schemaSQL) {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// DropSchema destroys a profile's data. Guarded by the dev reset flag at the
// call site.
func DropSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %q CASCADE", schema)); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}
	return nil
}

func splitStatements(raw string) []string {
	var out []string
	for _, chunk := range strings.Split(raw, ";") {
		statement := strings.TrimSpace(chunk)
		if statement == "" || strings.HasPrefix(statement, "--") {
			continue
		}
		out = append(out, statement)
	}
	return out
}

// Snapshot captures everything one scheduling run reads.
func (s *Store) Snapshot(ctx context.Context) (analyzer.Snapshot, error) {
	targetList, err := s.Targets.ListTargets(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}
	teamList, err := s.Teams.ListAllTeams(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}
	slotList, err := s.TimeSlots.ListAllSlots(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}
	typeList, err := s.ReservationTypes.ListReservationTypes(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}
	conflictList, err := s.Conflicts.ListAllConflicts(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}
	fieldRegions, err := s.Fields.ListFieldRegions(ctx)
	if err != nil {
		return analyzer.Snapshot{}, err
	}

	typeMap := make(map[int32]models.ReservationType, len(typeList))
	for _, rt := range typeList {
		typeMap[rt.ID] = rt
	}

	return analyzer.Snapshot{
		Targets:          targetList,
		Teams:            teamList,
		TimeSlots:        slotList,
		ReservationTypes: typeMap,
		CoachConflicts:   conflictList,
		RegionOfField: func(fieldID int32) int32 {
			return fieldRegions[fieldID]
		},
	}, nil
}
