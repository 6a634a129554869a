// Package schedules owns published schedules: atomic creation from a
// completed scheduling stream and the swap/move/delete edits allowed
// afterwards.
package schedules

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sqlc-dev/pqtype"

	"github.com/mrodz/fieldz/internal/calendar"
	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
	"github.com/mrodz/fieldz/internal/validate"
	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

// ErrNotFound is returned for operations on a missing schedule or game.
var ErrNotFound = errors.New("schedule not found")

// Diagnostics records what the engine could not place, stored alongside the
// schedule for the UI to surface.
type Diagnostics struct {
	UnplacedPairs map[uint32]int `json:"unplaced_pairs,omitempty"`
}

// App drives schedule persistence over transactions.
type App struct {
	db    *sql.DB
	clock clockwork.Clock
}

func NewApp(db *sql.DB, clock clockwork.Clock) *App {
	return &App{db: db, clock: clock}
}

func newQueriesTx(tx sqlutil.DBTX) *Queries {
	return New(tx)
}

var scheduleAdjectives = [...]string{
	"Funky", "Rambunctious", "Awesome", "Splendid", "Tubular", "Wonderful",
	"Radical", "Great", "Stupendous", "Remarkable", "Fashionable", "Elegant",
}

// GenerateScheduleName picks a friendly default name for a new schedule.
func GenerateScheduleName() string {
	adjective := scheduleAdjectives[rand.Intn(len(scheduleAdjectives))]
	return fmt.Sprintf("New %s Schedule", adjective)
}

// Save persists the collected stream outputs as one schedule, all games or
// none.
func (a *App) Save(ctx context.Context, outputs []*schedulerv1.ScheduledOutput, diagnostics Diagnostics) (*models.Schedule, error) {
	var raw pqtype.NullRawMessage
	if len(diagnostics.UnplacedPairs) > 0 {
		encoded, err := json.Marshal(diagnostics)
		if err != nil {
			return nil, fmt.Errorf("failed to encode diagnostics: %w", err)
		}
		raw = pqtype.NullRawMessage{RawMessage: encoded, Valid: true}
	}

	now := a.clock.Now().UTC()

	var schedule models.Schedule
	err := sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		var err error
		schedule, err = q.InsertSchedule(ctx, GenerateScheduleName(), now, raw)
		if err != nil {
			return fmt.Errorf("failed to insert schedule: %w", err)
		}

		for _, output := range outputs {
			for _, reservation := range output.TimeSlots {
				if reservation.Booking == nil || reservation.Booking.HomeTeam == nil {
					continue
				}
				game := models.ScheduleGame{
					ScheduleID: schedule.ID,
					FieldID:    int32(reservation.Field.UniqueID),
					Start:      time.UnixMilli(reservation.Start).UTC(),
					End:        time.UnixMilli(reservation.End).UTC(),
				}
				home := int32(reservation.Booking.HomeTeam.UniqueID)
				game.TeamOne = &home
				if away := reservation.Booking.AwayTeam; away != nil && away.UniqueID != reservation.Booking.HomeTeam.UniqueID {
					awayID := int32(away.UniqueID)
					game.TeamTwo = &awayID
				}
				if _, err := q.InsertGame(ctx, game); err != nil {
					return fmt.Errorf("failed to insert game: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (a *App) GetSchedule(ctx context.Context, id int32) (*models.Schedule, error) {
	schedule, err := New(a.db).GetSchedule(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (a *App) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	list, err := New(a.db).ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return list, nil
}

// Rename validates the new name and bumps last_edit.
func (a *App) Rename(ctx context.Context, id int32, name string) error {
	canonical, err := validate.Name(name)
	if err != nil {
		return err
	}
	n, err := New(a.db).RenameSchedule(ctx, id, canonical, a.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to rename schedule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *App) DeleteSchedule(ctx context.Context, id int32) error {
	n, err := New(a.db).DeleteSchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *App) ListGames(ctx context.Context, scheduleID int32) ([]models.ScheduleGame, error) {
	games, err := New(a.db).ListGames(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// MoveGame moves or resizes a published reservation, holding the same
// non-overlap invariant as the editor.
func (a *App) MoveGame(ctx context.Context, gameID int32, newStart, newEnd time.Time) error {
	window, err := calendar.NewWindow(newStart, newEnd)
	if err != nil {
		return err
	}

	return sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		game, err := q.GetGame(ctx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load game: %w", err)
		}

		siblings, err := q.ListGameWindowsOnField(ctx, game.ScheduleID, game.FieldID)
		if err != nil {
			return fmt.Errorf("failed to load sibling games: %w", err)
		}
		for _, sibling := range siblings {
			if sibling.ID == game.ID {
				continue
			}
			if calendar.Overlaps(
				calendar.Window{Start: window.Start, End: window.End},
				calendar.Window{Start: sibling.Start, End: sibling.End},
			) {
				return &calendar.OverlapError{Start: sibling.Start, End: sibling.End}
			}
		}

		if _, err := q.UpdateGameWindow(ctx, gameID, window.Start, window.End); err != nil {
			return fmt.Errorf("failed to move game: %w", err)
		}
		return q.TouchSchedule(ctx, game.ScheduleID, a.clock.Now().UTC())
	})
}

// SwapGameTeams exchanges home and away.
func (a *App) SwapGameTeams(ctx context.Context, gameID int32) error {
	return sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		game, err := q.GetGame(ctx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load game: %w", err)
		}

		if _, err := q.UpdateGameTeams(ctx, gameID, game.TeamTwo, game.TeamOne); err != nil {
			return fmt.Errorf("failed to swap teams: %w", err)
		}
		return q.TouchSchedule(ctx, game.ScheduleID, a.clock.Now().UTC())
	})
}

// DeleteGame removes a single reservation and bumps the schedule.
func (a *App) DeleteGame(ctx context.Context, gameID int32) error {
	return sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		game, err := q.GetGame(ctx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load game: %w", err)
		}
		if _, err := q.DeleteGame(ctx, gameID); err != nil {
			return fmt.Errorf("failed to delete game: %w", err)
		}
		return q.TouchSchedule(ctx, game.ScheduleID, a.clock.Now().UTC())
	})
}
