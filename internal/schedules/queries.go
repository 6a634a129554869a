package schedules

import (
	"context"
	"database/sql"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for published schedules.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) InsertSchedule(ctx context.Context, name string, now time.Time, diagnostics pqtype.NullRawMessage) (models.Schedule, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO schedule (name, created, last_edit, diagnostics)
		VALUES ($1, $2, $2, $3)
		RETURNING id, name, created, last_edit`, name, now, diagnostics)
	var schedule models.Schedule
	err := row.Scan(&schedule.ID, &schedule.Name, &schedule.Created, &schedule.LastEdit)
	return schedule, err
}

func (q *Queries) InsertGame(ctx context.Context, game models.ScheduleGame) (models.ScheduleGame, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO schedule_game (schedule_id, field_id, team_one, team_two, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, schedule_id, field_id, team_one, team_two, start_at, end_at`,
		game.ScheduleID, game.FieldID,
		sqlutil.ToSqlInt32(game.TeamOne), sqlutil.ToSqlInt32(game.TeamTwo),
		game.Start, game.End)
	return scanGameRow(row)
}

func scanGameRow(row *sql.Row) (models.ScheduleGame, error) {
	var game models.ScheduleGame
	var one, two sql.NullInt32
	err := row.Scan(&game.ID, &game.ScheduleID, &game.FieldID, &one, &two, &game.Start, &game.End)
	game.TeamOne = sqlutil.FromSqlInt32Ptr(one)
	game.TeamTwo = sqlutil.FromSqlInt32Ptr(two)
	return game, err
}

func (q *Queries) GetSchedule(ctx context.Context, id int32) (models.Schedule, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, created, last_edit FROM schedule WHERE id = $1`, id)
	var schedule models.Schedule
	err := row.Scan(&schedule.ID, &schedule.Name, &schedule.Created, &schedule.LastEdit)
	return schedule, err
}

func (q *Queries) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, created, last_edit FROM schedule ORDER BY last_edit DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Schedule
	for rows.Next() {
		var schedule models.Schedule
		if err := rows.Scan(&schedule.ID, &schedule.Name, &schedule.Created, &schedule.LastEdit); err != nil {
			return nil, err
		}
		out = append(out, schedule)
	}
	return out, rows.Err()
}

func (q *Queries) RenameSchedule(ctx context.Context, id int32, name string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE schedule SET name = $2, last_edit = $3 WHERE id = $1`, id, name, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) TouchSchedule(ctx context.Context, id int32, now time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE schedule SET last_edit = $2 WHERE id = $1`, id, now)
	return err
}

func (q *Queries) DeleteSchedule(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ListGames(ctx context.Context, scheduleID int32) ([]models.ScheduleGame, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, schedule_id, field_id, team_one, team_two, start_at, end_at
		FROM schedule_game WHERE schedule_id = $1
		ORDER BY start_at, id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduleGame
	for rows.Next() {
		var game models.ScheduleGame
		var one, two sql.NullInt32
		if err := rows.Scan(&game.ID, &game.ScheduleID, &game.FieldID, &one, &two, &game.Start, &game.End); err != nil {
			return nil, err
		}
		game.TeamOne = sqlutil.FromSqlInt32Ptr(one)
		game.TeamTwo = sqlutil.FromSqlInt32Ptr(two)
		out = append(out, game)
	}
	return out, rows.Err()
}

func (q *Queries) GetGame(ctx context.Context, id int32) (models.ScheduleGame, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, schedule_id, field_id, team_one, team_two, start_at, end_at
		FROM schedule_game WHERE id = $1`, id)
	return scanGameRow(row)
}

func (q *Queries) UpdateGameWindow(ctx context.Context, id int32, start, end time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE schedule_game SET start_at = $2, end_at = $3 WHERE id = $1`, id, start, end)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateGameTeams(ctx context.Context, id int32, teamOne, teamTwo *int32) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE schedule_game SET team_one = $2, team_two = $3 WHERE id = $1`,
		id, sqlutil.ToSqlInt32(teamOne), sqlutil.ToSqlInt32(teamTwo))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteGame(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM schedule_game WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListGameWindowsOnField loads the sibling games on a field within the same
// schedule, for overlap checks on move/resize.
func (q *Queries) ListGameWindowsOnField(ctx context.Context, scheduleID, fieldID int32) ([]models.ScheduleGame, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, schedule_id, field_id, team_one, team_two, start_at, end_at
		FROM schedule_game WHERE schedule_id = $1 AND field_id = $2
		ORDER BY start_at, id`, scheduleID, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduleGame
	for rows.Next() {
		var game models.ScheduleGame
		var one, two sql.NullInt32
		if err := rows.Scan(&game.ID, &game.ScheduleID, &game.FieldID, &one, &two, &game.Start, &game.End); err != nil {
			return nil, err
		}
		game.TeamOne = sqlutil.FromSqlInt32Ptr(one)
		game.TeamTwo = sqlutil.FromSqlInt32Ptr(two)
		out = append(out, game)
	}
	return out, rows.Err()
}
