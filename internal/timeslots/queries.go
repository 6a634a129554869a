package timeslots

import (
	"context"
	"database/sql"
	"time"

	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

// Queries is the database layer for time slots.
type Queries struct {
	db sqlutil.DBTX
}

func New(db sqlutil.DBTX) *Queries {
	return &Queries{db: db}
}

const extensionSelect = `
	SELECT
		ts.id, ts.field_id, ts.reservation_type_id, ts.start_at, ts.end_at,
		rt.id, rt.name, rt.color, rt.description, rt.default_concurrency, rt.is_practice,
		fc.concurrency
	FROM time_slot ts
	JOIN reservation_type rt ON rt.id = ts.reservation_type_id
	LEFT JOIN field_concurrency fc
		ON fc.field_id = ts.field_id AND fc.reservation_type_id = rt.id`

func scanExtension(rows *sql.Rows) (models.TimeSlotExtension, error) {
	var ext models.TimeSlotExtension
	var custom sql.NullInt16
	err := rows.Scan(
		&ext.TimeSlot.ID, &ext.TimeSlot.FieldID, &ext.TimeSlot.ReservationTypeID,
		&ext.TimeSlot.Start, &ext.TimeSlot.End,
		&ext.ReservationType.ID, &ext.ReservationType.Name, &ext.ReservationType.Color,
		&ext.ReservationType.Description, &ext.ReservationType.DefaultConcurrency,
		&ext.ReservationType.IsPractice,
		&custom,
	)
	ext.CustomConcurrency = sqlutil.FromSqlInt16Ptr(custom)
	return ext, err
}

func (q *Queries) listExtensions(ctx context.Context, where string, args ...any) ([]models.TimeSlotExtension, error) {
	rows, err := q.db.QueryContext(ctx, extensionSelect+" "+where+" ORDER BY ts.start_at, ts.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TimeSlotExtension
	for rows.Next() {
		ext, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}

func (q *Queries) ListSlotsOfField(ctx context.Context, fieldID int32) ([]models.TimeSlotExtension, error) {
	return q.listExtensions(ctx, "WHERE ts.field_id = $1", fieldID)
}

func (q *Queries) ListSlotsBetween(ctx context.Context, start, end time.Time) ([]models.TimeSlotExtension, error) {
	return q.listExtensions(ctx, "WHERE ts.start_at >= $1 AND ts.start_at <= $2", start, end)
}

func (q *Queries) ListAllSlots(ctx context.Context) ([]models.TimeSlotExtension, error) {
	return q.listExtensions(ctx, "")
}

func (q *Queries) GetSlot(ctx context.Context, id int32) (models.TimeSlot, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, field_id, reservation_type_id, start_at, end_at
		FROM time_slot WHERE id = $1`, id)
	var slot models.TimeSlot
	err := row.Scan(&slot.ID, &slot.FieldID, &slot.ReservationTypeID, &slot.Start, &slot.End)
	return slot, err
}

// ListFieldWindows loads the raw windows on a field for conflict checks.
func (q *Queries) ListFieldWindows(ctx context.Context, fieldID int32) ([]models.TimeSlot, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, field_id, reservation_type_id, start_at, end_at
		FROM time_slot WHERE field_id = $1 ORDER BY start_at, id`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TimeSlot
	for rows.Next() {
		var slot models.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.FieldID, &slot.ReservationTypeID, &slot.Start, &slot.End); err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (q *Queries) InsertSlot(ctx context.Context, fieldID, reservationTypeID int32, start, end time.Time) (models.TimeSlot, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO time_slot (field_id, reservation_type_id, start_at, end_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, field_id, reservation_type_id, start_at, end_at`,
		fieldID, reservationTypeID, start, end)
	var slot models.TimeSlot
	err := row.Scan(&slot.ID, &slot.FieldID, &slot.ReservationTypeID, &slot.Start, &slot.End)
	return slot, err
}

func (q *Queries) UpdateSlotWindow(ctx context.Context, id int32, start, end time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE time_slot SET start_at = $2, end_at = $3 WHERE id = $1`, id, start, end)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteSlot(ctx context.Context, id int32) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM time_slot WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListSlotsInRange loads the slots of a field whose start falls inside the
// window spanned by the two anchor slots, ordered by start. Only presence in
// the range matters, not id contiguity.
func (q *Queries) ListSlotsInRange(ctx context.Context, fieldID int32, first, last time.Time) ([]models.TimeSlotExtension, error) {
	return q.listExtensions(ctx,
		"WHERE ts.field_id = $1 AND ts.start_at >= $2 AND ts.start_at <= $3", fieldID, first, last)
}

func (q *Queries) DeleteSlotsInRange(ctx context.Context, fieldID int32, first, last time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM time_slot WHERE field_id = $1 AND start_at >= $2 AND start_at <= $3`,
		fieldID, first, last)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) ReservationTypeExists(ctx context.Context, id int32) (bool, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservation_type WHERE id = $1)`, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
