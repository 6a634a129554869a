// Package timeslots applies the calendar algebra to the store: every edit
// preserves the per-field non-overlap invariant or fails with Overlap.
package timeslots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mrodz/fieldz/internal/calendar"
	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/sqlutil"
)

var (
	// ErrNotFound is returned for edits on a missing slot.
	ErrNotFound = errors.New("time slot not found")
	// ErrFieldMismatch rejects batch ranges anchored on different fields.
	ErrFieldMismatch = errors.New("range anchors belong to different fields")
	// ErrOutOfOrder rejects batch ranges whose first anchor starts after
	// the last.
	ErrOutOfOrder = errors.New("range anchors are out of order")
)

// ReservationTypeError names a reservation type that does not exist.
type ReservationTypeError struct {
	ID int32
}

func (e *ReservationTypeError) Error() string {
	return fmt.Sprintf("the supplied reservation type id (%d) does not exist", e.ID)
}

// App drives time-slot edits over transactions.
type App struct {
	db *sql.DB
}

func NewApp(db *sql.DB) *App {
	return &App{db: db}
}

func newQueriesTx(tx sqlutil.DBTX) *Queries {
	return New(tx)
}

// CreateInput describes a new slot.
type CreateInput struct {
	FieldID           int32     `json:"field_id"`
	ReservationTypeID int32     `json:"reservation_type_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
}

// Create validates the window, rejects overlaps on the field, and inserts.
func (a *App) Create(ctx context.Context, input CreateInput) (*models.TimeSlot, error) {
	window, err := calendar.NewWindow(input.Start, input.End)
	if err != nil {
		return nil, err
	}

	var created models.TimeSlot
	err = sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		exists, err := q.ReservationTypeExists(ctx, input.ReservationTypeID)
		if err != nil {
			return fmt.Errorf("failed to check reservation type: %w", err)
		}
		if !exists {
			return &ReservationTypeError{ID: input.ReservationTypeID}
		}

		existing, err := q.ListFieldWindows(ctx, input.FieldID)
		if err != nil {
			return fmt.Errorf("failed to load field windows: %w", err)
		}
		if conflict := calendar.FirstConflict(existing, window.Start, window.End); conflict != nil {
			return &calendar.OverlapError{Start: conflict.Start, End: conflict.End}
		}

		created, err = q.InsertSlot(ctx, input.FieldID, input.ReservationTypeID, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to insert time slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// MoveInput moves or resizes a slot in place.
type MoveInput struct {
	ID       int32     `json:"id"`
	NewStart time.Time `json:"new_start"`
	NewEnd   time.Time `json:"new_end"`
}

// Move rechecks overlap against every other slot on the field and updates
// atomically.
func (a *App) Move(ctx context.Context, input MoveInput) error {
	window, err := calendar.NewWindow(input.NewStart, input.NewEnd)
	if err != nil {
		return err
	}

	return sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		slot, err := q.GetSlot(ctx, input.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load time slot: %w", err)
		}

		existing, err := q.ListFieldWindows(ctx, slot.FieldID)
		if err != nil {
			return fmt.Errorf("failed to load field windows: %w", err)
		}
		if conflict := calendar.FirstConflict(existing, window.Start, window.End, slot.ID); conflict != nil {
			return &calendar.OverlapError{Start: conflict.Start, End: conflict.End}
		}

		if _, err := q.UpdateSlotWindow(ctx, slot.ID, window.Start, window.End); err != nil {
			return fmt.Errorf("failed to move time slot: %w", err)
		}
		return nil
	})
}

// Delete removes a single slot.
func (a *App) Delete(ctx context.Context, id int32) error {
	n, err := New(a.db).DeleteSlot(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete time slot: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CopyInput shifts every slot between two anchors to a new start.
type CopyInput struct {
	SrcFirstID int32     `json:"src_first_id"`
	SrcLastID  int32     `json:"src_last_id"`
	DstStart   time.Time `json:"dst_start"`
}

// BatchCopy inserts shifted copies of the anchored range, preserving each
// slot's reservation type. All copies land or none do.
func (a *App) BatchCopy(ctx context.Context, input CopyInput) ([]models.TimeSlot, error) {
	var copies []models.TimeSlot
	err := sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		first, last, err := loadAnchors(ctx, q, input.SrcFirstID, input.SrcLastID)
		if err != nil {
			return err
		}

		src, err := q.ListSlotsInRange(ctx, first.FieldID, first.Start, last.Start)
		if err != nil {
			return fmt.Errorf("failed to load source range: %w", err)
		}
		if len(src) == 0 {
			return nil
		}

		delta := calendar.CopyDelta(first.Start, input.DstStart)

		existing, err := q.ListFieldWindows(ctx, first.FieldID)
		if err != nil {
			return fmt.Errorf("failed to load field windows: %w", err)
		}

		// check the whole batch before inserting anything: failing inside
		// the tx also rolls back any partial work
		for _, ext := range src {
			start := ext.TimeSlot.Start.Add(delta)
			end := ext.TimeSlot.End.Add(delta)
			if conflict := calendar.FirstConflict(existing, start, end); conflict != nil {
				return &calendar.OverlapError{Start: conflict.Start, End: conflict.End}
			}
			// copies must not collide with each other either
			existing = append(existing, models.TimeSlot{ID: -1, FieldID: first.FieldID, Start: start, End: end})
		}

		for _, ext := range src {
			created, err := q.InsertSlot(ctx,
				first.FieldID, ext.TimeSlot.ReservationTypeID,
				ext.TimeSlot.Start.Add(delta), ext.TimeSlot.End.Add(delta))
			if err != nil {
				return fmt.Errorf("failed to insert copied slot: %w", err)
			}
			copies = append(copies, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copies, nil
}

// BatchDelete removes every slot between the two anchors inclusive.
func (a *App) BatchDelete(ctx context.Context, firstID, lastID int32) error {
	return sqlutil.Run(ctx, a.db, newQueriesTx, func(q *Queries) error {
		first, last, err := loadAnchors(ctx, q, firstID, lastID)
		if err != nil {
			return err
		}
		if _, err := q.DeleteSlotsInRange(ctx, first.FieldID, first.Start, last.Start); err != nil {
			return fmt.Errorf("failed to delete range: %w", err)
		}
		return nil
	})
}

func loadAnchors(ctx context.Context, q *Queries, firstID, lastID int32) (first, last models.TimeSlot, err error) {
	first, err = q.GetSlot(ctx, firstID)
	if errors.Is(err, sql.ErrNoRows) {
		return first, last, ErrNotFound
	}
	if err != nil {
		return first, last, fmt.Errorf("failed to load range anchor: %w", err)
	}

	last, err = q.GetSlot(ctx, lastID)
	if errors.Is(err, sql.ErrNoRows) {
		return first, last, ErrNotFound
	}
	if err != nil {
		return first, last, fmt.Errorf("failed to load range anchor: %w", err)
	}

	if first.FieldID != last.FieldID {
		return first, last, ErrFieldMismatch
	}
	if first.Start.After(last.Start) {
		return first, last, ErrOutOfOrder
	}
	return first, last, nil
}

// ListSlotsOfField exposes a field's whole calendar for the editor.
func (a *App) ListSlotsOfField(ctx context.Context, fieldID int32) ([]models.TimeSlotExtension, error) {
	slots, err := New(a.db).ListSlotsOfField(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}

// ListSlotsBetween lists every slot starting inside the window.
func (a *App) ListSlotsBetween(ctx context.Context, start, end time.Time) ([]models.TimeSlotExtension, error) {
	slots, err := New(a.db).ListSlotsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots between: %w", err)
	}
	return slots, nil
}

// ListAllSlots loads the full calendar for the analyzer snapshot.
func (a *App) ListAllSlots(ctx context.Context) ([]models.TimeSlotExtension, error) {
	slots, err := New(a.db).ListAllSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all time slots: %w", err)
	}
	return slots, nil
}
