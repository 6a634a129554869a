// Package calendar holds the pure time-slot algebra backing the editor and
// the scheduling engine: overlap detection, window validation, batched copy
// offsets, and lane expansion under per-field concurrency.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mrodz/fieldz/internal/models"
)

var (
	// ErrZeroDuration rejects windows where start == end.
	ErrZeroDuration = errors.New("time slot has zero duration")
	// ErrEndBeforeStart rejects windows where end < start.
	ErrEndBeforeStart = errors.New("time slot ends before it starts")
)

// OverlapError reports the existing booking that blocked an edit.
type OverlapError struct {
	Start time.Time
	End   time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("this time slot is booked from %s to %s",
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}

// Window is a half-open [Start, End) interval of absolute instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates and builds a window.
func NewWindow(start, end time.Time) (Window, error) {
	if end.Before(start) {
		return Window{}, ErrEndBeforeStart
	}
	if !start.Before(end) {
		return Window{}, ErrZeroDuration
	}
	return Window{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open windows intersect.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FirstConflict returns the first slot in existing that overlaps [start, end),
// skipping any slot whose id is in ignore. Slots are assumed to belong to a
// single field.
func FirstConflict(existing []models.TimeSlot, start, end time.Time, ignore ...int32) *models.TimeSlot {
	w := Window{Start: start, End: end}
next:
	for i := range existing {
		for _, id := range ignore {
			if existing[i].ID == id {
				continue next
			}
		}
		if Overlaps(w, Window{Start: existing[i].Start, End: existing[i].End}) {
			return &existing[i]
		}
	}
	return nil
}

// ShiftBy computes the copies produced by a batched copy: every source window
// translated by delta, preserving order and duration.
func ShiftBy(src []Window, delta time.Duration) []Window {
	out := make([]Window, len(src))
	for i, w := range src {
		out[i] = Window{Start: w.Start.Add(delta), End: w.End.Add(delta)}
	}
	return out
}

// CopyDelta is the translation applied by a batched copy: the distance from
// the first source slot's start to the destination start.
func CopyDelta(firstStart, dstStart time.Time) time.Duration {
	return dstStart.Sub(firstStart)
}

// Capacity resolves the lane count for a field and reservation type:
// the override when present, else the type default.
func Capacity(overrides []models.FieldConcurrency, fieldID int32, rt models.ReservationType) int16 {
	for _, o := range overrides {
		if o.FieldID == fieldID && o.ReservationTypeID == rt.ID {
			return o.Concurrency
		}
	}
	return rt.DefaultConcurrency
}

// Lane is one concurrent reservation slot carved out of a time slot.
type Lane struct {
	FieldID int32
	Window  Window
	Index   int16
}

// ExpandLanes turns each slot into capacity-many lanes and orders them by
// slot start ascending, then field id ascending, then lane index.
func ExpandLanes(slots []models.TimeSlotExtension) []Lane {
	var lanes []Lane
	for _, ext := range slots {
		for i := int16(0); i < ext.Concurrency(); i++ {
			lanes = append(lanes, Lane{
				FieldID: ext.TimeSlot.FieldID,
				Window:  Window{Start: ext.TimeSlot.Start, End: ext.TimeSlot.End},
				Index:   i,
			})
		}
	}
	sort.SliceStable(lanes, func(i, j int) bool {
		if !lanes[i].Window.Start.Equal(lanes[j].Window.Start) {
			return lanes[i].Window.Start.Before(lanes[j].Window.Start)
		}
		if lanes[i].FieldID != lanes[j].FieldID {
			return lanes[i].FieldID < lanes[j].FieldID
		}
		return lanes[i].Index < lanes[j].Index
	})
	return lanes
}
