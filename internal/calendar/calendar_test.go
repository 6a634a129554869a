package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/mrodz/fieldz/internal/models"
)

func at(h int) time.Time {
	return time.Date(2026, 4, 25, h, 0, 0, 0, time.UTC)
}

func TestNewWindow(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"valid", at(9), at(11), nil},
		{"zero duration", at(9), at(9), ErrZeroDuration},
		{"end before start", at(11), at(9), ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindow(tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewWindow() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint", Window{at(9), at(10)}, Window{at(11), at(12)}, false},
		{"touching ends", Window{at(9), at(10)}, Window{at(10), at(11)}, false},
		{"partial", Window{at(9), at(11)}, Window{at(10), at(12)}, true},
		{"contained", Window{at(9), at(13)}, Window{at(10), at(11)}, true},
		{"identical", Window{at(9), at(10)}, Window{at(9), at(10)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// overlap is symmetric
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstConflict(t *testing.T) {
	existing := []models.TimeSlot{
		{ID: 1, FieldID: 1, Start: at(9), End: at(10)},
		{ID: 2, FieldID: 1, Start: at(12), End: at(14)},
	}

	if c := FirstConflict(existing, at(10), at(12)); c != nil {
		t.Errorf("expected no conflict for gap window, got slot %d", c.ID)
	}
	if c := FirstConflict(existing, at(13), at(15)); c == nil || c.ID != 2 {
		t.Errorf("expected conflict with slot 2, got %v", c)
	}
	// moving a slot over itself is fine when its own id is ignored
	if c := FirstConflict(existing, at(9), at(11), 1); c != nil {
		t.Errorf("expected self-overlap to be ignored, got slot %d", c.ID)
	}
}

func TestShiftByRoundTrip(t *testing.T) {
	src := []Window{{at(9), at(10)}, {at(11), at(13)}}
	delta := CopyDelta(src[0].Start, src[0].Start.Add(7*24*time.Hour))

	shifted := ShiftBy(src, delta)
	back := ShiftBy(shifted, -delta)

	for i := range src {
		if !back[i].Start.Equal(src[i].Start) || !back[i].End.Equal(src[i].End) {
			t.Errorf("window %d did not round-trip: got %v, want %v", i, back[i], src[i])
		}
		if got := shifted[i].End.Sub(shifted[i].Start); got != src[i].End.Sub(src[i].Start) {
			t.Errorf("window %d changed duration after shift: %v", i, got)
		}
	}
}

func TestCapacity(t *testing.T) {
	rt := models.ReservationType{ID: 4, DefaultConcurrency: 2}
	overrides := []models.FieldConcurrency{
		{FieldID: 7, ReservationTypeID: 4, Concurrency: 5, Custom: true},
	}

	if got := Capacity(overrides, 7, rt); got != 5 {
		t.Errorf("override capacity = %d, want 5", got)
	}
	if got := Capacity(overrides, 8, rt); got != 2 {
		t.Errorf("default capacity = %d, want 2", got)
	}
}

func TestExpandLanesOrdering(t *testing.T) {
	rt := models.ReservationType{ID: 1, DefaultConcurrency: 2}
	two := int16(2)
	slots := []models.TimeSlotExtension{
		{TimeSlot: models.TimeSlot{ID: 3, FieldID: 2, Start: at(9), End: at(10)}, ReservationType: rt},
		{TimeSlot: models.TimeSlot{ID: 1, FieldID: 1, Start: at(9), End: at(10)}, ReservationType: rt, CustomConcurrency: &two},
		{TimeSlot: models.TimeSlot{ID: 2, FieldID: 1, Start: at(8), End: at(9)}, ReservationType: rt},
	}

	lanes := ExpandLanes(slots)
	if len(lanes) != 6 {
		t.Fatalf("len(lanes) = %d, want 6", len(lanes))
	}

	// 8:00 lanes first, then 9:00 by field id, lane index last
	if !lanes[0].Window.Start.Equal(at(8)) || lanes[0].FieldID != 1 {
		t.Errorf("lane 0 = %+v, want field 1 @ 8:00", lanes[0])
	}
	if lanes[2].FieldID != 1 || lanes[3].FieldID != 1 || lanes[2].Index != 0 || lanes[3].Index != 1 {
		t.Errorf("9:00 lanes for field 1 out of order: %+v %+v", lanes[2], lanes[3])
	}
	if lanes[4].FieldID != 2 {
		t.Errorf("lane 4 = %+v, want field 2", lanes[4])
	}
}
