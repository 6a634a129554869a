package models

import "time"

// TimeSlot is a half-open [Start, End) window on a field during which the
// field accepts reservations of one type. Slots on the same field never
// overlap.
type TimeSlot struct {
	ID                int32     `json:"id"`
	FieldID           int32     `json:"field_id"`
	ReservationTypeID int32     `json:"reservation_type_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
}

// TimeSlotExtension joins a slot with its reservation type and the
// concurrency in force on its field (override or type default).
type TimeSlotExtension struct {
	TimeSlot        TimeSlot        `json:"time_slot"`
	ReservationType ReservationType `json:"reservation_type"`
	// CustomConcurrency is nil when the field uses the type default.
	CustomConcurrency *int16 `json:"custom_concurrency,omitempty"`
}

// Concurrency resolves the effective lane count for the slot.
func (t TimeSlotExtension) Concurrency() int16 {
	if t.CustomConcurrency != nil {
		return *t.CustomConcurrency
	}
	return t.ReservationType.DefaultConcurrency
}
