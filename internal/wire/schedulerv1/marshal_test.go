package schedulerv1

import (
	"reflect"
	"testing"
)

func TestScheduledInputRoundTrip(t *testing.T) {
	in := &ScheduledInput{
		UniqueID: 7,
		TeamGroups: []*PlayableTeamCollection{
			{Teams: []*Team{{UniqueID: 1}, {UniqueID: 2}, {UniqueID: 3}}},
			{Teams: []*Team{{UniqueID: 9}}},
		},
		Fields: []*Field{
			{
				UniqueID: 4,
				TimeSlots: []*TimeSlot{
					{Start: 1714000000000, End: 1714007200000, Concurrency: 2},
					{Start: 1714010000000, End: 1714017200000, Concurrency: 1},
				},
			},
		},
		CoachConflicts: []*CoachConflict{
			{UniqueID: 11, RegionID: 3, Teams: []*Team{{UniqueID: 1}, {UniqueID: 2}}},
		},
		IsPractice: true,
	}

	var got ScheduledInput
	if err := got.UnmarshalWire(in.MarshalWire()); err != nil {
		t.Fatalf("UnmarshalWire() error = %v", err)
	}
	if !reflect.DeepEqual(&got, in) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", &got, in)
	}
}

func TestScheduledOutputRoundTrip(t *testing.T) {
	out := &ScheduledOutput{
		UniqueID: 7,
		TimeSlots: []*Reservation{
			{
				Field: &Field{UniqueID: 4},
				Start: 1714000000000,
				End:   1714007200000,
				Booking: &Booked{
					HomeTeam: &Team{UniqueID: 1},
					AwayTeam: &Team{UniqueID: 2},
				},
			},
			// practice block: home == away
			{
				Field:   &Field{UniqueID: 4},
				Start:   1714010000000,
				End:     1714017200000,
				Booking: &Booked{HomeTeam: &Team{UniqueID: 9}, AwayTeam: &Team{UniqueID: 9}},
			},
		},
	}

	var got ScheduledOutput
	if err := got.UnmarshalWire(out.MarshalWire()); err != nil {
		t.Fatalf("UnmarshalWire() error = %v", err)
	}
	if !reflect.DeepEqual(&got, out) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", &got, out)
	}
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	var c Codec
	if _, err := c.Marshal(struct{}{}); err == nil {
		t.Error("Marshal accepted a non-wire type")
	}
	if err := c.Unmarshal(nil, &struct{}{}); err == nil {
		t.Error("Unmarshal accepted a non-wire type")
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	// a Team encoded with an extra unknown varint field 15
	b := (&Team{UniqueID: 3}).MarshalWire()
	b = append(b, 0x78, 0x01) // tag 15 varint, value 1

	var team Team
	if err := team.UnmarshalWire(b); err != nil {
		t.Fatalf("UnmarshalWire() error = %v", err)
	}
	if team.UniqueID != 3 {
		t.Errorf("UniqueID = %d, want 3", team.UniqueID)
	}
}
