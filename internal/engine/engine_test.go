package engine

import (
	"errors"
	"reflect"
	"testing"

	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

const hour = int64(60 * 60 * 1000)

// slotRun builds n back-to-back slots of the given duration and concurrency.
func slotRun(startHour int, n int, durationHours int, concurrency uint32) []*schedulerv1.TimeSlot {
	slots := make([]*schedulerv1.TimeSlot, n)
	cursor := int64(startHour) * hour
	for i := range slots {
		slots[i] = &schedulerv1.TimeSlot{
			Start:       cursor,
			End:         cursor + int64(durationHours)*hour,
			Concurrency: concurrency,
		}
		cursor += int64(durationHours) * hour
	}
	return slots
}

func teams(ids ...uint32) []*schedulerv1.Team {
	out := make([]*schedulerv1.Team, len(ids))
	for i, id := range ids {
		out[i] = &schedulerv1.Team{UniqueID: id}
	}
	return out
}

func collectTeams(r *schedulerv1.Reservation) (uint32, uint32) {
	return r.Booking.HomeTeam.UniqueID, r.Booking.AwayTeam.UniqueID
}

// checkLaneInvariant fails the test if any field hosts more overlapping
// reservations than its slot concurrency allows, or if a team occupies two
// overlapping reservations.
func checkLaneInvariant(t *testing.T, in *schedulerv1.ScheduledInput, out *Output) {
	t.Helper()

	concurrency := make(map[[3]int64]uint32)
	for _, f := range in.Fields {
		for _, s := range f.TimeSlots {
			c := s.Concurrency
			if c == 0 {
				c = 1
			}
			concurrency[[3]int64{int64(f.UniqueID), s.Start, s.End}] = c
		}
	}

	used := make(map[[3]int64]uint32)
	teamWindows := make(map[uint32][][2]int64)
	for _, r := range out.Reservations {
		key := [3]int64{int64(r.Field.UniqueID), r.Start, r.End}
		used[key]++
		if used[key] > concurrency[key] {
			t.Errorf("field %d slot [%d,%d) over capacity: %d > %d",
				r.Field.UniqueID, r.Start, r.End, used[key], concurrency[key])
		}

		home, away := collectTeams(r)
		for _, id := range []uint32{home, away} {
			for _, w := range teamWindows[id] {
				if overlaps(w[0], w[1], r.Start, r.End) {
					t.Errorf("team %d double-booked over [%d,%d)", id, r.Start, r.End)
				}
			}
			teamWindows[id] = append(teamWindows[id], [2]int64{r.Start, r.End})
			if home == away {
				break // practice: count the team once
			}
		}
	}
}

func TestRoundRobinAllPairsOnce(t *testing.T) {
	// S1: four teams, one round -> six unique matchups
	in := &schedulerv1.ScheduledInput{
		UniqueID: 1,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{
			{Teams: teams(1, 2, 3, 4)},
		},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(8, 8, 2, 1)},
		},
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(out.Reservations) != 6 {
		t.Fatalf("len(reservations) = %d, want 6", len(out.Reservations))
	}
	if out.Unplaced != 0 {
		t.Errorf("unplaced = %d, want 0", out.Unplaced)
	}

	seen := make(map[[2]uint32]int)
	for _, r := range out.Reservations {
		home, away := collectTeams(r)
		if home == away {
			t.Fatalf("match reservation with home == away (%d)", home)
		}
		a, b := home, away
		if a > b {
			a, b = b, a
		}
		seen[[2]uint32{a, b}]++
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("pair %v played %d times, want 1", k, n)
		}
	}
	if len(seen) != 6 {
		t.Errorf("distinct pairs = %d, want 6", len(seen))
	}
	checkLaneInvariant(t, in, out)
}

func TestRegionalCollectionsDoNotCross(t *testing.T) {
	// S2: two regional collections of three teams, two rounds each -> 12
	// matches, none crossing collections.
	regionA := []uint32{1, 2, 3}
	regionB := []uint32{4, 5, 6}
	in := &schedulerv1.ScheduledInput{
		UniqueID: 2,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{
			{Teams: teams(regionA...)},
			{Teams: teams(regionA...)},
			{Teams: teams(regionB...)},
			{Teams: teams(regionB...)},
		},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(0, 16, 1, 1)},
			{UniqueID: 2, TimeSlots: slotRun(0, 16, 1, 1)},
		},
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(out.Reservations) != 12 {
		t.Fatalf("len(reservations) = %d, want 12", len(out.Reservations))
	}

	inA := func(id uint32) bool { return id <= 3 }
	for _, r := range out.Reservations {
		home, away := collectTeams(r)
		if inA(home) != inA(away) {
			t.Errorf("cross-collection match %d v %d", home, away)
		}
	}
	checkLaneInvariant(t, in, out)
}

func TestCoachConflictSerialized(t *testing.T) {
	// S3: teams 1 and 2 share a coach; a two-lane slot must not host both in
	// separate lanes. Their own match occupies a single lane and is allowed.
	in := &schedulerv1.ScheduledInput{
		UniqueID: 3,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{
			{Teams: teams(1, 2, 3, 4)},
		},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(8, 6, 2, 2)},
		},
		CoachConflicts: []*schedulerv1.CoachConflict{
			{UniqueID: 1, RegionID: 1, Teams: teams(1, 2)},
		},
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	hosts := func(r *schedulerv1.Reservation, id uint32) bool {
		home, away := collectTeams(r)
		return home == id || away == id
	}

	for i, r1 := range out.Reservations {
		for j, r2 := range out.Reservations {
			if i == j || !hosts(r1, 1) || !hosts(r2, 2) {
				continue
			}
			if overlaps(r1.Start, r1.End, r2.Start, r2.End) {
				t.Errorf("coach conflict violated: teams 1 and 2 overlap at [%d,%d)/[%d,%d)",
					r1.Start, r1.End, r2.Start, r2.End)
			}
		}
	}
	checkLaneInvariant(t, in, out)
}

func TestPracticeSingletons(t *testing.T) {
	// S4: five teams, five slots -> one practice each
	in := &schedulerv1.ScheduledInput{
		UniqueID: 4,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{
			{Teams: teams(1, 2, 3, 4, 5)},
		},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(8, 5, 1, 1)},
		},
		IsPractice: true,
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(out.Reservations) != 5 {
		t.Fatalf("len(reservations) = %d, want 5", len(out.Reservations))
	}

	seen := make(map[uint32]bool)
	for _, r := range out.Reservations {
		home, away := collectTeams(r)
		if home != away {
			t.Errorf("practice reservation pairs %d with %d", home, away)
		}
		if seen[home] {
			t.Errorf("team %d practiced twice", home)
		}
		seen[home] = true
	}
}

func TestPracticeUnderrun(t *testing.T) {
	// S4 continued: three rounds of practice for five teams but only ten
	// slots -> five placements short, flagged not fabricated.
	group := &schedulerv1.PlayableTeamCollection{Teams: teams(1, 2, 3, 4, 5)}
	in := &schedulerv1.ScheduledInput{
		UniqueID:   5,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{group, group, group},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(8, 10, 1, 1)},
		},
		IsPractice: true,
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(out.Reservations) != 10 {
		t.Errorf("len(reservations) = %d, want 10", len(out.Reservations))
	}
	if out.Unplaced != 5 {
		t.Errorf("unplaced = %d, want 5", out.Unplaced)
	}
}

func TestHomeAwayAlternatesForRepeatedMatchup(t *testing.T) {
	// one matchup four times: homes must split 2/2
	group := &schedulerv1.PlayableTeamCollection{Teams: teams(1, 2)}
	in := &schedulerv1.ScheduledInput{
		UniqueID:   6,
		TeamGroups: []*schedulerv1.PlayableTeamCollection{group, group, group, group},
		Fields: []*schedulerv1.Field{
			{UniqueID: 1, TimeSlots: slotRun(0, 4, 1, 1)},
		},
	}

	out, err := Schedule(in)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(out.Reservations) != 4 {
		t.Fatalf("len(reservations) = %d, want 4", len(out.Reservations))
	}

	home := make(map[uint32]int)
	for _, r := range out.Reservations {
		h, _ := collectTeams(r)
		home[h]++
	}
	if home[1] != 2 || home[2] != 2 {
		t.Errorf("home split = %d/%d, want 2/2", home[1], home[2])
	}
}

func TestBalanceHomeAwayRule(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[uint32]int
		wantHome uint32
	}{
		{"lower count gets home", map[uint32]int{3: 1, 8: 0}, 8},
		{"tie breaks to smaller id", map[uint32]int{3: 2, 8: 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home, away := balanceHomeAway(3, 8, tt.counts)
			if home != tt.wantHome {
				t.Errorf("home = %d, want %d", home, tt.wantHome)
			}
			if away == home {
				t.Error("home and away are the same team")
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	build := func() *schedulerv1.ScheduledInput {
		return &schedulerv1.ScheduledInput{
			UniqueID: 42,
			TeamGroups: []*schedulerv1.PlayableTeamCollection{
				{Teams: teams(1, 2, 3, 4, 5)},
			},
			Fields: []*schedulerv1.Field{
				{UniqueID: 1, TimeSlots: slotRun(8, 12, 1, 2)},
			},
		}
	}

	first, err := Schedule(build())
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	second, err := Schedule(build())
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different outputs")
	}
}

func TestMalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		in   *schedulerv1.ScheduledInput
	}{
		{
			"duplicate team in collection",
			&schedulerv1.ScheduledInput{
				UniqueID:   9,
				TeamGroups: []*schedulerv1.PlayableTeamCollection{{Teams: teams(1, 1)}},
			},
		},
		{
			"slot ends before start",
			&schedulerv1.ScheduledInput{
				UniqueID:   9,
				TeamGroups: []*schedulerv1.PlayableTeamCollection{{Teams: teams(1, 2)}},
				Fields: []*schedulerv1.Field{
					{UniqueID: 1, TimeSlots: []*schedulerv1.TimeSlot{{Start: hour, End: 0, Concurrency: 1}}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Schedule(tt.in)
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("Schedule() error = %v, want MalformedInputError", err)
			}
		})
	}
}
