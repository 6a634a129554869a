package payload

import (
	"testing"
	"time"

	"github.com/mrodz/fieldz/internal/analyzer"
	"github.com/mrodz/fieldz/internal/models"
)

var matchType = models.ReservationType{ID: 1, Name: "game", DefaultConcurrency: 1}
var practiceType = models.ReservationType{ID: 2, Name: "practice", DefaultConcurrency: 1, IsPractice: true}

func snapshot() analyzer.Snapshot {
	g := models.TeamGroup{ID: 1, Name: "g"}
	start := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	return analyzer.Snapshot{
		Targets: []models.TargetExtension{
			{Target: models.Target{ID: 1}, Groups: []models.TeamGroup{g}},
		},
		Teams: []models.TeamExtension{
			{Team: models.Team{ID: 1, RegionID: 1}, Groups: []models.TeamGroup{g}},
			{Team: models.Team{ID: 2, RegionID: 1}, Groups: []models.TeamGroup{g}},
			{Team: models.Team{ID: 3, RegionID: 2}, Groups: []models.TeamGroup{g}},
			{Team: models.Team{ID: 4, RegionID: 2}, Groups: []models.TeamGroup{g}},
		},
		TimeSlots: []models.TimeSlotExtension{
			{
				TimeSlot: models.TimeSlot{
					ID: 1, FieldID: 1, ReservationTypeID: 1,
					Start: start, End: start.Add(2 * time.Hour),
				},
				ReservationType: matchType,
			},
		},
		ReservationTypes: map[int32]models.ReservationType{
			matchType.ID:    matchType,
			practiceType.ID: practiceType,
		},
		CoachConflicts: []models.CoachConflict{
			{ID: 1, RegionID: 1, Teams: []models.Team{{ID: 1}, {ID: 2}}},
			{ID: 2, RegionID: 1, Teams: []models.Team{{ID: 1}, {ID: 99}}},
		},
		RegionOfField: func(int32) int32 { return 1 },
	}
}

func TestBuildRegionalPartitions(t *testing.T) {
	snap := snapshot()
	inputs := Build(snap, &analyzer.PreScheduleReport{}, Options{
		MatchesToPlay: 2,
		FirstID:       1,
	})

	if len(inputs) != 1 {
		t.Fatalf("len(inputs) = %d, want 1", len(inputs))
	}
	in := inputs[0]
	if in.UniqueID != 1 {
		t.Errorf("UniqueID = %d, want 1", in.UniqueID)
	}

	// two regions, each collection repeated twice
	if len(in.TeamGroups) != 4 {
		t.Fatalf("len(TeamGroups) = %d, want 4", len(in.TeamGroups))
	}
	sizes := map[int]int{}
	for _, group := range in.TeamGroups {
		sizes[len(group.Teams)]++
	}
	if sizes[2] != 4 {
		t.Errorf("expected four collections of two teams, got %v", sizes)
	}
}

func TestBuildInterregionalFlattens(t *testing.T) {
	snap := snapshot()
	inputs := Build(snap, &analyzer.PreScheduleReport{}, Options{
		MatchesToPlay: 1,
		Interregional: true,
		FirstID:       1,
	})

	in := inputs[0]
	if len(in.TeamGroups) != 1 {
		t.Fatalf("len(TeamGroups) = %d, want 1", len(in.TeamGroups))
	}
	if len(in.TeamGroups[0].Teams) != 4 {
		t.Errorf("flattened collection has %d teams, want 4", len(in.TeamGroups[0].Teams))
	}
}

func TestBuildConflictSubset(t *testing.T) {
	snap := snapshot()
	inputs := Build(snap, &analyzer.PreScheduleReport{}, Options{MatchesToPlay: 1, FirstID: 1})

	in := inputs[0]
	if len(in.CoachConflicts) != 1 {
		t.Fatalf("len(CoachConflicts) = %d, want 1 (conflict with outside team dropped)", len(in.CoachConflicts))
	}
	if in.CoachConflicts[0].UniqueID != 1 {
		t.Errorf("kept conflict %d, want 1", in.CoachConflicts[0].UniqueID)
	}
}

func TestBuildSkipsFlaggedTargets(t *testing.T) {
	snap := snapshot()
	report := &analyzer.PreScheduleReport{ImpossibleTargets: []int32{1}}

	if inputs := Build(snap, report, Options{MatchesToPlay: 1, FirstID: 1}); len(inputs) != 0 {
		t.Errorf("len(inputs) = %d, want 0 for flagged target", len(inputs))
	}
}

func TestBuildPracticeTarget(t *testing.T) {
	snap := snapshot()
	pt := practiceType.ID
	snap.Targets[0].Target.ReservationTypeID = &pt
	// retype the slot so the filter passes
	snap.TimeSlots[0].TimeSlot.ReservationTypeID = pt
	snap.TimeSlots[0].ReservationType = practiceType

	inputs := Build(snap, &analyzer.PreScheduleReport{}, Options{MatchesToPlay: 3, FirstID: 7})
	if len(inputs) != 1 {
		t.Fatalf("len(inputs) = %d, want 1", len(inputs))
	}
	in := inputs[0]
	if !in.IsPractice {
		t.Error("IsPractice = false, want true")
	}
	if in.UniqueID != 7 {
		t.Errorf("UniqueID = %d, want 7", in.UniqueID)
	}
	// three rounds of two regional collections
	if len(in.TeamGroups) != 6 {
		t.Errorf("len(TeamGroups) = %d, want 6", len(in.TeamGroups))
	}
}

func TestBuildFieldFilter(t *testing.T) {
	snap := snapshot()
	mt := matchType.ID
	snap.Targets[0].Target.ReservationTypeID = &mt

	// add a practice slot on another field; it must not leak into a
	// match target's field pool
	start := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	snap.TimeSlots = append(snap.TimeSlots, models.TimeSlotExtension{
		TimeSlot: models.TimeSlot{
			ID: 2, FieldID: 2, ReservationTypeID: practiceType.ID,
			Start: start, End: start.Add(time.Hour),
		},
		ReservationType: practiceType,
	})

	inputs := Build(snap, &analyzer.PreScheduleReport{}, Options{MatchesToPlay: 1, FirstID: 1})
	in := inputs[0]
	if len(in.Fields) != 1 || in.Fields[0].UniqueID != 1 {
		t.Errorf("fields = %+v, want only field 1", in.Fields)
	}
}
