// Package payload converts a validated scheduling configuration into the
// stream messages the engine consumes: one ScheduledInput per target and
// season phase.
package payload

import (
	"sort"

	"github.com/mrodz/fieldz/internal/analyzer"
	"github.com/mrodz/fieldz/internal/models"
	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

// Options steers one build pass.
type Options struct {
	MatchesToPlay int
	Interregional bool
	Phase         models.SeasonPhase
	// FirstID seeds the unique-id sequence so two phases never collide.
	FirstID uint32
}

// Build emits the inputs for every schedulable target in the snapshot.
// Targets flagged by the report (empty, duplicated, impossible) are skipped;
// the caller decides beforehand whether the report blocks the run entirely.
func Build(snap analyzer.Snapshot, report *analyzer.PreScheduleReport, opts Options) []*schedulerv1.ScheduledInput {
	skip := make(map[int32]bool)
	for _, id := range report.EmptyTargets {
		skip[id] = true
	}
	for _, id := range report.TargetHasDuplicates {
		skip[id] = true
	}
	for _, id := range report.ImpossibleTargets {
		skip[id] = true
	}

	var inputs []*schedulerv1.ScheduledInput
	nextID := opts.FirstID

	targets := make([]models.TargetExtension, len(snap.Targets))
	copy(targets, snap.Targets)
	sort.Slice(targets, func(i, j int) bool { return targets[i].Target.ID < targets[j].Target.ID })

	for _, target := range targets {
		if skip[target.Target.ID] {
			continue
		}

		eligible := eligibleTeams(snap.Teams, target.GroupIDs())
		if len(eligible) == 0 {
			continue
		}

		collections := partition(eligible, opts.Interregional)

		// a collection listed k times asks the engine for k rounds of
		// its round-robin (k practices per team for practice targets)
		groups := make([]*schedulerv1.PlayableTeamCollection, 0, len(collections)*opts.MatchesToPlay)
		for i := 0; i < opts.MatchesToPlay; i++ {
			groups = append(groups, collections...)
		}

		inputs = append(inputs, &schedulerv1.ScheduledInput{
			UniqueID:       nextID,
			TeamGroups:     groups,
			Fields:         usableFields(snap, target),
			CoachConflicts: conflictSubset(snap.CoachConflicts, eligible),
			IsPractice:     isPractice(snap, target),
		})
		nextID++
	}

	return inputs
}

func eligibleTeams(teams []models.TeamExtension, want []int32) []models.TeamExtension {
	var out []models.TeamExtension
	for _, team := range teams {
		if team.HasAllGroups(want) {
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Team.ID < out[j].Team.ID })
	return out
}

// partition groups the eligible teams by region, or flattens them into one
// collection for interregional runs. Regions with fewer than two teams still
// emit for practice targets; the engine simply has no pairs to draw there.
func partition(eligible []models.TeamExtension, interregional bool) []*schedulerv1.PlayableTeamCollection {
	if interregional {
		return []*schedulerv1.PlayableTeamCollection{wireCollection(eligible)}
	}

	byRegion := make(map[int32][]models.TeamExtension)
	var regionOrder []int32
	for _, team := range eligible {
		if _, seen := byRegion[team.Team.RegionID]; !seen {
			regionOrder = append(regionOrder, team.Team.RegionID)
		}
		byRegion[team.Team.RegionID] = append(byRegion[team.Team.RegionID], team)
	}
	sort.Slice(regionOrder, func(i, j int) bool { return regionOrder[i] < regionOrder[j] })

	out := make([]*schedulerv1.PlayableTeamCollection, 0, len(regionOrder))
	for _, regionID := range regionOrder {
		out = append(out, wireCollection(byRegion[regionID]))
	}
	return out
}

func wireCollection(teams []models.TeamExtension) *schedulerv1.PlayableTeamCollection {
	collection := &schedulerv1.PlayableTeamCollection{
		Teams: make([]*schedulerv1.Team, len(teams)),
	}
	for i, team := range teams {
		collection.Teams[i] = &schedulerv1.Team{UniqueID: uint32(team.Team.ID)}
	}
	return collection
}

// usableFields collects the fields whose slots pass the target's
// reservation-type filter, expanded with per-field concurrency.
func usableFields(snap analyzer.Snapshot, target models.TargetExtension) []*schedulerv1.Field {
	byField := make(map[int32][]*schedulerv1.TimeSlot)
	var fieldOrder []int32

	for _, ext := range snap.TimeSlots {
		if filter := target.Target.ReservationTypeID; filter != nil && *filter != ext.ReservationType.ID {
			continue
		}
		fieldID := ext.TimeSlot.FieldID
		if _, seen := byField[fieldID]; !seen {
			fieldOrder = append(fieldOrder, fieldID)
		}
		byField[fieldID] = append(byField[fieldID], &schedulerv1.TimeSlot{
			Start:       ext.TimeSlot.Start.UnixMilli(),
			End:         ext.TimeSlot.End.UnixMilli(),
			Concurrency: uint32(ext.Concurrency()),
		})
	}
	sort.Slice(fieldOrder, func(i, j int) bool { return fieldOrder[i] < fieldOrder[j] })

	fields := make([]*schedulerv1.Field, 0, len(fieldOrder))
	for _, fieldID := range fieldOrder {
		fields = append(fields, &schedulerv1.Field{
			UniqueID:  uint32(fieldID),
			TimeSlots: byField[fieldID],
		})
	}
	return fields
}

// conflictSubset keeps the conflicts whose member teams all play for this
// target; a conflict touching outside teams cannot constrain the input.
func conflictSubset(conflicts []models.CoachConflict, eligible []models.TeamExtension) []*schedulerv1.CoachConflict {
	eligibleIDs := make(map[int32]bool, len(eligible))
	for _, team := range eligible {
		eligibleIDs[team.Team.ID] = true
	}

	var out []*schedulerv1.CoachConflict
	for _, conflict := range conflicts {
		if len(conflict.Teams) < 2 {
			continue
		}
		all := true
		for _, team := range conflict.Teams {
			if !eligibleIDs[team.ID] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		wireTeams := make([]*schedulerv1.Team, len(conflict.Teams))
		for i, team := range conflict.Teams {
			wireTeams[i] = &schedulerv1.Team{UniqueID: uint32(team.ID)}
		}
		out = append(out, &schedulerv1.CoachConflict{
			UniqueID: uint32(conflict.ID),
			RegionID: uint32(conflict.RegionID),
			Teams:    wireTeams,
		})
	}
	return out
}

func isPractice(snap analyzer.Snapshot, target models.TargetExtension) bool {
	if target.Target.ReservationTypeID == nil {
		return false
	}
	rt, ok := snap.ReservationTypes[*target.Target.ReservationTypeID]
	return ok && rt.IsPractice
}
