// Package analyzer produces the pre-schedule feasibility report: supply and
// demand per target, duplicate and empty targets, and targets that cannot
// field two teams. Soft problems ride inside the report; the analyzer only
// errors on invalid input bounds.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/mrodz/fieldz/internal/models"
)

// Matches-to-play bounds: 1..7 (reservation-type concurrency is bounded
// separately, 1..8).
const (
	MinMatchesToPlay = 1
	MaxMatchesToPlay = 7
)

// Input is the client payload driving one report.
type Input struct {
	MatchesToPlay int  `json:"matches_to_play"`
	Interregional bool `json:"interregional"`
	// TotalMatchesSupplied carries the remaining supply between season
	// phases; nil means count the calendar from scratch.
	TotalMatchesSupplied *uint64 `json:"-"`
}

// Snapshot is everything the report reads, captured up front so the analyzer
// stays pure.
type Snapshot struct {
	Targets          []models.TargetExtension
	Teams            []models.TeamExtension
	TimeSlots        []models.TimeSlotExtension
	ReservationTypes map[int32]models.ReservationType
	CoachConflicts   []models.CoachConflict
	// RegionOfField resolves a field to its owning region.
	RegionOfField func(fieldID int32) int32
}

// DuplicateEntry groups the targets sharing one identity tuple
// (group set, practice character).
type DuplicateEntry struct {
	TeamGroups        []models.TeamGroup       `json:"team_groups"`
	UsedBy            []models.TargetExtension `json:"used_by"`
	TeamsWithGroupSet RegionalUnion            `json:"teams_with_group_set"`
}

// HasDuplicates reports whether more than one target claims this identity.
func (d DuplicateEntry) HasDuplicates() bool {
	return len(d.UsedBy) > 1
}

// SupplyRequireEntry is the supply/demand line for one target.
type SupplyRequireEntry struct {
	Target   models.TargetExtension `json:"target"`
	Required RegionalUnion          `json:"required"`
	Supplied RegionalUnion          `json:"supplied"`
}

// AccountedFor reports whether supply covers demand component-wise.
func (e SupplyRequireEntry) AccountedFor() bool {
	return e.Supplied.Satisfies(e.Required)
}

// PreScheduleReport is the full feasibility answer.
type PreScheduleReport struct {
	TargetDuplicates     []DuplicateEntry     `json:"target_duplicates"`
	TargetHasDuplicates  []int32              `json:"target_has_duplicates"`
	TargetMatchCount     []SupplyRequireEntry `json:"target_match_count"`
	EmptyTargets         []int32              `json:"empty_targets"`
	ImpossibleTargets    []int32              `json:"impossible_targets"`
	TotalMatchesRequired uint64               `json:"total_matches_required"`
	TotalMatchesSupplied uint64               `json:"total_matches_supplied"`
	Interregional        bool                 `json:"interregional"`
}

// UndersuppliedTargets lists targets whose demand is not covered
// component-wise by the calendar.
func (r PreScheduleReport) UndersuppliedTargets() []int32 {
	var ids []int32
	for _, entry := range r.TargetMatchCount {
		if !entry.AccountedFor() {
			ids = append(ids, entry.Target.Target.ID)
		}
	}
	return ids
}

// HasBlockingErrors reports whether scheduling must not proceed.
func (r PreScheduleReport) HasBlockingErrors() bool {
	return len(r.TargetHasDuplicates) > 0 ||
		len(r.ImpossibleTargets) > 0 ||
		len(r.UndersuppliedTargets()) > 0
}

// identity is the duplicate-detection tuple: the sorted group set plus the
// practice character of the reservation-type filter. Two targets with the
// same groups but filters of differing practice character are not duplicates.
type identity struct {
	groups   string
	practice bool
}

func (s *Snapshot) targetIdentity(t models.TargetExtension) identity {
	ids := t.GroupIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	key := ""
	for _, id := range ids {
		key += fmt.Sprintf("%d,", id)
	}
	practice := false
	if t.Target.ReservationTypeID != nil {
		if rt, ok := s.ReservationTypes[*t.Target.ReservationTypeID]; ok {
			practice = rt.IsPractice
		}
	}
	return identity{groups: key, practice: practice}
}

// eligibleTally counts teams whose group set covers want, per region or in
// total depending on mode.
func (s *Snapshot) eligibleTally(want []int32, interregional bool) RegionalUnion {
	tally := NewUnion(interregional)
	for _, team := range s.Teams {
		if !team.HasAllGroups(want) {
			continue
		}
		if interregional {
			tally.Add(Single(1))
		} else {
			tally.Add(ForRegion(team.Team.RegionID, 1))
		}
	}
	tally.sorted()
	return tally
}

func ncr2(n uint64) uint64 {
	return n * (n - 1) / 2
}

// choices maps an eligible-team tally to the per-component count of distinct
// pairings.
func choices(tally RegionalUnion) RegionalUnion {
	if tally.Interregional {
		return Single(ncr2(tally.Total))
	}
	out := RegionalUnion{Regions: make([]RegionCount, len(tally.Regions))}
	for i, r := range tally.Regions {
		out.Regions[i] = RegionCount{RegionID: r.RegionID, Count: ncr2(r.Count)}
	}
	return out
}

// slotSupply is the tally one time slot contributes: its concurrency, in the
// slot's region when regional.
func (s *Snapshot) slotSupply(ext models.TimeSlotExtension, interregional bool) RegionalUnion {
	n := uint64(ext.Concurrency())
	if interregional {
		return Single(n)
	}
	return ForRegion(s.RegionOfField(ext.TimeSlot.FieldID), n)
}

// Analyze builds the report.
func Analyze(snap Snapshot, input Input) (*PreScheduleReport, error) {
	if input.MatchesToPlay < MinMatchesToPlay || input.MatchesToPlay > MaxMatchesToPlay {
		return nil, fmt.Errorf("matches_to_play %d out of range [%d, %d]",
			input.MatchesToPlay, MinMatchesToPlay, MaxMatchesToPlay)
	}

	report := &PreScheduleReport{Interregional: input.Interregional}

	// empty targets are reported once and excluded from everything else
	var live []models.TargetExtension
	for _, target := range snap.Targets {
		if len(target.Groups) == 0 {
			report.EmptyTargets = append(report.EmptyTargets, target.Target.ID)
			continue
		}
		live = append(live, target)
	}
	sortIDs(report.EmptyTargets)

	// bucket targets by identity tuple
	byIdentity := make(map[identity][]models.TargetExtension)
	var order []identity
	for _, target := range live {
		id := snap.targetIdentity(target)
		if _, seen := byIdentity[id]; !seen {
			order = append(order, id)
		}
		byIdentity[id] = append(byIdentity[id], target)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].groups != order[j].groups {
			return order[i].groups < order[j].groups
		}
		return !order[i].practice && order[j].practice
	})

	for _, id := range order {
		targets := byIdentity[id]
		entry := DuplicateEntry{
			TeamGroups:        targets[0].Groups,
			UsedBy:            targets,
			TeamsWithGroupSet: snap.eligibleTally(targets[0].GroupIDs(), input.Interregional),
		}
		report.TargetDuplicates = append(report.TargetDuplicates, entry)
		if entry.HasDuplicates() {
			for _, t := range targets {
				report.TargetHasDuplicates = append(report.TargetHasDuplicates, t.Target.ID)
			}
		}
	}
	sortIDs(report.TargetHasDuplicates)

	// demand: distinct pairings per identity, fanned out to each target
	// using it, then scaled by matches-to-play
	required := make(map[int32]RegionalUnion)
	for _, entry := range report.TargetDuplicates {
		pairings := choices(entry.TeamsWithGroupSet)
		for _, target := range entry.UsedBy {
			sum, ok := required[target.Target.ID]
			if !ok {
				sum = NewUnion(input.Interregional)
			}
			sum.Add(pairings)
			required[target.Target.ID] = sum
		}

		// impossibility: fewer than two eligible teams anywhere
		if pairings.SumTotal() == 0 {
			for _, target := range entry.UsedBy {
				report.ImpossibleTargets = append(report.ImpossibleTargets, target.Target.ID)
			}
		}
	}
	sortIDs(report.ImpossibleTargets)

	for id, sum := range required {
		sum.SpreadMul(uint64(input.MatchesToPlay))
		required[id] = sum
	}

	// supply: each reservation type has a finite pool of lanes; targets
	// overlap on field types, so every grant shrinks the pool
	pool := make(map[int32]RegionalUnion)
	var rawSupply uint64
	for _, ext := range snap.TimeSlots {
		grant := snap.slotSupply(ext, input.Interregional)
		entry, ok := pool[ext.ReservationType.ID]
		if !ok {
			entry = NewUnion(input.Interregional)
		}
		entry.Add(grant)
		pool[ext.ReservationType.ID] = entry
		rawSupply += uint64(ext.Concurrency())
	}

	supplied := make(map[int32]RegionalUnion)
	for _, ext := range snap.TimeSlots {
		for _, target := range live {
			if filter := target.Target.ReservationTypeID; filter != nil && *filter != ext.ReservationType.ID {
				continue
			}

			grant := snap.slotSupply(ext, input.Interregional)
			typePool := pool[ext.ReservationType.ID]
			if typePool.ReduceBy(grant) {
				pool[ext.ReservationType.ID] = typePool
				continue
			}
			pool[ext.ReservationType.ID] = typePool

			sum, ok := supplied[target.Target.ID]
			if !ok {
				sum = NewUnion(input.Interregional)
			}
			sum.Add(grant)
			supplied[target.Target.ID] = sum
		}
	}

	// assemble per-target lines, zero-filling whichever side is absent
	for _, target := range live {
		req, hasReq := required[target.Target.ID]
		sup, hasSup := supplied[target.Target.ID]
		switch {
		case hasReq && !hasSup:
			sup = req.Zeroed()
		case hasSup && !hasReq:
			req = sup.Zeroed()
		case !hasReq && !hasSup:
			req = NewUnion(input.Interregional)
			sup = NewUnion(input.Interregional)
		}
		req.sorted()
		sup.sorted()
		report.TargetMatchCount = append(report.TargetMatchCount, SupplyRequireEntry{
			Target:   target,
			Required: req,
			Supplied: sup,
		})
	}
	sort.Slice(report.TargetMatchCount, func(i, j int) bool {
		return report.TargetMatchCount[i].Target.Target.ID < report.TargetMatchCount[j].Target.Target.ID
	})

	for _, entry := range report.TargetMatchCount {
		report.TotalMatchesRequired += entry.Required.SumTotal()
	}

	if input.TotalMatchesSupplied != nil {
		report.TotalMatchesSupplied = *input.TotalMatchesSupplied
	} else {
		report.TotalMatchesSupplied = rawSupply
	}

	return report, nil
}

func sortIDs(ids []int32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
