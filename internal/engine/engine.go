// Package engine turns ScheduledInput payloads into concrete reservations.
// It is pure and deterministic: the same input always yields the same output,
// with randomness seeded from the input's unique id.
package engine

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

// MalformedInputError aborts a single input without tearing down the stream.
type MalformedInputError struct {
	UniqueID uint32
	Reason   string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %d: %s", e.UniqueID, e.Reason)
}

// Output is the engine's answer for one input. Unplaced counts the pairs that
// could not be assigned a lane; they are surfaced as a diagnostic, never as
// empty reservations.
type Output struct {
	UniqueID     uint32
	Reservations []*schedulerv1.Reservation
	Unplaced     int
}

// Wire converts the output to its stream message.
func (o *Output) Wire() *schedulerv1.ScheduledOutput {
	return &schedulerv1.ScheduledOutput{
		UniqueID:  o.UniqueID,
		TimeSlots: o.Reservations,
	}
}

// lane is one concurrent reservation slot carved out of a field time slot.
type lane struct {
	fieldID uint32
	start   int64
	end     int64
	index   uint32
}

func overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && bStart < aEnd
}

// pair is a unit of demand: a match between a and b, or, when practice is
// set, a practice for a alone.
type pair struct {
	a, b     uint32
	practice bool
}

// Schedule assigns every pair demanded by the input to a lane, subject to
// team-overlap and coach-conflict constraints.
func Schedule(in *schedulerv1.ScheduledInput) (*Output, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	lanes := expandLanes(in.Fields)
	pairs := enumeratePairs(in)
	shufflePairs(in.UniqueID, pairs)

	conflictPeers := buildConflictPeers(in.CoachConflicts)

	// windows each team is already committed to, in lane order
	busy := make(map[uint32][][2]int64)
	homeCount := make(map[uint32]int)
	placed := make([]bool, len(pairs))
	placedCount := 0

	var reservations []*schedulerv1.Reservation

	for _, ln := range lanes {
		if placedCount == len(pairs) {
			break
		}
		for i, p := range pairs {
			if placed[i] {
				continue
			}
			if !admissible(p, ln, busy, conflictPeers) {
				continue
			}

			placed[i] = true
			placedCount++
			busy[p.a] = append(busy[p.a], [2]int64{ln.start, ln.end})

			var booking *schedulerv1.Booked
			if p.practice {
				booking = &schedulerv1.Booked{
					HomeTeam: &schedulerv1.Team{UniqueID: p.a},
					AwayTeam: &schedulerv1.Team{UniqueID: p.a},
				}
			} else {
				busy[p.b] = append(busy[p.b], [2]int64{ln.start, ln.end})
				home, away := balanceHomeAway(p.a, p.b, homeCount)
				homeCount[home]++
				booking = &schedulerv1.Booked{
					HomeTeam: &schedulerv1.Team{UniqueID: home},
					AwayTeam: &schedulerv1.Team{UniqueID: away},
				}
			}

			reservations = append(reservations, &schedulerv1.Reservation{
				Field:   &schedulerv1.Field{UniqueID: ln.fieldID},
				Start:   ln.start,
				End:     ln.end,
				Booking: booking,
			})
			break
		}
	}

	return &Output{
		UniqueID:     in.UniqueID,
		Reservations: reservations,
		Unplaced:     len(pairs) - placedCount,
	}, nil
}

func validate(in *schedulerv1.ScheduledInput) error {
	for _, group := range in.TeamGroups {
		seen := make(map[uint32]bool, len(group.Teams))
		for _, team := range group.Teams {
			if seen[team.UniqueID] {
				return &MalformedInputError{
					UniqueID: in.UniqueID,
					Reason:   fmt.Sprintf("duplicate team id %d in collection", team.UniqueID),
				}
			}
			seen[team.UniqueID] = true
		}
	}
	for _, field := range in.Fields {
		for _, slot := range field.TimeSlots {
			if slot.End <= slot.Start {
				return &MalformedInputError{
					UniqueID: in.UniqueID,
					Reason:   fmt.Sprintf("time slot on field %d ends at or before its start", field.UniqueID),
				}
			}
		}
	}
	return nil
}

func expandLanes(fields []*schedulerv1.Field) []lane {
	var lanes []lane
	for _, f := range fields {
		for _, slot := range f.TimeSlots {
			concurrency := slot.Concurrency
			if concurrency == 0 {
				concurrency = 1
			}
			for i := uint32(0); i < concurrency; i++ {
				lanes = append(lanes, lane{
					fieldID: f.UniqueID,
					start:   slot.Start,
					end:     slot.End,
					index:   i,
				})
			}
		}
	}
	sort.SliceStable(lanes, func(i, j int) bool {
		if lanes[i].start != lanes[j].start {
			return lanes[i].start < lanes[j].start
		}
		if lanes[i].fieldID != lanes[j].fieldID {
			return lanes[i].fieldID < lanes[j].fieldID
		}
		return lanes[i].index < lanes[j].index
	})
	return lanes
}

// enumeratePairs produces the demand list: every unordered pair per
// collection for matches, one singleton per team per collection for
// practices. A collection repeated k times therefore demands k rounds.
func enumeratePairs(in *schedulerv1.ScheduledInput) []pair {
	var pairs []pair
	for _, group := range in.TeamGroups {
		if in.IsPractice {
			for _, team := range group.Teams {
				pairs = append(pairs, pair{a: team.UniqueID, practice: true})
			}
			continue
		}
		for i := 0; i < len(group.Teams); i++ {
			for j := i + 1; j < len(group.Teams); j++ {
				pairs = append(pairs, pair{a: group.Teams[i].UniqueID, b: group.Teams[j].UniqueID})
			}
		}
	}
	return pairs
}

// shufflePairs spreads repeat matchups across the calendar. The seed comes
// from the input id so reruns reproduce byte-identical schedules.
func shufflePairs(uniqueID uint32, pairs []pair) {
	h := fnv.New64a()
	var buf [4]byte
	buf[0] = byte(uniqueID)
	buf[1] = byte(uniqueID >> 8)
	buf[2] = byte(uniqueID >> 16)
	buf[3] = byte(uniqueID >> 24)
	h.Write(buf[:])

	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	rng.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
}

// buildConflictPeers flattens coach conflicts into, per team, the set of
// teams it must never overlap with.
func buildConflictPeers(conflicts []*schedulerv1.CoachConflict) map[uint32][]uint32 {
	peers := make(map[uint32][]uint32)
	for _, c := range conflicts {
		for i, a := range c.Teams {
			for j, b := range c.Teams {
				if i == j {
					continue
				}
				peers[a.UniqueID] = append(peers[a.UniqueID], b.UniqueID)
			}
		}
	}
	return peers
}

func teamBusy(busy map[uint32][][2]int64, team uint32, start, end int64) bool {
	for _, w := range busy[team] {
		if overlaps(w[0], w[1], start, end) {
			return true
		}
	}
	return false
}

func admissible(p pair, ln lane, busy map[uint32][][2]int64, peers map[uint32][]uint32) bool {
	if teamBusy(busy, p.a, ln.start, ln.end) {
		return false
	}
	if !p.practice && teamBusy(busy, p.b, ln.start, ln.end) {
		return false
	}
	for _, peer := range peers[p.a] {
		if teamBusy(busy, peer, ln.start, ln.end) {
			return false
		}
	}
	if !p.practice {
		for _, peer := range peers[p.b] {
			if teamBusy(busy, peer, ln.start, ln.end) {
				return false
			}
		}
	}
	return true
}

// balanceHomeAway gives home to the team with fewer home games so far; equal
// counts break toward the smaller id.
func balanceHomeAway(a, b uint32, homeCount map[uint32]int) (home, away uint32) {
	switch {
	case homeCount[a] < homeCount[b]:
		return a, b
	case homeCount[b] < homeCount[a]:
		return b, a
	case a < b:
		return a, b
	default:
		return b, a
	}
}
