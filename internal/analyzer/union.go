package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// RegionCount is one component of a regional tally.
type RegionCount struct {
	RegionID int32  `json:"region_id"`
	Count    uint64 `json:"count"`
}

// RegionalUnion is a match tally that is either a single interregional total
// or a per-region breakdown. The two shapes never mix within one report.
type RegionalUnion struct {
	Interregional bool          `json:"interregional"`
	Total         uint64        `json:"total,omitempty"`
	Regions       []RegionCount `json:"regions,omitempty"`
}

// NewUnion returns the zero tally of the requested shape.
func NewUnion(interregional bool) RegionalUnion {
	return RegionalUnion{Interregional: interregional}
}

// Single builds an interregional tally.
func Single(n uint64) RegionalUnion {
	return RegionalUnion{Interregional: true, Total: n}
}

// ForRegion builds a regional tally with one component.
func ForRegion(regionID int32, n uint64) RegionalUnion {
	return RegionalUnion{Regions: []RegionCount{{RegionID: regionID, Count: n}}}
}

// Add merges rhs into the tally, summing per-region components.
func (u *RegionalUnion) Add(rhs RegionalUnion) {
	if u.Interregional {
		u.Total += rhs.Total
		return
	}
outer:
	for _, r := range rhs.Regions {
		for i := range u.Regions {
			if u.Regions[i].RegionID == r.RegionID {
				u.Regions[i].Count += r.Count
				continue outer
			}
		}
		u.Regions = append(u.Regions, r)
	}
}

// SpreadMul multiplies every component by n.
func (u *RegionalUnion) SpreadMul(n uint64) {
	if u.Interregional {
		u.Total *= n
		return
	}
	for i := range u.Regions {
		u.Regions[i].Count *= n
	}
}

// SumTotal collapses the tally to one number.
func (u RegionalUnion) SumTotal() uint64 {
	if u.Interregional {
		return u.Total
	}
	var sum uint64
	for _, r := range u.Regions {
		sum += r.Count
	}
	return sum
}

// Satisfies reports whether the tally meets predicate component-wise. A
// region absent from the tally supplies zero.
func (u RegionalUnion) Satisfies(predicate RegionalUnion) bool {
	if u.Interregional {
		return u.Total >= predicate.Total
	}
	for _, want := range predicate.Regions {
		var have uint64
		for _, r := range u.Regions {
			if r.RegionID == want.RegionID {
				have = r.Count
				break
			}
		}
		if have < want.Count {
			return false
		}
	}
	return true
}

// ReduceBy subtracts other from the tally. A component without enough left
// is not touched; the method reports whether that happened.
func (u *RegionalUnion) ReduceBy(other RegionalUnion) (overflowed bool) {
	if u.Interregional {
		if u.Total < other.Total {
			return true
		}
		u.Total -= other.Total
		return false
	}
	for _, o := range other.Regions {
		for i := range u.Regions {
			if u.Regions[i].RegionID != o.RegionID {
				continue
			}
			if u.Regions[i].Count < o.Count {
				overflowed = true
			} else {
				u.Regions[i].Count -= o.Count
			}
			break
		}
	}
	return overflowed
}

// Zeroed returns a tally of the same shape with all components zero.
func (u RegionalUnion) Zeroed() RegionalUnion {
	if u.Interregional {
		return Single(0)
	}
	out := RegionalUnion{Regions: make([]RegionCount, len(u.Regions))}
	for i, r := range u.Regions {
		out.Regions[i] = RegionCount{RegionID: r.RegionID}
	}
	return out
}

// sorted orders regional components by region id for stable output.
func (u *RegionalUnion) sorted() {
	sort.Slice(u.Regions, func(i, j int) bool {
		return u.Regions[i].RegionID < u.Regions[j].RegionID
	})
}

func (u RegionalUnion) String() string {
	if u.Interregional {
		return fmt.Sprintf("%d matches", u.Total)
	}
	parts := make([]string, len(u.Regions))
	for i, r := range u.Regions {
		parts[i] = fmt.Sprintf("region %d: %d", r.RegionID, r.Count)
	}
	return strings.Join(parts, ", ")
}
