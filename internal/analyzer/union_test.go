package analyzer

import "testing"

func regional(pairs ...RegionCount) RegionalUnion {
	return RegionalUnion{Regions: pairs}
}

func TestUnionAddMergesRegions(t *testing.T) {
	sum := NewUnion(false)
	sum.Add(ForRegion(1, 2))
	sum.Add(ForRegion(2, 3))
	sum.Add(ForRegion(1, 5))

	if got := sum.SumTotal(); got != 10 {
		t.Errorf("SumTotal() = %d, want 10", got)
	}
	for _, r := range sum.Regions {
		if r.RegionID == 1 && r.Count != 7 {
			t.Errorf("region 1 = %d, want 7", r.Count)
		}
	}
}

func TestUnionSpreadMul(t *testing.T) {
	sum := regional(RegionCount{1, 3}, RegionCount{2, 4})
	sum.SpreadMul(2)
	if got := sum.SumTotal(); got != 14 {
		t.Errorf("SumTotal() after SpreadMul = %d, want 14", got)
	}

	single := Single(5)
	single.SpreadMul(3)
	if single.Total != 15 {
		t.Errorf("Total after SpreadMul = %d, want 15", single.Total)
	}
}

func TestUnionSatisfies(t *testing.T) {
	tests := []struct {
		name      string
		have      RegionalUnion
		want      RegionalUnion
		satisfied bool
	}{
		{"interregional enough", Single(6), Single(6), true},
		{"interregional short", Single(5), Single(6), false},
		{"regional component short", regional(RegionCount{1, 6}, RegionCount{2, 1}), regional(RegionCount{1, 6}, RegionCount{2, 2}), false},
		{"regional covered", regional(RegionCount{1, 6}, RegionCount{2, 6}), regional(RegionCount{1, 6}, RegionCount{2, 2}), true},
		{"missing region supplies zero", regional(RegionCount{1, 6}), regional(RegionCount{1, 1}, RegionCount{2, 1}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.have.Satisfies(tt.want); got != tt.satisfied {
				t.Errorf("Satisfies() = %v, want %v", got, tt.satisfied)
			}
		})
	}
}

func TestUnionReduceBy(t *testing.T) {
	pool := regional(RegionCount{1, 2}, RegionCount{2, 1})

	if pool.ReduceBy(ForRegion(1, 1)) {
		t.Error("ReduceBy reported overflow with budget left")
	}
	if pool.ReduceBy(ForRegion(2, 1)) {
		t.Error("ReduceBy reported overflow with budget left")
	}
	// region 2 is now dry; the grant must be refused without touching it
	if !pool.ReduceBy(ForRegion(2, 1)) {
		t.Error("ReduceBy did not report overflow on a dry region")
	}
	if got := pool.SumTotal(); got != 1 {
		t.Errorf("SumTotal() = %d, want 1 remaining in region 1", got)
	}
}

func TestUnionZeroedKeepsShape(t *testing.T) {
	z := regional(RegionCount{4, 9}, RegionCount{7, 2}).Zeroed()
	if len(z.Regions) != 2 || z.SumTotal() != 0 {
		t.Errorf("Zeroed() = %+v, want two zero components", z)
	}
	if zi := Single(9).Zeroed(); !zi.Interregional || zi.Total != 0 {
		t.Errorf("Zeroed() interregional = %+v", zi)
	}
}
