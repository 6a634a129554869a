package models

// Region is a geographic grouping of fields and teams. Matches never cross
// region boundaries unless a schedule run is flagged interregional.
type Region struct {
	ID    int32  `json:"id"`
	Title string `json:"title"`
}

// RegionMetadata carries the counts the editor shows next to a region row.
type RegionMetadata struct {
	RegionID   int32 `json:"region_id"`
	TeamCount  int64 `json:"team_count"`
	FieldCount int64 `json:"field_count"`
	TimeSlots  int64 `json:"time_slot_count"`
}
