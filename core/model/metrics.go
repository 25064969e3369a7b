package model

// UnmatchedUnit annotates a unit left un-grouped by a run.
type UnmatchedUnit struct {
	TeamID string `json:"team_id"`
	Size   int    `json:"size"`
}

// Metrics aggregates a proposal's quality figures. Participant counts are
// reconstructed through synthetic-unit member emails so that merges and
// splits do not skew coverage accounting.
type Metrics struct {
	TotalScore          float64         `json:"aggregate_group_score"`
	MeanGroupScore      float64         `json:"mean_group_score"`
	StddevGroupScore    float64         `json:"stddev_group_score"`
	TotalTravelSeconds  float64         `json:"total_travel_seconds"`
	WarningCounts       map[Warning]int `json:"warning_counts,omitempty"`
	MatchedUnits        int             `json:"matched_units"`
	UnmatchedUnits      []UnmatchedUnit `json:"unmatched_units,omitempty"`
	ParticipantsTotal   int             `json:"participants_total"`
	ParticipantsMatched int             `json:"participants_matched"`
	GroupsPerPhase      map[Phase]int   `json:"groups_per_phase,omitempty"`
}

// CompletionRatio is the fraction of participants covered by the proposal.
func (m Metrics) CompletionRatio() float64 {
	if m.ParticipantsTotal == 0 {
		return 0
	}
	return float64(m.ParticipantsMatched) / float64(m.ParticipantsTotal)
}
