package match

import (
	"gonum.org/v1/gonum/stat"

	"github.com/dinehop/dinehop/core/model"
)

// ComputeMetrics aggregates a group list into proposal metrics. Participant
// coverage is reconstructed through unit member emails so synthetic merges
// and splits count people, not units.
func ComputeMetrics(groups []model.Group, units []model.Unit, unitEmails map[string][]string, unmatched []model.UnmatchedUnit) model.Metrics {
	m := model.Metrics{
		WarningCounts:  make(map[model.Warning]int),
		GroupsPerPhase: make(map[model.Phase]int),
		UnmatchedUnits: unmatched,
	}

	scores := make([]float64, 0, len(groups))
	matched := make(map[string]bool)
	for _, g := range groups {
		m.TotalScore += g.Score
		m.TotalTravelSeconds += g.TravelSeconds
		m.GroupsPerPhase[g.Phase]++
		scores = append(scores, g.Score)
		for _, w := range g.Warnings {
			m.WarningCounts[w]++
		}
		for _, id := range g.Members() {
			matched[id] = true
		}
	}
	if len(scores) > 0 {
		m.MeanGroupScore = stat.Mean(scores, nil)
		if len(scores) > 1 {
			m.StddevGroupScore = stat.StdDev(scores, nil)
		}
	}

	unmatchedIDs := make(map[string]bool, len(unmatched))
	for _, u := range unmatched {
		unmatchedIDs[u.TeamID] = true
	}
	for _, u := range units {
		emails := unitEmails[u.ID]
		if emails == nil {
			emails = u.MemberEmails
		}
		m.ParticipantsTotal += len(emails)
		if matched[u.ID] && !unmatchedIDs[u.ID] {
			m.MatchedUnits++
			m.ParticipantsMatched += len(emails)
		}
	}
	return m
}
