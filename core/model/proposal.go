package model

import "time"

// ProposalStatus is the lifecycle state of a match version.
type ProposalStatus string

const (
	ProposalProposed  ProposalStatus = "proposed"
	ProposalFinalized ProposalStatus = "finalized"
)

// Proposal is one complete 3-phase grouping of all units for an event.
// Versions increase monotonically per event; a finalized version is terminal
// until explicitly unreleased.
type Proposal struct {
	EventID   string         `json:"event_id"`
	Version   int            `json:"version"`
	Groups    []Group        `json:"groups"`
	Metrics   Metrics        `json:"metrics"`
	Algorithm string         `json:"algorithm"`
	Status    ProposalStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Constraints are operator-specified overrides applied before unit
// construction.
type Constraints struct {
	ForcedPairs  [][2]string `json:"forced_pairs"`
	SplitTeamIDs []string    `json:"split_team_ids"`
}

// HasSplit reports whether the team id is flagged for splitting.
func (c Constraints) HasSplit(teamID string) bool {
	for _, id := range c.SplitTeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}
