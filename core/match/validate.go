package match

import (
	"fmt"
	"sort"

	"github.com/dinehop/dinehop/core/model"
)

// ValidationStatistics summarizes the structural shape of a group list.
type ValidationStatistics struct {
	Units          int                 `json:"units"`
	Groups         int                 `json:"groups"`
	GroupsPerPhase map[model.Phase]int `json:"groups_per_phase"`
}

// ValidationReport is the outcome of a structural validation pass.
type ValidationReport struct {
	Valid      bool                 `json:"valid"`
	Errors     []string             `json:"errors,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	Statistics ValidationStatistics `json:"statistics"`
}

// Validate re-derives, from the group list alone, whether the grouping
// invariants hold: every unit appears in exactly three groups, hosts exactly
// once, is a guest exactly twice, no two units share more than one phase,
// no group has host among its guests or a guest count other than two.
// Unbalanced phase distribution is a warning, not an error. Validate is a
// pure function usable as a test oracle and as a guard before finalization.
func Validate(groups []model.Group) ValidationReport {
	rep := ValidationReport{Valid: true}
	rep.Statistics.GroupsPerPhase = make(map[model.Phase]int)
	rep.Statistics.Groups = len(groups)

	appearances := make(map[string]int)
	hostCounts := make(map[string]int)
	guestCounts := make(map[string]int)
	pairPhases := make(map[[2]string][]model.Phase)

	for i, g := range groups {
		rep.Statistics.GroupsPerPhase[g.Phase]++
		if len(g.GuestUnitIDs) != 2 {
			rep.fail(fmt.Sprintf("group %d (%s): guest count is %d, want 2", i, g.Phase, len(g.GuestUnitIDs)))
		}
		hostCounts[g.HostUnitID]++
		appearances[g.HostUnitID]++
		for _, id := range g.GuestUnitIDs {
			if id == g.HostUnitID {
				rep.fail(fmt.Sprintf("group %d (%s): host %s is also a guest", i, g.Phase, id))
			}
			guestCounts[id]++
			appearances[id]++
		}
		ids := g.Members()
		for a := 0; a < len(ids); a++ {
			for b := a + 1; b < len(ids); b++ {
				k := unitPairKey(ids[a], ids[b])
				pairPhases[k] = append(pairPhases[k], g.Phase)
			}
		}
	}
	rep.Statistics.Units = len(appearances)

	for _, id := range sortedKeys(appearances) {
		if appearances[id] != 3 {
			rep.fail(fmt.Sprintf("unit %s appears in %d groups, want 3", id, appearances[id]))
		}
		if hostCounts[id] != 1 {
			rep.fail(fmt.Sprintf("unit %s hosts %d times, want 1", id, hostCounts[id]))
		}
		if guestCounts[id] != 2 {
			rep.fail(fmt.Sprintf("unit %s is a guest %d times, want 2", id, guestCounts[id]))
		}
	}

	for k, phases := range pairPhases {
		if len(phases) > 1 {
			rep.fail(fmt.Sprintf("units %s and %s meet in %d phases", k[0], k[1], len(phases)))
		}
	}

	counts := make([]int, 0, len(rep.Statistics.GroupsPerPhase))
	for _, c := range rep.Statistics.GroupsPerPhase {
		counts = append(counts, c)
	}
	if len(counts) > 1 {
		min, max := counts[0], counts[0]
		for _, c := range counts[1:] {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		if min != max {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("unbalanced phase distribution: %d to %d groups per phase", min, max))
		}
	}
	sort.Strings(rep.Errors)
	return rep
}

func (r *ValidationReport) fail(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
