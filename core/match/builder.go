package match

import (
	"strings"

	"github.com/dinehop/dinehop/core/model"
)

// BuildUnits converts active teams into assignable units. The result is
// deterministic for identical input: units are sorted by id before any
// randomized shuffling happens downstream. The second return value maps unit
// ids to member emails; synthetic units created later keep this map accurate
// so participant counts can always be reconstructed.
func BuildUnits(teams []model.Team) ([]model.Unit, map[string][]string) {
	units := make([]model.Unit, 0, len(teams))
	for _, t := range teams {
		if t.Cancelled || len(t.Members) == 0 {
			continue
		}
		units = append(units, unitFromTeam(t))
	}
	model.SortUnits(units)
	return units, UnitEmails(units)
}

// BuildPool runs the full unit pipeline for a matching run: build units from
// the active teams, then apply operator constraints and the divisibility
// fixup. The returned email map reflects the final pool including synthetic
// units.
func BuildPool(teams []model.Team, c model.Constraints) ([]model.Unit, map[string][]string) {
	units, _ := BuildUnits(teams)
	units = ApplyForcedPairs(units, c.ForcedPairs)
	units = ApplyRequiredSplits(units, teams, c.SplitTeamIDs)
	units = ApplyMinimalSplits(units, teams)
	return units, UnitEmails(units)
}

// UnitEmails resolves every unit back to its member emails.
func UnitEmails(units []model.Unit) map[string][]string {
	out := make(map[string][]string, len(units))
	for _, u := range units {
		out[u.ID] = append([]string(nil), u.MemberEmails...)
	}
	return out
}

func unitFromTeam(t model.Team) model.Unit {
	var prov model.Provenance
	if len(t.Members) == 1 {
		prov = model.Solo{TeamID: t.ID}
	} else {
		prov = model.Duo{TeamID: t.ID}
	}
	u := model.Unit{
		ID:               model.UnitID(prov),
		Provenance:       prov,
		Size:             len(t.Members),
		Location:         t.Location,
		Diet:             model.DietOmnivore,
		CoursePreference: t.CoursePreference,
		Address:          t.Address,
	}
	for _, m := range t.Members {
		u.Diet = model.StricterDiet(u.Diet, m.Diet)
		u.Allergies = mergeAllergies(u.Allergies, m.Allergies)
		u.HostAllergies = mergeAllergies(u.HostAllergies, m.Allergies)
		u.MemberEmails = append(u.MemberEmails, m.Email)
		if m.Gender != "" {
			u.Genders = append(u.Genders, m.Gender)
		}
		if m.CanHostMain {
			u.CanHostMain = true
		}
		if m.KitchenAvailable {
			u.CanHostAny = true
			u.HostEmails = append(u.HostEmails, m.Email)
		}
	}
	if len(u.HostEmails) == 0 {
		u.HostEmails = append([]string(nil), u.MemberEmails...)
	}
	return u
}

func mergeAllergies(dst []string, add []string) []string {
	for _, a := range add {
		found := false
		for _, d := range dst {
			if strings.EqualFold(d, a) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, a)
		}
	}
	return dst
}
