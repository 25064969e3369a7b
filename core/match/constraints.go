package match

import (
	"github.com/dinehop/dinehop/core/model"
)

// ApplyForcedPairs merges two solo units whose owners appear in a forced pair
// into one synthetic duo. Matching is first-match-wins with no
// backtracking: a unit already consumed by an earlier pair is refused, and a
// pair whose members cannot both be found as free solos is skipped.
func ApplyForcedPairs(units []model.Unit, pairs [][2]string) []model.Unit {
	consumed := make(map[string]bool)
	merged := make([]model.Unit, 0, len(units))
	byEmail := func(email string) int {
		for i, u := range units {
			if consumed[u.ID] || u.Size != 1 {
				continue
			}
			if _, ok := u.Provenance.(model.Solo); !ok {
				continue
			}
			for _, e := range u.MemberEmails {
				if e == email {
					return i
				}
			}
		}
		return -1
	}
	for _, p := range pairs {
		ai := byEmail(p[0])
		bi := byEmail(p[1])
		if ai < 0 || bi < 0 || ai == bi {
			continue
		}
		a, b := units[ai], units[bi]
		consumed[a.ID] = true
		consumed[b.ID] = true
		merged = append(merged, mergeUnits(a, b, model.ForcedPair{EmailA: p[0], EmailB: p[1]}))
	}
	out := make([]model.Unit, 0, len(units))
	for _, u := range units {
		if !consumed[u.ID] {
			out = append(out, u)
		}
	}
	out = append(out, merged...)
	model.SortUnits(out)
	return out
}

func mergeUnits(a, b model.Unit, prov model.Provenance) model.Unit {
	u := model.Unit{
		ID:          model.UnitID(prov),
		Provenance:  prov,
		Size:        a.Size + b.Size,
		Diet:        model.StricterDiet(a.Diet, b.Diet),
		CanHostMain: a.CanHostMain || b.CanHostMain,
		CanHostAny:  a.CanHostAny || b.CanHostAny,
	}
	// The cooking address comes from the side that can actually host.
	host := a
	if !a.CanHostAny && b.CanHostAny {
		host = b
	}
	u.Location = host.Location
	u.Address = host.Address
	u.HostEmails = append([]string(nil), host.HostEmails...)
	u.CoursePreference = a.CoursePreference
	if u.CoursePreference == "" {
		u.CoursePreference = b.CoursePreference
	}
	u.Allergies = mergeAllergies(append([]string(nil), a.Allergies...), b.Allergies)
	u.HostAllergies = mergeAllergies(append([]string(nil), a.HostAllergies...), b.HostAllergies)
	u.MemberEmails = append(append([]string(nil), a.MemberEmails...), b.MemberEmails...)
	u.Genders = append(append([]string(nil), a.Genders...), b.Genders...)
	return u
}

// ApplyRequiredSplits explodes each named team into one solo unit per member.
// Split-derived units lose host capability since they cannot independently
// host.
func ApplyRequiredSplits(units []model.Unit, teams []model.Team, teamIDs []string) []model.Unit {
	if len(teamIDs) == 0 {
		return units
	}
	split := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		split[id] = true
	}
	teamByID := make(map[string]model.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}
	out := make([]model.Unit, 0, len(units))
	for _, u := range units {
		teamID := originTeamID(u)
		if teamID == "" || !split[teamID] || u.Size < 2 {
			out = append(out, u)
			continue
		}
		t, ok := teamByID[teamID]
		if ok {
			out = append(out, splitTeam(u, t)...)
		} else {
			out = append(out, splitByEmails(u, teamID)...)
		}
	}
	model.SortUnits(out)
	return out
}

func originTeamID(u model.Unit) string {
	switch v := u.Provenance.(type) {
	case model.Solo:
		return v.TeamID
	case model.Duo:
		return v.TeamID
	default:
		return ""
	}
}

func splitTeam(u model.Unit, t model.Team) []model.Unit {
	out := make([]model.Unit, 0, len(t.Members))
	for _, m := range t.Members {
		prov := model.SplitMember{OriginTeamID: t.ID, Email: m.Email}
		out = append(out, model.Unit{
			ID:               model.UnitID(prov),
			Provenance:       prov,
			Size:             1,
			Location:         t.Location,
			Address:          t.Address,
			Diet:             m.Diet,
			Allergies:        append([]string(nil), m.Allergies...),
			HostAllergies:    append([]string(nil), m.Allergies...),
			CoursePreference: u.CoursePreference,
			MemberEmails:     []string{m.Email},
			Genders:          genderOf(m),
			HostEmails:       []string{m.Email},
		})
	}
	return out
}

func genderOf(m model.Member) []string {
	if m.Gender == "" {
		return nil
	}
	return []string{m.Gender}
}

// splitByEmails degrades gracefully when the origin team record is gone:
// member-level attributes fall back to the unit's merged values.
func splitByEmails(u model.Unit, teamID string) []model.Unit {
	out := make([]model.Unit, 0, len(u.MemberEmails))
	for _, email := range u.MemberEmails {
		prov := model.SplitMember{OriginTeamID: teamID, Email: email}
		out = append(out, model.Unit{
			ID:               model.UnitID(prov),
			Provenance:       prov,
			Size:             1,
			Location:         u.Location,
			Address:          u.Address,
			Diet:             u.Diet,
			Allergies:        append([]string(nil), u.Allergies...),
			HostAllergies:    append([]string(nil), u.HostAllergies...),
			CoursePreference: u.CoursePreference,
			MemberEmails:     []string{email},
			HostEmails:       []string{email},
		})
	}
	return out
}

// ApplyMinimalSplits splits the minimum number of duo units required to make
// the unit count divisible by 3, preferring exactly-two-member teams in unit
// id order. If the required number of splits cannot be produced the input is
// returned unchanged; the transform never applies partially.
func ApplyMinimalSplits(units []model.Unit, teams []model.Team) []model.Unit {
	rem := len(units) % 3
	if rem == 0 {
		return units
	}
	// Splitting a k-member unit replaces one unit with k, growing the count
	// by k-1. The growth must land exactly on the next multiple of 3.
	needed := 3 - rem
	var exact, larger []int
	for i, u := range units {
		if _, ok := u.Provenance.(model.Duo); !ok {
			continue
		}
		if u.Size == 2 {
			exact = append(exact, i)
		} else if u.Size-1 <= needed {
			larger = append(larger, i)
		}
	}
	candidates := append(exact, larger...)
	var picked []int
	growth := 0
	for _, i := range candidates {
		if growth == needed {
			break
		}
		g := units[i].Size - 1
		if growth+g > needed {
			continue
		}
		picked = append(picked, i)
		growth += g
	}
	if growth != needed {
		return units
	}
	teamByID := make(map[string]model.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}
	chosen := make(map[int]bool, len(picked))
	for _, i := range picked {
		chosen[i] = true
	}
	out := make([]model.Unit, 0, len(units)+needed)
	for i, u := range units {
		if !chosen[i] {
			out = append(out, u)
			continue
		}
		teamID := originTeamID(u)
		if t, ok := teamByID[teamID]; ok {
			out = append(out, splitTeam(u, t)...)
		} else {
			out = append(out, splitByEmails(u, teamID)...)
		}
	}
	model.SortUnits(out)
	return out
}
