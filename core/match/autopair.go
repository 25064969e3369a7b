package match

import (
	"math"
	"sort"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// PairThreshold selects how demanding the auto-pairing heuristic is.
type PairThreshold int

const (
	// ThresholdStrict only pairs solos with a clearly positive affinity.
	ThresholdStrict PairThreshold = iota
	// ThresholdLenient accepts mildly negative affinity scores.
	ThresholdLenient
	// ThresholdNone pairs any two eligible solos regardless of score.
	ThresholdNone
)

func (t PairThreshold) minScore() float64 {
	switch t {
	case ThresholdStrict:
		return 1.0
	case ThresholdLenient:
		return -1.0
	default:
		return math.Inf(-1)
	}
}

// pairAffinity scores a candidate solo pairing. Higher is better.
func pairAffinity(a, b model.Unit) float64 {
	score := 0.0
	if len(a.Genders) > 0 && len(b.Genders) > 0 && a.Genders[0] != b.Genders[0] {
		score += 1.0
	}
	if a.CoursePreference != "" && a.CoursePreference == b.CoursePreference {
		score += 0.5
	}
	score -= dietDistance(a.Diet, b.Diet)
	score += float64(sharedAllergies(a.Allergies, b.Allergies)) * 0.5
	if a.Location != nil && b.Location != nil {
		km := routing.Haversine(*a.Location, *b.Location) / 1000
		score -= km * 0.1
	}
	return score
}

func dietDistance(a, b model.Diet) float64 {
	ranks := map[model.Diet]float64{model.DietOmnivore: 0, model.DietVegetarian: 1, model.DietVegan: 2}
	return math.Abs(ranks[a] - ranks[b])
}

func sharedAllergies(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}

// AutoPairSolos greedily pairs remaining lone solos, highest affinity first,
// no unit reused. Only pairs where at least one side can host are formed.
// Used by the optimizer only; the normal pipeline leaves lone solos as is.
func AutoPairSolos(units []model.Unit, th PairThreshold) []model.Unit {
	var solos []int
	for i, u := range units {
		if u.Size == 1 {
			solos = append(solos, i)
		}
	}
	if len(solos) < 2 {
		return units
	}
	type cand struct {
		a, b  int
		score float64
	}
	var cands []cand
	for i := 0; i < len(solos); i++ {
		for j := i + 1; j < len(solos); j++ {
			ua, ub := units[solos[i]], units[solos[j]]
			if !ua.CanHostAny && !ub.CanHostAny {
				continue
			}
			s := pairAffinity(ua, ub)
			if s < th.minScore() {
				continue
			}
			cands = append(cands, cand{a: solos[i], b: solos[j], score: s})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	used := make(map[int]bool)
	var pairs []model.Unit
	for _, c := range cands {
		if used[c.a] || used[c.b] {
			continue
		}
		used[c.a] = true
		used[c.b] = true
		ua, ub := units[c.a], units[c.b]
		prov := model.ForcedPair{EmailA: firstEmail(ua), EmailB: firstEmail(ub)}
		pairs = append(pairs, mergeUnits(ua, ub, prov))
	}
	if len(pairs) == 0 {
		return units
	}
	out := make([]model.Unit, 0, len(units))
	for i, u := range units {
		if !used[i] {
			out = append(out, u)
		}
	}
	out = append(out, pairs...)
	model.SortUnits(out)
	return out
}

func firstEmail(u model.Unit) string {
	if len(u.MemberEmails) > 0 {
		return u.MemberEmails[0]
	}
	return u.ID
}
