package match

import (
	"context"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// pairKey builds an order-independent key for a unit pair.
func unitPairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// runState carries the cross-phase bookkeeping of one matching run.
// usedPairs accumulates monotonically: no phase forgets a prior pairing.
type runState struct {
	usedPairs     map[[2]string]bool
	hostUses      map[string]int
	prevLoc       map[string]*model.Coord
	prevPartyDist map[string]float64
}

func newRunState(units []model.Unit, party *model.Coord) *runState {
	st := &runState{
		usedPairs:     make(map[[2]string]bool),
		hostUses:      make(map[string]int),
		prevLoc:       make(map[string]*model.Coord, len(units)),
		prevPartyDist: make(map[string]float64, len(units)),
	}
	for _, u := range units {
		st.prevLoc[u.ID] = u.Location
		if party != nil && u.Location != nil {
			st.prevPartyDist[u.ID] = routing.Haversine(*u.Location, *party)
		}
	}
	return st
}

func (st *runState) pairUsed(a, b string) bool {
	return st.usedPairs[unitPairKey(a, b)]
}

// commit records a selected group: met pairs, host use and per-unit location
// trail for the transition terms of the next phase.
func (st *runState) commit(g model.Group, host model.Unit, party *model.Coord) {
	ids := g.Members()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			st.usedPairs[unitPairKey(ids[i], ids[j])] = true
		}
	}
	st.hostUses[g.HostUnitID]++
	for _, id := range ids {
		st.prevLoc[id] = host.Location
		if party != nil && host.Location != nil {
			st.prevPartyDist[id] = routing.Haversine(*host.Location, *party)
		}
	}
}

// scoreInput bundles the fixed inputs of one phase's scoring pass.
type scoreInput struct {
	event    model.Event
	phase    model.Phase
	lastLeg  bool // true for the final phase, enables the after-party term
	weights  model.Weights
	resolver routing.Resolver
}

// scoreCandidate evaluates one (host, guestA, guestB) triple. It returns the
// additive score, the summed guest travel seconds and the warning tags the
// group would carry if selected.
func scoreCandidate(ctx context.Context, in scoreInput, st *runState, host, ga, gb model.Unit) (float64, float64, []model.Warning) {
	w := in.weights
	score := 0.0
	var warnings []model.Warning

	if host.CoursePreference != "" && host.CoursePreference == in.phase {
		score += w.Pref
	}
	if !host.CanHost(in.phase) {
		score -= w.CapPenalty
		if in.phase == model.PhaseMain && host.CanHostAny {
			warnings = append(warnings, model.WarnHostCannotMain)
		} else {
			warnings = append(warnings, model.WarnHostNoKitchen)
		}
	}

	for _, g := range []model.Unit{ga, gb} {
		if !host.Diet.CanServe(g.Diet) {
			score -= w.Allergy
			warnings = appendWarning(warnings, model.WarnDietConflict)
		}
		uncovered := uncoveredAllergens(host, g)
		if uncovered > 0 {
			score -= w.Allergy * float64(uncovered)
			warnings = appendWarning(warnings, model.WarnAllergyUnserved)
		}
	}

	travel := 0.0
	if host.Location != nil {
		for _, g := range []model.Unit{ga, gb} {
			if g.Location == nil {
				continue
			}
			secs := resolveSeconds(ctx, in.resolver, *g.Location, *host.Location)
			travel += secs
		}
		score -= w.Dist * travel

		if w.Trans > 0 {
			trans := 0.0
			for _, u := range []model.Unit{host, ga, gb} {
				prev := st.prevLoc[u.ID]
				if prev == nil {
					continue
				}
				trans += resolveSeconds(ctx, in.resolver, *prev, *host.Location)
			}
			score -= w.Trans * trans
		}

		if in.lastLeg && in.event.AfterParty != nil && w.FinalParty > 0 {
			score -= w.FinalParty * resolveSeconds(ctx, in.resolver, *host.Location, *in.event.AfterParty)
		}

		if w.PhaseOrder > 0 && in.event.AfterParty != nil {
			drift := 0.0
			now := routing.Haversine(*host.Location, *in.event.AfterParty)
			for _, u := range []model.Unit{host, ga, gb} {
				prev, ok := st.prevPartyDist[u.ID]
				if !ok {
					continue
				}
				if d := now - prev; d > 0 {
					drift += d
				}
			}
			score -= w.PhaseOrder * drift
		}
	}

	dups := 0
	ids := []string{host.ID, ga.ID, gb.ID}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if st.pairUsed(ids[i], ids[j]) {
				dups++
			}
		}
	}
	if dups > 0 {
		score -= w.Dup * float64(dups)
		warnings = appendWarning(warnings, model.WarnDuplicatePair)
	}

	return score, travel, warnings
}

// resolveSeconds never fails: resolver errors (other than cancellation) are
// absorbed by the resolver's own fallback, and a cancelled context yields 0,
// which the caller's cancellation check makes irrelevant.
func resolveSeconds(ctx context.Context, res routing.Resolver, from, to model.Coord) float64 {
	secs, err := res.Duration(ctx, from, to)
	if err != nil {
		return 0
	}
	return secs
}

func uncoveredAllergens(host, guest model.Unit) int {
	n := 0
	for _, a := range guest.Allergies {
		if !host.HasAllergy(a) {
			n++
		}
	}
	return n
}

func appendWarning(ws []model.Warning, w model.Warning) []model.Warning {
	for _, x := range ws {
		if x == w {
			return ws
		}
	}
	return append(ws, w)
}

// ScoreGroups re-derives score, travel and warnings for an externally edited
// group list, walking phases in event order so duplicate-pair accounting
// matches a fresh run. Group order within a phase is preserved.
func ScoreGroups(ctx context.Context, ev model.Event, units []model.Unit, groups []model.Group, w model.Weights, res routing.Resolver) ([]model.Group, model.Metrics) {
	byID := unitIndex(units)
	st := newRunState(units, ev.AfterParty)
	phases := ev.Phases()
	out := make([]model.Group, 0, len(groups))
	for i, phase := range phases {
		in := scoreInput{event: ev, phase: phase, lastLeg: i == len(phases)-1, weights: w, resolver: res}
		for _, g := range groups {
			if g.Phase != phase {
				continue
			}
			host, ok := byID[g.HostUnitID]
			if !ok || len(g.GuestUnitIDs) != 2 {
				g.Warnings = nil
				g.Score = 0
				out = append(out, g)
				continue
			}
			ga, okA := byID[g.GuestUnitIDs[0]]
			gb, okB := byID[g.GuestUnitIDs[1]]
			if !okA || !okB {
				out = append(out, g)
				continue
			}
			score, travel, warnings := scoreCandidate(ctx, in, st, host, ga, gb)
			g.Score = score
			g.TravelSeconds = travel
			g.Warnings = warnings
			g.HostAddress = host.Address
			g.HostLocation = host.Location
			st.commit(g, host, ev.AfterParty)
			out = append(out, g)
		}
	}
	metrics := ComputeMetrics(out, units, UnitEmails(units), nil)
	return out, metrics
}

func unitIndex(units []model.Unit) map[string]model.Unit {
	byID := make(map[string]model.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	return byID
}
