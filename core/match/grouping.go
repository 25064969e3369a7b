package match

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// prefetcher is implemented by resolvers that can warm their cache with a
// bounded-concurrency fan-out before a scoring pass.
type prefetcher interface {
	Prefetch(ctx context.Context, pairs [][2]model.Coord)
}

// phaseGroups repeatedly selects one host and two guests from the pool until
// fewer than three units remain. Candidate evaluation order is deterministic
// given the pool order, so tie-breaking (first found wins) is reproducible.
// Leftover units are returned unmatched rather than failing the run.
func phaseGroups(ctx context.Context, in scoreInput, st *runState, pool []model.Unit) ([]model.Group, []model.Unit, error) {
	var groups []model.Group
	remaining := append([]model.Unit(nil), pool...)

	for len(remaining) >= 3 {
		if err := ctx.Err(); err != nil {
			return groups, remaining, err
		}

		hosts, reuseExceeded := eligibleHosts(in, st, remaining)
		if in.weights.HostCandidateLimit > 0 && len(hosts) > in.weights.HostCandidateLimit {
			hosts = hosts[:in.weights.HostCandidateLimit]
		}
		prefetchDurations(ctx, in, remaining, hosts)

		bestScore := 0.0
		bestFound := false
		var best model.Group
		var bestHost model.Unit
		var bestIdx [3]int

		for _, hi := range hosts {
			host := remaining[hi]
			guests := guestCandidates(in, remaining, hi)
			for _, pair := range combin.Combinations(len(guests), 2) {
				ai, bi := guests[pair[0]], guests[pair[1]]
				ga, gb := remaining[ai], remaining[bi]
				score, travel, warnings := scoreCandidate(ctx, in, st, host, ga, gb)
				if !bestFound || score > bestScore {
					bestFound = true
					bestScore = score
					bestHost = host
					bestIdx = [3]int{hi, ai, bi}
					g := model.Group{
						Phase:         in.phase,
						HostUnitID:    host.ID,
						GuestUnitIDs:  []string{ga.ID, gb.ID},
						Score:         score,
						TravelSeconds: travel,
						Warnings:      warnings,
						HostAddress:   host.Address,
						HostLocation:  host.Location,
					}
					if reuseExceeded && !g.HasWarning(model.WarnHostReuse) {
						g.Warnings = append(g.Warnings, model.WarnHostReuse)
					}
					best = g
				}
			}
		}
		if !bestFound {
			break
		}
		st.commit(best, bestHost, in.event.AfterParty)
		groups = append(groups, best)
		remaining = removeIndices(remaining, bestIdx)
	}
	return groups, remaining, nil
}

// eligibleHosts returns host candidate indices in pool order, applying the
// three eligibility tiers: capability within the reuse limit, capability
// ignoring the reuse limit (degraded, flagged host_reuse), then any unit.
func eligibleHosts(in scoreInput, st *runState, pool []model.Unit) ([]int, bool) {
	var tier1, tier2 []int
	for i, u := range pool {
		if !u.CanHost(in.phase) {
			continue
		}
		tier2 = append(tier2, i)
		if st.hostUses[u.ID] < in.weights.HostLimit {
			tier1 = append(tier1, i)
		}
	}
	if len(tier1) > 0 {
		return tier1, false
	}
	if len(tier2) > 0 {
		return tier2, true
	}
	all := make([]int, len(pool))
	for i := range pool {
		all[i] = i
	}
	return all, false
}

// guestCandidates returns indices of possible guests for the host, optionally
// pre-filtered to the nearest K by haversine distance to keep the pairwise
// search tractable.
func guestCandidates(in scoreInput, pool []model.Unit, hostIdx int) []int {
	var guests []int
	for i := range pool {
		if i != hostIdx {
			guests = append(guests, i)
		}
	}
	limit := in.weights.GuestCandidateLimit
	host := pool[hostIdx]
	if limit <= 0 || len(guests) <= limit || host.Location == nil {
		return guests
	}
	type gd struct {
		idx  int
		dist float64
	}
	ds := make([]gd, 0, len(guests))
	for _, i := range guests {
		d := 0.0
		if pool[i].Location != nil {
			d = routing.Haversine(*host.Location, *pool[i].Location)
		}
		ds = append(ds, gd{idx: i, dist: d})
	}
	sort.SliceStable(ds, func(a, b int) bool { return ds[a].dist < ds[b].dist })
	out := make([]int, 0, limit)
	for _, d := range ds[:limit] {
		out = append(out, d.idx)
	}
	// Restore pool order so candidate evaluation stays deterministic.
	sort.Ints(out)
	return out
}

// prefetchDurations warms the resolver's cache with every guest→host leg the
// scoring pass may need, so the O(hosts × guests²) loop never blocks on the
// routing service.
func prefetchDurations(ctx context.Context, in scoreInput, pool []model.Unit, hosts []int) {
	pf, ok := in.resolver.(prefetcher)
	if !ok {
		return
	}
	var pairs [][2]model.Coord
	for _, hi := range hosts {
		host := pool[hi]
		if host.Location == nil {
			continue
		}
		for i, u := range pool {
			if i == hi || u.Location == nil {
				continue
			}
			pairs = append(pairs, [2]model.Coord{*u.Location, *host.Location})
		}
		if in.event.AfterParty != nil {
			pairs = append(pairs, [2]model.Coord{*host.Location, *in.event.AfterParty})
		}
	}
	pf.Prefetch(ctx, pairs)
}

func removeIndices(pool []model.Unit, idx [3]int) []model.Unit {
	drop := map[int]bool{idx[0]: true, idx[1]: true, idx[2]: true}
	out := make([]model.Unit, 0, len(pool)-3)
	for i, u := range pool {
		if !drop[i] {
			out = append(out, u)
		}
	}
	return out
}
