package model

// Weights tunes the grouping score and search limits. Weights are
// configuration, not protocol: any non-negative combination is valid.
type Weights struct {
	// Pref rewards a host whose stated course preference matches the phase.
	Pref float64 `json:"pref"`
	// CapPenalty penalizes a host lacking declared capability for the phase.
	CapPenalty float64 `json:"cap_penalty"`
	// Allergy penalizes diet incompatibility and uncovered guest allergens.
	Allergy float64 `json:"allergy"`
	// Dist weighs guest point-to-point travel seconds to the host.
	Dist float64 `json:"dist"`
	// Trans weighs travel from each participant's prior-phase location.
	Trans float64 `json:"trans"`
	// FinalParty weighs host distance to the after-party point (dessert only).
	FinalParty float64 `json:"final_party"`
	// PhaseOrder penalizes moving farther from the after-party as phases
	// progress. Zero disables the term.
	PhaseOrder float64 `json:"phase_order"`
	// Dup penalizes each pair that already met in a prior phase. The penalty
	// is soft: an unavoidable duplicate still forms a group, flagged.
	Dup float64 `json:"dup"`

	// HostLimit caps how often one unit hosts across the whole run.
	HostLimit int `json:"host_limit"`
	// HostCandidateLimit caps evaluated host candidates per selection.
	// Zero means unlimited.
	HostCandidateLimit int `json:"host_candidate_limit"`
	// GuestCandidateLimit caps the guest pool per host via nearest-K
	// haversine prefiltering. Zero means unlimited.
	GuestCandidateLimit int `json:"guest_candidate_limit"`
}

// DefaultWeights returns the stock weight set.
func DefaultWeights() Weights {
	return Weights{
		Pref:       50,
		CapPenalty: 200,
		Allergy:    100,
		Dist:       0.05,
		Trans:      0.02,
		FinalParty: 0.05,
		PhaseOrder: 0,
		Dup:        1000,
		HostLimit:  1,
	}
}

// Merge overlays non-zero fields of o onto w. Used to apply per-request
// overrides to the configured defaults.
func (w Weights) Merge(o Weights) Weights {
	if o.Pref != 0 {
		w.Pref = o.Pref
	}
	if o.CapPenalty != 0 {
		w.CapPenalty = o.CapPenalty
	}
	if o.Allergy != 0 {
		w.Allergy = o.Allergy
	}
	if o.Dist != 0 {
		w.Dist = o.Dist
	}
	if o.Trans != 0 {
		w.Trans = o.Trans
	}
	if o.FinalParty != 0 {
		w.FinalParty = o.FinalParty
	}
	if o.PhaseOrder != 0 {
		w.PhaseOrder = o.PhaseOrder
	}
	if o.Dup != 0 {
		w.Dup = o.Dup
	}
	if o.HostLimit != 0 {
		w.HostLimit = o.HostLimit
	}
	if o.HostCandidateLimit != 0 {
		w.HostCandidateLimit = o.HostCandidateLimit
	}
	if o.GuestCandidateLimit != 0 {
		w.GuestCandidateLimit = o.GuestCandidateLimit
	}
	return w
}
