package model

// Warning tags a soft constraint violation on a group. Warnings are reported,
// never silently dropped.
type Warning string

const (
	WarnDietConflict    Warning = "diet_conflict"
	WarnAllergyUnserved Warning = "allergy_uncovered"
	WarnHostCannotMain  Warning = "host_cannot_main"
	WarnHostNoKitchen   Warning = "host_no_kitchen"
	WarnDuplicatePair   Warning = "duplicate_pair"
	WarnHostReuse       Warning = "host_reuse"
)

// Group is one dining table for one phase: a host unit and exactly two guest
// units.
type Group struct {
	Phase         Phase     `json:"phase"`
	HostUnitID    string    `json:"host_team_id"`
	GuestUnitIDs  []string  `json:"guest_team_ids"`
	Score         float64   `json:"score"`
	TravelSeconds float64   `json:"travel_seconds"`
	Warnings      []Warning `json:"warnings,omitempty"`
	HostAddress   string    `json:"host_address,omitempty"`
	HostLocation  *Coord    `json:"host_location,omitempty"`
}

// HasWarning reports whether the group carries the given tag.
func (g Group) HasWarning(w Warning) bool {
	for _, t := range g.Warnings {
		if t == w {
			return true
		}
	}
	return false
}

// Members returns host and guests as a single id slice.
func (g Group) Members() []string {
	out := make([]string, 0, 1+len(g.GuestUnitIDs))
	out = append(out, g.HostUnitID)
	out = append(out, g.GuestUnitIDs...)
	return out
}
