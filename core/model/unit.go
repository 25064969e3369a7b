package model

import (
	"fmt"
	"sort"
	"strings"
)

// Phase is one leg of an event night.
type Phase string

const (
	PhaseAppetizer Phase = "appetizer"
	PhaseMain      Phase = "main"
	PhaseDessert   Phase = "dessert"
)

// DefaultPhaseOrder returns the canonical phase sequence.
func DefaultPhaseOrder() []Phase {
	return []Phase{PhaseAppetizer, PhaseMain, PhaseDessert}
}

// Diet describes the strictest dietary requirement of a unit.
type Diet string

const (
	DietOmnivore   Diet = "omnivore"
	DietVegetarian Diet = "vegetarian"
	DietVegan      Diet = "vegan"
)

func dietRank(d Diet) int {
	switch d {
	case DietVegan:
		return 2
	case DietVegetarian:
		return 1
	default:
		return 0
	}
}

// StricterDiet merges two diets toward the stricter value.
func StricterDiet(a, b Diet) Diet {
	if dietRank(b) > dietRank(a) {
		return b
	}
	if a == "" {
		return b
	}
	return a
}

// CanServe reports whether a host with diet d can cook for a guest with the
// given diet. A vegan host serves everyone; a vegan guest requires a vegan
// host.
func (d Diet) CanServe(guest Diet) bool {
	return dietRank(d) >= dietRank(guest)
}

// Coord is a WGS84 coordinate.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Provenance records how a unit came to exist. Synthetic units keep explicit
// references to their origins instead of encoding them in the unit id.
type Provenance interface {
	Kind() string
}

// Solo is a single registered diner.
type Solo struct {
	TeamID string
}

// Duo is a registered two-person team.
type Duo struct {
	TeamID string
}

// ForcedPair is two solo units merged by an operator constraint.
type ForcedPair struct {
	EmailA string
	EmailB string
}

// SplitMember is one member of a team broken apart by an operator constraint.
type SplitMember struct {
	OriginTeamID string
	Email        string
}

func (Solo) Kind() string        { return "solo" }
func (Duo) Kind() string         { return "duo" }
func (ForcedPair) Kind() string  { return "forced_pair" }
func (SplitMember) Kind() string { return "split" }

// UnitID renders the stable identifier for a provenance. Synthetic units get
// the pair:/split: prefixes for operator display; membership is always
// resolved through Unit.MemberEmails, never by parsing these strings.
func UnitID(p Provenance) string {
	switch v := p.(type) {
	case Solo:
		return v.TeamID
	case Duo:
		return v.TeamID
	case ForcedPair:
		a, b := v.EmailA, v.EmailB
		if b < a {
			a, b = b, a
		}
		return fmt.Sprintf("pair:%s+%s", a, b)
	case SplitMember:
		return fmt.Sprintf("split:%s", v.Email)
	default:
		return ""
	}
}

// Unit is the smallest assignable participant: a solo diner, a duo team or a
// constraint-derived synthetic merge/split.
type Unit struct {
	ID               string
	Provenance       Provenance
	Size             int
	Location         *Coord
	Diet             Diet
	Allergies        []string
	HostAllergies    []string
	CanHostMain      bool
	CanHostAny       bool
	CoursePreference Phase // empty means none
	HostEmails       []string
	MemberEmails     []string
	Genders          []string
	Address          string
}

// CanHost reports hosting capability for the given phase.
func (u Unit) CanHost(p Phase) bool {
	if p == PhaseMain {
		return u.CanHostMain
	}
	return u.CanHostAny
}

// HasAllergy reports whether the unit's own allergy set contains the allergen.
func (u Unit) HasAllergy(allergen string) bool {
	for _, a := range u.HostAllergies {
		if strings.EqualFold(a, allergen) {
			return true
		}
	}
	return false
}

// SortUnits orders units by id for deterministic processing.
func SortUnits(units []Unit) {
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
}
