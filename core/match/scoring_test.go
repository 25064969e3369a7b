package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

func scoringInput(phase model.Phase, w model.Weights) scoreInput {
	return scoreInput{
		event:    model.Event{ID: "ev1"},
		phase:    phase,
		weights:  w,
		resolver: routing.FastResolver{},
	}
}

func TestScoreCandidatePreferenceBonus(t *testing.T) {
	w := model.Weights{Pref: 50}
	host := soloUnit("h", "h@x", func(u *model.Unit) {
		u.CanHostAny = true
		u.CoursePreference = model.PhaseAppetizer
	})
	ga := soloUnit("a", "a@x")
	gb := soloUnit("b", "b@x")
	st := newRunState([]model.Unit{host, ga, gb}, nil)

	score, travel, warnings := scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, host, ga, gb)
	assert.InDelta(t, 50, score, 1e-9)
	assert.Zero(t, travel)
	assert.Empty(t, warnings)

	score, _, _ = scoreCandidate(context.Background(), scoringInput(model.PhaseMain, w), st, host, ga, gb)
	assert.InDelta(t, 0, score, 1e-9)
}

func TestScoreCandidateCapabilityPenalty(t *testing.T) {
	w := model.Weights{CapPenalty: 200}
	host := soloUnit("h", "h@x", func(u *model.Unit) { u.CanHostAny = true }) // kitchen, no main
	ga := soloUnit("a", "a@x")
	gb := soloUnit("b", "b@x")
	st := newRunState([]model.Unit{host, ga, gb}, nil)

	score, _, warnings := scoreCandidate(context.Background(), scoringInput(model.PhaseMain, w), st, host, ga, gb)
	assert.InDelta(t, -200, score, 1e-9)
	assert.Equal(t, []model.Warning{model.WarnHostCannotMain}, warnings)

	noKitchen := soloUnit("nk", "nk@x")
	score, _, warnings = scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, noKitchen, ga, gb)
	assert.InDelta(t, -200, score, 1e-9)
	assert.Equal(t, []model.Warning{model.WarnHostNoKitchen}, warnings)
}

func TestScoreCandidateDietAndAllergy(t *testing.T) {
	w := model.Weights{Allergy: 100}
	host := soloUnit("h", "h@x", func(u *model.Unit) { u.CanHostAny = true })
	vegan := soloUnit("v", "v@x", func(u *model.Unit) { u.Diet = model.DietVegan })
	nuts := soloUnit("n", "n@x", func(u *model.Unit) { u.Allergies = []string{"nuts", "gluten"} })
	st := newRunState([]model.Unit{host, vegan, nuts}, nil)

	score, _, warnings := scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, host, vegan, nuts)
	// One diet conflict plus two uncovered allergens.
	assert.InDelta(t, -300, score, 1e-9)
	assert.Contains(t, warnings, model.WarnDietConflict)
	assert.Contains(t, warnings, model.WarnAllergyUnserved)

	// A host sharing the allergen covers it.
	host.HostAllergies = []string{"Nuts", "gluten"}
	score, _, warnings = scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, host, vegan, nuts)
	assert.InDelta(t, -100, score, 1e-9)
	assert.NotContains(t, warnings, model.WarnAllergyUnserved)
}

func TestScoreCandidateTravelTerm(t *testing.T) {
	w := model.Weights{Dist: 0.05}
	loc := func(lat, lon float64) *model.Coord { return &model.Coord{Lat: lat, Lon: lon} }
	host := soloUnit("h", "h@x", func(u *model.Unit) {
		u.CanHostAny = true
		u.Location = loc(48.10, 11.50)
	})
	ga := soloUnit("a", "a@x", func(u *model.Unit) { u.Location = loc(48.11, 11.50) })
	gb := soloUnit("b", "b@x", func(u *model.Unit) { u.Location = loc(48.12, 11.50) })
	st := newRunState([]model.Unit{host, ga, gb}, nil)

	score, travel, _ := scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, host, ga, gb)
	require.Greater(t, travel, 0.0)
	assert.InDelta(t, -w.Dist*travel, score, 1e-9)
}

func TestScoreCandidateDuplicatePenalty(t *testing.T) {
	w := model.Weights{Dup: 1000}
	host := soloUnit("h", "h@x", func(u *model.Unit) { u.CanHostAny = true })
	ga := soloUnit("a", "a@x")
	gb := soloUnit("b", "b@x")
	st := newRunState([]model.Unit{host, ga, gb}, nil)
	st.usedPairs[unitPairKey("h", "a")] = true
	st.usedPairs[unitPairKey("a", "b")] = true

	score, _, warnings := scoreCandidate(context.Background(), scoringInput(model.PhaseAppetizer, w), st, host, ga, gb)
	assert.InDelta(t, -2000, score, 1e-9)
	assert.Equal(t, []model.Warning{model.WarnDuplicatePair}, warnings)
}

func TestRunStateCommitTracksPairsAndHosts(t *testing.T) {
	host := soloUnit("h", "h@x", func(u *model.Unit) {
		u.CanHostAny = true
		u.Location = &model.Coord{Lat: 48.1, Lon: 11.5}
	})
	st := newRunState([]model.Unit{host}, nil)
	g := model.Group{Phase: model.PhaseAppetizer, HostUnitID: "h", GuestUnitIDs: []string{"a", "b"}}
	st.commit(g, host, nil)

	assert.True(t, st.pairUsed("h", "a"))
	assert.True(t, st.pairUsed("a", "h"))
	assert.True(t, st.pairUsed("a", "b"))
	assert.False(t, st.pairUsed("h", "c"))
	assert.Equal(t, 1, st.hostUses["h"])
	assert.Equal(t, host.Location, st.prevLoc["a"])
}

func TestScoreGroupsRescoresEditedProposal(t *testing.T) {
	teams := nineHostTeams()
	in := newRunInput(t, teams)
	results, err := testEngine(9).RunAlgorithms(context.Background(), in, []string{AlgorithmGreedy}, nil)
	require.NoError(t, err)
	groups := results[0].Groups

	rescored, metrics := ScoreGroups(context.Background(), in.Event, in.Units, groups, in.Weights, routing.FastResolver{})
	require.Len(t, rescored, len(groups))
	assert.InDelta(t, results[0].Metrics.TotalScore, metrics.TotalScore, 1e-6)
	for i := range groups {
		assert.Equal(t, groups[i].HostUnitID, rescored[i].HostUnitID)
		assert.InDelta(t, groups[i].Score, rescored[i].Score, 1e-6)
	}
}

func TestScoreGroupsHandlesUnknownUnits(t *testing.T) {
	ev := model.Event{ID: "ev1"}
	groups := []model.Group{{
		Phase:        model.PhaseAppetizer,
		HostUnitID:   "ghost",
		GuestUnitIDs: []string{"a", "b"},
		Score:        123,
		Warnings:     []model.Warning{model.WarnDietConflict},
	}}
	out, _ := ScoreGroups(context.Background(), ev, nil, groups, model.DefaultWeights(), routing.FastResolver{})
	require.Len(t, out, 1)
	assert.Zero(t, out[0].Score)
	assert.Empty(t, out[0].Warnings)
}
