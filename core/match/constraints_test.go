package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
)

func soloUnit(teamID, email string, opts ...func(*model.Unit)) model.Unit {
	prov := model.Solo{TeamID: teamID}
	u := model.Unit{
		ID:           model.UnitID(prov),
		Provenance:   prov,
		Size:         1,
		Diet:         model.DietOmnivore,
		MemberEmails: []string{email},
		HostEmails:   []string{email},
	}
	for _, o := range opts {
		o(&u)
	}
	return u
}

func TestApplyForcedPairsMergesSolos(t *testing.T) {
	units := []model.Unit{
		soloUnit("s1", "a@x", func(u *model.Unit) {
			u.CanHostAny = true
			u.Diet = model.DietVegetarian
			u.Allergies = []string{"nuts"}
			u.Address = "Host St 1"
		}),
		soloUnit("s2", "b@x", func(u *model.Unit) {
			u.Allergies = []string{"gluten"}
		}),
	}
	out := ApplyForcedPairs(units, [][2]string{{"a@x", "b@x"}})
	require.Len(t, out, 1)
	u := out[0]
	assert.Equal(t, "pair:a@x+b@x", u.ID)
	assert.Equal(t, 2, u.Size)
	assert.Equal(t, model.DietVegetarian, u.Diet)
	assert.ElementsMatch(t, []string{"nuts", "gluten"}, u.Allergies)
	// Address follows the hosting side.
	assert.Equal(t, "Host St 1", u.Address)
	assert.Equal(t, []string{"a@x"}, u.HostEmails)
}

func TestApplyForcedPairsSkipsMissingAndConsumed(t *testing.T) {
	units := []model.Unit{
		soloUnit("s1", "a@x"),
		soloUnit("s2", "b@x"),
		soloUnit("s3", "c@x"),
	}
	out := ApplyForcedPairs(units, [][2]string{
		{"a@x", "b@x"},
		{"b@x", "c@x"}, // b already consumed, pair skipped
		{"c@x", "ghost@x"},
	})
	require.Len(t, out, 2)
	ids := []string{out[0].ID, out[1].ID}
	assert.Contains(t, ids, "pair:a@x+b@x")
	assert.Contains(t, ids, "s3")
}

func TestApplyForcedPairsIgnoresDuoMembers(t *testing.T) {
	prov := model.Duo{TeamID: "d1"}
	duo := model.Unit{ID: model.UnitID(prov), Provenance: prov, Size: 2, MemberEmails: []string{"a@x", "b@x"}}
	out := ApplyForcedPairs([]model.Unit{duo, soloUnit("s1", "c@x")}, [][2]string{{"a@x", "c@x"}})
	require.Len(t, out, 2)
}

func TestApplyRequiredSplitsExplodesTeam(t *testing.T) {
	teams := []model.Team{{
		ID: "d1",
		Members: []model.Member{
			{Email: "a@x", Diet: model.DietVegan, KitchenAvailable: true},
			{Email: "b@x", Allergies: []string{"nuts"}},
		},
	}}
	units, _ := BuildUnits(teams)
	out := ApplyRequiredSplits(units, teams, []string{"d1"})
	require.Len(t, out, 2)
	byEmail := map[string]model.Unit{}
	for _, u := range out {
		require.Len(t, u.MemberEmails, 1)
		byEmail[u.MemberEmails[0]] = u
	}
	assert.Equal(t, model.DietVegan, byEmail["a@x"].Diet)
	assert.Equal(t, []string{"nuts"}, byEmail["b@x"].Allergies)
	assert.Equal(t, "split:a@x", byEmail["a@x"].ID)
	// Split-derived units never carry team hosting capability.
	assert.False(t, byEmail["a@x"].CanHostAny)
}

func TestApplyRequiredSplitsLeavesOtherTeams(t *testing.T) {
	teams := []model.Team{
		{ID: "d1", Members: []model.Member{{Email: "a@x"}, {Email: "b@x"}}},
		{ID: "d2", Members: []model.Member{{Email: "c@x"}, {Email: "d@x"}}},
	}
	units, _ := BuildUnits(teams)
	out := ApplyRequiredSplits(units, teams, []string{"d2"})
	require.Len(t, out, 3)
	var kept bool
	for _, u := range out {
		if u.ID == "d1" {
			kept = true
		}
	}
	assert.True(t, kept)
}

func TestApplyMinimalSplitsPrefersExactDuos(t *testing.T) {
	teams := []model.Team{
		{ID: "d1", Members: []model.Member{{Email: "a@x"}, {Email: "b@x"}}},
		{ID: "s1", Members: []model.Member{{Email: "c@x"}}},
	}
	units, _ := BuildUnits(teams)
	require.Len(t, units, 2)
	out := ApplyMinimalSplits(units, teams)
	require.Len(t, out, 3)
	var splits int
	for _, u := range out {
		if _, ok := u.Provenance.(model.SplitMember); ok {
			splits++
		}
	}
	assert.Equal(t, 2, splits)
}

func TestApplyMinimalSplitsNoOpWhenDivisible(t *testing.T) {
	teams := []model.Team{
		{ID: "s1", Members: []model.Member{{Email: "a@x"}}},
		{ID: "s2", Members: []model.Member{{Email: "b@x"}}},
		{ID: "s3", Members: []model.Member{{Email: "c@x"}}},
	}
	units, _ := BuildUnits(teams)
	out := ApplyMinimalSplits(units, teams)
	assert.Equal(t, units, out)
}

func TestApplyMinimalSplitsAllOrNothing(t *testing.T) {
	// Four solos, no duo to split: the fixup cannot reach a multiple of 3
	// and must leave the pool untouched.
	teams := []model.Team{
		{ID: "s1", Members: []model.Member{{Email: "a@x"}}},
		{ID: "s2", Members: []model.Member{{Email: "b@x"}}},
		{ID: "s3", Members: []model.Member{{Email: "c@x"}}},
		{ID: "s4", Members: []model.Member{{Email: "d@x"}}},
	}
	units, _ := BuildUnits(teams)
	out := ApplyMinimalSplits(units, teams)
	assert.Equal(t, units, out)
}
