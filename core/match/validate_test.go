package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
)

// perfectNight is a 9-unit resolvable design: every unit hosts once, guests
// twice, and no pair meets more than once.
func perfectNight() []model.Group {
	g := func(phase model.Phase, host string, a, b string) model.Group {
		return model.Group{Phase: phase, HostUnitID: host, GuestUnitIDs: []string{a, b}}
	}
	return []model.Group{
		g(model.PhaseAppetizer, "u1", "u2", "u3"),
		g(model.PhaseAppetizer, "u4", "u5", "u6"),
		g(model.PhaseAppetizer, "u7", "u8", "u9"),
		g(model.PhaseMain, "u2", "u4", "u9"),
		g(model.PhaseMain, "u5", "u7", "u3"),
		g(model.PhaseMain, "u8", "u1", "u6"),
		g(model.PhaseDessert, "u3", "u8", "u4"),
		g(model.PhaseDessert, "u6", "u2", "u7"),
		g(model.PhaseDessert, "u9", "u5", "u1"),
	}
}

func TestValidateAcceptsPerfectNight(t *testing.T) {
	rep := Validate(perfectNight())
	assert.True(t, rep.Valid, "errors: %v", rep.Errors)
	assert.Empty(t, rep.Errors)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, 9, rep.Statistics.Units)
	assert.Equal(t, 9, rep.Statistics.Groups)
	assert.Equal(t, 3, rep.Statistics.GroupsPerPhase[model.PhaseMain])
}

func TestValidateRejectsWrongGuestCount(t *testing.T) {
	groups := perfectNight()
	groups[0].GuestUnitIDs = []string{"u2"}
	rep := Validate(groups)
	assert.False(t, rep.Valid)
	require.NotEmpty(t, rep.Errors)
	assert.Contains(t, rep.Errors[0], "guest count")
}

func TestValidateRejectsHostAsGuest(t *testing.T) {
	groups := perfectNight()
	groups[0].GuestUnitIDs = []string{"u1", "u2"}
	rep := Validate(groups)
	assert.False(t, rep.Valid)
	found := false
	for _, e := range rep.Errors {
		if strings.Contains(e, "also a guest") {
			found = true
		}
	}
	assert.True(t, found, "errors: %v", rep.Errors)
}

func TestValidateRejectsRepeatedPair(t *testing.T) {
	groups := perfectNight()
	// u2 and u3 already met in the appetizer.
	groups[3].GuestUnitIDs = []string{"u3", "u9"}
	groups[4].GuestUnitIDs = []string{"u7", "u4"}
	rep := Validate(groups)
	assert.False(t, rep.Valid)
	found := false
	for _, e := range rep.Errors {
		if strings.Contains(e, "meet in") {
			found = true
		}
	}
	assert.True(t, found, "errors: %v", rep.Errors)
}

func TestValidateRejectsDoubleHosting(t *testing.T) {
	groups := perfectNight()
	groups[3].HostUnitID = "u1"
	rep := Validate(groups)
	assert.False(t, rep.Valid)
	found := false
	for _, e := range rep.Errors {
		if strings.Contains(e, "hosts") {
			found = true
		}
	}
	assert.True(t, found, "errors: %v", rep.Errors)
}

func TestValidateWarnsOnUnbalancedPhases(t *testing.T) {
	groups := perfectNight()[:6]
	groups = append(groups, perfectNight()[6])
	rep := Validate(groups)
	require.NotEmpty(t, rep.Warnings)
	assert.Contains(t, rep.Warnings[0], "unbalanced")
}

func TestValidateEmptyListIsValid(t *testing.T) {
	rep := Validate(nil)
	assert.True(t, rep.Valid)
	assert.Zero(t, rep.Statistics.Units)
}
