package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

func pathFixture() (model.Event, []model.Unit, []model.Group) {
	ev := model.Event{ID: "ev1"}
	loc := func(lat float64) *model.Coord { return &model.Coord{Lat: lat, Lon: 11.5} }
	units := []model.Unit{
		{ID: "u1", Location: loc(48.10)},
		{ID: "u2", Location: loc(48.11)},
		{ID: "u3", Location: loc(48.12)},
	}
	groups := []model.Group{
		{Phase: model.PhaseAppetizer, HostUnitID: "u1", GuestUnitIDs: []string{"u2", "u3"}},
		{Phase: model.PhaseMain, HostUnitID: "u2", GuestUnitIDs: []string{"u1", "u3"}},
		{Phase: model.PhaseDessert, HostUnitID: "u3", GuestUnitIDs: []string{"u1", "u2"}},
	}
	return ev, units, groups
}

func TestPathsTracePhases(t *testing.T) {
	ev, units, groups := pathFixture()
	paths := Paths(ev, groups, units)
	require.Len(t, paths, 3)
	byUnit := map[string]UnitPath{}
	for _, p := range paths {
		byUnit[p.UnitID] = p
	}
	p := byUnit["u1"]
	require.Len(t, p.Points, 3)
	assert.Equal(t, model.PhaseAppetizer, p.Points[0].Phase)
	assert.Equal(t, "u1", p.Points[0].HostUnitID)
	assert.Equal(t, "u2", p.Points[1].HostUnitID)
	assert.Equal(t, "u3", p.Points[2].HostUnitID)
	require.NotNil(t, p.Points[1].Coord)
	assert.InDelta(t, 48.11, p.Points[1].Coord.Lat, 1e-9)
}

func TestPathsSkipMissingPhases(t *testing.T) {
	ev, units, groups := pathFixture()
	// Drop the dessert table; every trace shortens to two points.
	paths := Paths(ev, groups[:2], units)
	require.Len(t, paths, 3)
	for _, p := range paths {
		assert.Len(t, p.Points, 2)
	}
}

func TestPathsOmitUnitsWithoutGroups(t *testing.T) {
	ev, units, groups := pathFixture()
	units = append(units, model.Unit{ID: "u4"})
	paths := Paths(ev, groups, units)
	assert.Len(t, paths, 3)
}

func TestPathGeometryStraightSegments(t *testing.T) {
	ev, units, groups := pathFixture()
	geoms, err := PathGeometry(context.Background(), ev, groups, units, routing.FastResolver{})
	require.NoError(t, err)
	require.Len(t, geoms, 3)
	for _, g := range geoms {
		assert.Len(t, g.Polyline, 3)
	}
}

func TestPathGeometrySinglePoint(t *testing.T) {
	ev := model.Event{ID: "ev1"}
	units := []model.Unit{
		{ID: "u1", Location: &model.Coord{Lat: 48.1, Lon: 11.5}},
		{ID: "u2"},
		{ID: "u3"},
	}
	groups := []model.Group{{Phase: model.PhaseAppetizer, HostUnitID: "u1", GuestUnitIDs: []string{"u2", "u3"}}}
	geoms, err := PathGeometry(context.Background(), ev, groups, units, routing.FastResolver{})
	require.NoError(t, err)
	require.Len(t, geoms, 3)
	for _, g := range geoms {
		assert.LessOrEqual(t, len(g.Polyline), 1)
	}
}
