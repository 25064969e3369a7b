package match

import (
	"context"

	"github.com/dinehop/dinehop/core/model"
	"github.com/dinehop/dinehop/core/routing"
)

// PathPoint is one stop of a unit's evening: the host location of its group
// in a phase.
type PathPoint struct {
	Phase      model.Phase  `json:"phase"`
	HostUnitID string       `json:"host_team_id"`
	Coord      *model.Coord `json:"coord,omitempty"`
}

// UnitPath is a unit's ordered multi-phase location trace for map rendering.
type UnitPath struct {
	UnitID string      `json:"unit_id"`
	Points []PathPoint `json:"points"`
}

// UnitGeometry carries a renderable polyline for a unit's full evening.
type UnitGeometry struct {
	UnitID   string        `json:"unit_id"`
	Polyline []model.Coord `json:"polyline"`
}

// Paths derives each unit's phase-by-phase trace from a group list. Units
// missing from a phase simply skip that point.
func Paths(ev model.Event, groups []model.Group, units []model.Unit) []UnitPath {
	byID := unitIndex(units)
	byPhase := make(map[model.Phase][]model.Group)
	for _, g := range groups {
		byPhase[g.Phase] = append(byPhase[g.Phase], g)
	}
	var out []UnitPath
	for _, u := range units {
		path := UnitPath{UnitID: u.ID}
		for _, phase := range ev.Phases() {
			for _, g := range byPhase[phase] {
				if !containsID(g.Members(), u.ID) {
					continue
				}
				pt := PathPoint{Phase: phase, HostUnitID: g.HostUnitID}
				if host, ok := byID[g.HostUnitID]; ok {
					pt.Coord = host.Location
				}
				path.Points = append(path.Points, pt)
				break
			}
		}
		if len(path.Points) > 0 {
			out = append(out, path)
		}
	}
	return out
}

// PathGeometry resolves each unit's trace into a polyline via the routing
// resolver. In fast mode this degrades to straight segments.
func PathGeometry(ctx context.Context, ev model.Event, groups []model.Group, units []model.Unit, res routing.Resolver) ([]UnitGeometry, error) {
	paths := Paths(ev, groups, units)
	out := make([]UnitGeometry, 0, len(paths))
	for _, p := range paths {
		coords := make([]model.Coord, 0, len(p.Points))
		for _, pt := range p.Points {
			if pt.Coord != nil {
				coords = append(coords, *pt.Coord)
			}
		}
		if len(coords) < 2 {
			out = append(out, UnitGeometry{UnitID: p.UnitID, Polyline: coords})
			continue
		}
		line, err := res.Geometry(ctx, coords...)
		if err != nil {
			return nil, err
		}
		out = append(out, UnitGeometry{UnitID: p.UnitID, Polyline: line})
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
