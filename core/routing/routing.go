// Package routing resolves travel times and geometries between coordinates.
// A pure-math haversine resolver is always available ("fast mode"); precise
// resolvers call an external routing service and must never abort a matching
// run on failure.
package routing

import (
	"context"
	"math"

	"github.com/dinehop/dinehop/core/model"
)

// DefaultSpeedKmh is the average speed used to convert haversine distance
// into travel seconds in fast mode.
const DefaultSpeedKmh = 30.0

// Resolver computes travel figures along an ordered coordinate sequence.
type Resolver interface {
	// Duration returns travel seconds along the sequence.
	Duration(ctx context.Context, coords ...model.Coord) (float64, error)
	// Geometry returns a renderable polyline for the sequence.
	Geometry(ctx context.Context, coords ...model.Coord) ([]model.Coord, error)
}

// Haversine returns the great-circle distance between two coordinates in
// meters.
func Haversine(a, b model.Coord) float64 {
	const earthRadiusM = 6371000.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FastResolver converts haversine distance into seconds at a fixed average
// speed. It never fails and needs no network.
type FastResolver struct {
	SpeedKmh float64
}

func (r FastResolver) speed() float64 {
	if r.SpeedKmh > 0 {
		return r.SpeedKmh
	}
	return DefaultSpeedKmh
}

// Duration implements Resolver.
func (r FastResolver) Duration(_ context.Context, coords ...model.Coord) (float64, error) {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += Haversine(coords[i-1], coords[i]) / (r.speed() / 3.6)
	}
	return total, nil
}

// Geometry implements Resolver with straight segments.
func (r FastResolver) Geometry(_ context.Context, coords ...model.Coord) ([]model.Coord, error) {
	out := make([]model.Coord, len(coords))
	copy(out, coords)
	return out, nil
}
