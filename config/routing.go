package config

import (
	"fmt"

	"github.com/dinehop/dinehop/infra/osrm"
)

// RoutingConfig selects how travel times are resolved.
type RoutingConfig struct {
	// Backend is "fast" (haversine math) or "osrm".
	Backend string      `json:"backend"`
	OSRM    osrm.Config `json:"osrm"`
	// SpeedKmh is the average speed for fast-mode conversions.
	SpeedKmh float64 `json:"speed_kmh"`
	// Parallelism bounds concurrent resolver calls during scoring.
	Parallelism int `json:"parallelism"`
	// CacheSize is reserved for a bounded cache; zero keeps it unbounded.
	CacheSize int `json:"cache_size"`
}

// SetDefaults applies sane defaults.
func (c *RoutingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "fast"
	}
	if c.SpeedKmh == 0 {
		c.SpeedKmh = 30
	}
	if c.Parallelism == 0 {
		c.Parallelism = 8
	}
}

// Validate checks mandatory fields.
func (c RoutingConfig) Validate() error {
	if c.Backend != "fast" && c.Backend != "osrm" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	return nil
}
