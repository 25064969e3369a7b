package config

import (
	"fmt"

	"github.com/dinehop/dinehop/core/model"
)

// MatchingConfig carries the default scoring weights and search limits. Each
// run may override individual weights through the start request.
type MatchingConfig struct {
	Weights model.Weights `json:"weights"`
	// Seed fixes the shuffle sequence for reproducible runs.
	Seed int64 `json:"seed"`
	// OptimizeAttempts bounds the optimizer reruns per request.
	OptimizeAttempts int `json:"optimize_attempts"`
	// OptimizeParallel runs optimizer attempts concurrently.
	OptimizeParallel bool `json:"optimize_parallel"`
}

// SetDefaults applies the stock weight set where unset.
func (c *MatchingConfig) SetDefaults() {
	c.Weights = model.DefaultWeights().Merge(c.Weights)
	if c.OptimizeAttempts == 0 {
		c.OptimizeAttempts = 3
	}
}

// Validate checks the limits are usable.
func (c MatchingConfig) Validate() error {
	if c.Weights.HostLimit < 1 {
		return fmt.Errorf("host_limit must be at least 1")
	}
	if c.OptimizeAttempts < 1 {
		return fmt.Errorf("optimize_attempts must be at least 1")
	}
	return nil
}
