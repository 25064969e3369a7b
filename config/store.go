package config

import "fmt"

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the SQLite database location; ignored for memory.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "dinehop.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required for the sqlite backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
}
