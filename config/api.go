package config

import "fmt"

// APIConfig defines the HTTP listener settings.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr"`
	// ReadTimeoutS and WriteTimeoutS bound request handling in seconds.
	ReadTimeoutS  int `json:"read_timeout_s"`
	WriteTimeoutS int `json:"write_timeout_s"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeoutS == 0 {
		c.ReadTimeoutS = 15
	}
	if c.WriteTimeoutS == 0 {
		c.WriteTimeoutS = 60
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}
