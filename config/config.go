// Package config loads the service configuration from a JSON or YAML file
// with optional DH_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/dinehop/dinehop/core/metrics"
	"github.com/dinehop/dinehop/infra/geocode"
	"github.com/dinehop/dinehop/infra/notify"
)

type Config struct {
	API      APIConfig          `json:"api"`
	Store    StoreConfig        `json:"store"`
	Matching MatchingConfig     `json:"matching"`
	Routing  RoutingConfig      `json:"routing"`
	Geocode  geocode.Config     `json:"geocode"`
	Metrics  coremetrics.Config `json:"metrics"`
	Notify   notify.Config      `json:"notify"`
}

// Load reads the file at path, applies environment overrides (DH_ prefix,
// double underscore as separator) and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DH_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dh_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Matching.SetDefaults()
	cfg.Routing.SetDefaults()
	if err := cfg.API.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Matching.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Routing.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a runnable in-memory configuration for development.
func Default() *Config {
	cfg := &Config{}
	cfg.API.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Matching.SetDefaults()
	cfg.Routing.SetDefaults()
	return cfg
}
