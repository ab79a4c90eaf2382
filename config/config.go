// Package config provides YAML-driven tunables for World: gravity,
// solver iteration count, broadphase cell size, world bounds, and store
// capacities. Grounded on the teacher's embed-defaults-then-merge-override
// pattern, generalized from a single process-wide global into a plain
// value any number of independent Worlds can load and hold.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable World accepts at construction.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	World      WorldConfig      `yaml:"world"`
	Capacities CapacitiesConfig `yaml:"capacities"`
}

// PhysicsConfig holds the solver's physical constants.
type PhysicsConfig struct {
	GravityX      float32 `yaml:"gravity_x"`
	GravityY      float32 `yaml:"gravity_y"`
	NumIterations int     `yaml:"num_iterations"`
}

// WorldConfig holds the broadphase grid and world-box dimensions.
type WorldConfig struct {
	GridCellSize float32 `yaml:"grid_cell_size"`
	Width        float32 `yaml:"width"`
	Height       float32 `yaml:"height"`
}

// CapacitiesConfig holds the fixed store capacities.
type CapacitiesConfig struct {
	MaxParticles           int `yaml:"max_particles"`
	MaxDistanceConstraints int `yaml:"max_distance_constraints"`
	MaxAngularConstraints  int `yaml:"max_angular_constraints"`
	MaxContacts            int `yaml:"max_contacts"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// The embedded defaults are checked in; a failure here means the
		// binary itself is broken, not a caller error.
		panic(fmt.Sprintf("config: embedded defaults failed to parse: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults and, if path is non-empty, merges a
// caller-supplied YAML file on top — only the fields present in the file
// override the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// MustLoad is like Load but panics on error, for callers that treat a
// missing or malformed override file as a startup failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load %q: %v", path, err))
	}
	return cfg
}
