// Package config provides configuration loading and access for the lattice simulator.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/hcp/lattice"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Lattice    LatticeConfig      `yaml:"lattice"`
	Species    []SpeciesConfig    `yaml:"species"`
	Population []PopulationConfig `yaml:"population"`
	Run        RunConfig          `yaml:"run"`
	Telemetry  TelemetryConfig    `yaml:"telemetry"`
}

// LatticeConfig holds the voxel lattice extents.
type LatticeConfig struct {
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	Layers      int     `yaml:"layers"`
	VoxelRadius float64 `yaml:"voxel_radius"` // Passed through to geometry consumers
}

// Size returns the extents as a lattice size.
func (l LatticeConfig) Size() lattice.Size {
	return lattice.Size{Rows: l.Rows, Cols: l.Cols, Layers: l.Layers}
}

// SpeciesConfig declares one species. Species are registered in list order,
// so a substrate must name an earlier entry.
type SpeciesConfig struct {
	Name      string `yaml:"name"`
	Mode      string `yaml:"mode"`      // "track" or "count"
	Substrate string `yaml:"substrate"` // Empty = bare voxels
	Fill      bool   `yaml:"fill"`      // Occupy every bare voxel after placement (count mode only)
}

// PopulationConfig places Count particles of Species at random bare voxels.
type PopulationConfig struct {
	Species string `yaml:"species"`
	Count   int    `yaml:"count"`
}

// RunConfig holds soak run parameters.
type RunConfig struct {
	Steps         int   `yaml:"steps"`          // 0 = run until stopped
	Seed          int64 `yaml:"seed"`           // 0 = time-based
	ValidateEvery int   `yaml:"validate_every"` // Steps between invariant checks (0 = never)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowSteps int `yaml:"window_steps"`
	PerfWindow  int `yaml:"perf_window"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. A species list in the
// user file replaces the default list. If the user file sets species but not
// population, the default population is dropped too.
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
		var lists struct {
			Species    yaml.Node `yaml:"species"`
			Population yaml.Node `yaml:"population"`
		}
		if err := yaml.Unmarshal(data, &lists); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if !lists.Species.IsZero() && lists.Population.IsZero() {
			cfg.Population = nil
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every structural problem in the configuration.
func (c *Config) Validate() error {
	var errs []error
	l := c.Lattice
	sizeErr := l.Size().Validate()
	if sizeErr != nil {
		errs = append(errs, fmt.Errorf("lattice extents: %w", sizeErr))
	}
	if l.VoxelRadius <= 0 {
		errs = append(errs, fmt.Errorf("lattice.voxel_radius must be positive, got %v", l.VoxelRadius))
	}

	seen := make(map[string]SpeciesConfig, len(c.Species))
	for i, sp := range c.Species {
		switch {
		case sp.Name == "":
			errs = append(errs, fmt.Errorf("species[%d]: name is empty", i))
		case seen[sp.Name].Name != "":
			errs = append(errs, fmt.Errorf("species[%d]: duplicate name %q", i, sp.Name))
		}
		if sp.Mode != "track" && sp.Mode != "count" {
			errs = append(errs, fmt.Errorf("species %q: mode must be track or count, got %q", sp.Name, sp.Mode))
		}
		if sp.Substrate != "" && seen[sp.Substrate].Name == "" {
			errs = append(errs, fmt.Errorf("species %q: substrate %q must be declared earlier", sp.Name, sp.Substrate))
		}
		if sp.Fill && sp.Mode != "count" {
			errs = append(errs, fmt.Errorf("species %q: fill requires count mode", sp.Name))
		}
		if sp.Name != "" {
			seen[sp.Name] = sp
		}
	}

	total := 0
	for i, p := range c.Population {
		if seen[p.Species].Name == "" {
			errs = append(errs, fmt.Errorf("population[%d]: unknown species %q", i, p.Species))
		}
		if p.Count < 0 {
			errs = append(errs, fmt.Errorf("population[%d]: negative count %d", i, p.Count))
		}
		total += p.Count
	}
	if voxels := l.Size().Voxels(); sizeErr == nil && total > voxels {
		errs = append(errs, fmt.Errorf("population of %d exceeds %d voxels", total, voxels))
	}

	if c.Run.Steps < 0 {
		errs = append(errs, fmt.Errorf("run.steps must not be negative, got %d", c.Run.Steps))
	}
	if c.Telemetry.WindowSteps < 1 {
		errs = append(errs, fmt.Errorf("telemetry.window_steps must be at least 1, got %d", c.Telemetry.WindowSteps))
	}
	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
