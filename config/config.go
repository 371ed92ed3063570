// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Rules      RulesConfig      `yaml:"rules"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Grid       GridConfig       `yaml:"grid"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation domain dimensions.
// The domain is a cube spanning [-scale, scale] on each axis.
type WorldConfig struct {
	Scale float64 `yaml:"scale"`
}

// RulesConfig holds the three flocking rule radii and weights.
type RulesConfig struct {
	CohesionRadius   float64 `yaml:"cohesion_radius"`
	SeparationRadius float64 `yaml:"separation_radius"`
	AlignmentRadius  float64 `yaml:"alignment_radius"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`
	MaxSpeed float64 `yaml:"max_speed"`
}

// GridConfig holds spatial index parameters.
// Neighborhood selects the cell search policy: 27 scans the 3x3x3 block
// around the agent's cell (cell width = max rule radius), 8 scans the
// 2x2x2 block nearest the agent (cell width = 2x max rule radius).
type GridConfig struct {
	Neighborhood int `yaml:"neighborhood"`
}

// PopulationConfig holds population parameters.
type PopulationConfig struct {
	Count int `yaml:"count"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxRadius   float64 // Largest of the three rule radii
	CellWidth   float64 // Grid cell width per the neighborhood policy
	GridRes     int     // Cells per axis
	CellCount   int     // GridRes cubed
	GridMin     float64 // Minimum domain coordinate (-World.Scale)
	DT32        float32 // Physics.DT as float32
	MaxSpeed32  float32 // Physics.MaxSpeed as float32
	Scale32     float32 // World.Scale as float32
	CellWidth32 float32
	GridMin32   float32
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

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks that the configuration describes a runnable simulation.
func (c *Config) Validate() error {
	if c.World.Scale <= 0 {
		return fmt.Errorf("config: world.scale must be positive, got %v", c.World.Scale)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("config: physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Physics.MaxSpeed <= 0 {
		return fmt.Errorf("config: physics.max_speed must be positive, got %v", c.Physics.MaxSpeed)
	}
	if c.Rules.CohesionRadius <= 0 || c.Rules.SeparationRadius <= 0 || c.Rules.AlignmentRadius <= 0 {
		return fmt.Errorf("config: rule radii must be positive, got %v/%v/%v",
			c.Rules.CohesionRadius, c.Rules.SeparationRadius, c.Rules.AlignmentRadius)
	}
	if c.Grid.Neighborhood != 8 && c.Grid.Neighborhood != 27 {
		return fmt.Errorf("config: grid.neighborhood must be 8 or 27, got %d", c.Grid.Neighborhood)
	}
	maxRadius := math.Max(c.Rules.CohesionRadius, math.Max(c.Rules.SeparationRadius, c.Rules.AlignmentRadius))
	if maxRadius >= 2*c.World.Scale {
		return fmt.Errorf("config: largest rule radius %v does not fit in domain of scale %v", maxRadius, c.World.Scale)
	}
	if c.Population.Count <= 0 {
		return fmt.Errorf("config: population.count must be positive, got %d", c.Population.Count)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
// Cell width is fixed for the whole run: the largest rule radius for the
// 27-cell policy, twice that for the 8-cell policy, so that an agent's
// full interaction neighborhood is always covered by the scanned block.
func (c *Config) computeDerived() {
	maxRadius := math.Max(c.Rules.CohesionRadius, math.Max(c.Rules.SeparationRadius, c.Rules.AlignmentRadius))
	cellWidth := maxRadius
	if c.Grid.Neighborhood == 8 {
		cellWidth = 2 * maxRadius
	}
	res := int(math.Ceil(2 * c.World.Scale / cellWidth))
	if res < 1 {
		res = 1
	}

	c.Derived.MaxRadius = maxRadius
	c.Derived.CellWidth = cellWidth
	c.Derived.GridRes = res
	c.Derived.CellCount = res * res * res
	c.Derived.GridMin = -c.World.Scale
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.MaxSpeed32 = float32(c.Physics.MaxSpeed)
	c.Derived.Scale32 = float32(c.World.Scale)
	c.Derived.CellWidth32 = float32(cellWidth)
	c.Derived.GridMin32 = float32(c.Derived.GridMin)
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
