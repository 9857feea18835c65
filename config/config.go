// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Map        MapConfig        `yaml:"map"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Species    []SpeciesConfig  `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run-level settings.
type SimulationConfig struct {
	Seed  uint64 `yaml:"seed"`
	Years int    `yaml:"years"` // years to simulate when the CLI gets no -years flag
}

// MapConfig holds grid dimensions and sea-floor generation.
type MapConfig struct {
	Width        int              `yaml:"width"`
	Height       int              `yaml:"height"`
	Neighborhood string           `yaml:"neighborhood"` // moore or von_neumann
	Bathymetry   BathymetryConfig `yaml:"bathymetry"`
}

// BathymetryConfig controls procedural depth.
type BathymetryConfig struct {
	Seed        int64   `yaml:"seed"`
	Scale       float64 `yaml:"scale"`       // noise frequency per tile
	Octaves     int     `yaml:"octaves"`     // noise layers
	Persistence float64 `yaml:"persistence"` // amplitude falloff per octave
	SeaLevel    float64 `yaml:"sea_level"`   // noise level (0-1) below which a tile is water
	MaxDepth    float64 `yaml:"max_depth"`   // meters at the deepest tile
	Uniform     float64 `yaml:"uniform"`     // if < 0, every tile gets this altitude instead
}

// TelemetryConfig holds reporting settings.
type TelemetryConfig struct {
	LogStats   bool   `yaml:"log_stats"`   // log yearly species stats
	PerfWindow int    `yaml:"perf_window"` // days averaged in perf stats
	LogPerf    bool   `yaml:"log_perf"`    // log perf stats every year
	OutputDir  string `yaml:"output_dir"`  // CSV output; empty disables
	Snapshot   bool   `yaml:"snapshot"`    // save a final population snapshot to OutputDir
	Bookmarks  int    `yaml:"bookmarks"`   // years of history for bookmark detection, 0 disables
}

// SpeciesConfig describes one species and every process acting on it.
type SpeciesConfig struct {
	Name      string `yaml:"name"`
	Code      string `yaml:"code"`
	Imaginary bool   `yaml:"imaginary"`

	// Representation is biomass or abundance.
	Representation string `yaml:"representation"`

	Meristics MeristicsConfig `yaml:"meristics"`
	Initial   InitialConfig   `yaml:"initial"`

	Recruitment      RecruitmentConfig `yaml:"recruitment"`
	Aging            AgingConfig       `yaml:"aging"`
	Mortality        MortalityConfig   `yaml:"mortality"`
	Growth           GrowthConfig      `yaml:"growth"`
	Diffusion        DiffusionConfig   `yaml:"diffusion"`
	Migration        MigrationConfig   `yaml:"migration"`
	RecruitAllocator AllocatorConfig   `yaml:"recruit_allocator"`
	Reset            ResetConfig       `yaml:"reset"`
}

// MeristicsConfig gives a species' biology in one of three forms: inline
// tables, a CSV file, or stock-assessment growth parameters.
type MeristicsConfig struct {
	Weights   [][]float64 `yaml:"weights"`
	Lengths   [][]float64 `yaml:"lengths"`
	Maturity  []float64   `yaml:"maturity"`
	Mortality [][]float64 `yaml:"mortality"`

	File string `yaml:"file"`

	StockAssessment *StockAssessmentConfig `yaml:"stock_assessment"`
}

// StockAssessmentConfig mirrors von Bertalanffy growth parameters.
type StockAssessmentConfig struct {
	Male               SexConfig `yaml:"male"`
	Female             SexConfig `yaml:"female"`
	MaturityInflection float64   `yaml:"maturity_inflection"`
	MaturitySlope      float64   `yaml:"maturity_slope"`
	FecundityIntercept float64   `yaml:"fecundity_intercept"`
	FecunditySlope     float64   `yaml:"fecundity_slope"`
	VirginRecruits     float64   `yaml:"virgin_recruits"`
	Steepness          float64   `yaml:"steepness"`
	UseFecundity       bool      `yaml:"use_fecundity"`
}

// SexConfig holds growth parameters for one sex.
type SexConfig struct {
	MaxAge      int     `yaml:"max_age"`
	YoungAge    float64 `yaml:"young_age"`
	YoungLength float64 `yaml:"young_length"`
	MaxLength   float64 `yaml:"max_length"`
	K           float64 `yaml:"k"`
	WeightA     float64 `yaml:"weight_a"`
	WeightB     float64 `yaml:"weight_b"`
	Mortality   float64 `yaml:"mortality"`
}

// InitialConfig is the starting distribution.
type InitialConfig struct {
	// Capacity per tile for biomass species, scaled by Allocator weight.
	Capacity float64 `yaml:"capacity"`
	MinFill  float64 `yaml:"min_fill"` // initial biomass as a random fraction of capacity
	MaxFill  float64 `yaml:"max_fill"`

	// Abundance is the total [subdivision][bin] matrix for abundance
	// species, split over tiles by Allocator weight.
	Abundance [][]float64 `yaml:"abundance"`

	Allocator AllocatorConfig `yaml:"allocator"`
}

// RecruitmentConfig selects a recruitment process.
type RecruitmentConfig struct {
	Type           string          `yaml:"type"` // none, fixed, beverton_holt, hockey_stick, maturity_multiplier
	Rate           float64         `yaml:"rate"`
	VirginRecruits float64         `yaml:"virgin_recruits"`
	Steepness      float64         `yaml:"steepness"`
	CumulativePhi  float64         `yaml:"cumulative_phi"`
	VirginSSB      float64         `yaml:"virgin_ssb"`
	Hinge          float64         `yaml:"hinge"`
	Day            int             `yaml:"day"`
	Ratios         map[int]float64 `yaml:"ratios"`
	Spread         map[int]float64 `yaml:"spread"` // day of year -> share; empty runs once a year
	NoiseSigma     float64         `yaml:"noise_sigma"`
	Local          bool            `yaml:"local"`    // each tile recruits from its own spawners
	Interval       int             `yaml:"interval"` // days between life-cycle steps
}

// AgingConfig selects an aging process.
type AgingConfig struct {
	Type            string      `yaml:"type"` // standard or proportional
	Proportions     [][]float64 `yaml:"proportions"`
	PreserveLastAge bool        `yaml:"preserve_last_age"`
	Rounding        bool        `yaml:"rounding"`
}

// MortalityConfig selects a natural mortality process.
type MortalityConfig struct {
	Type   string  `yaml:"type"` // none, exponential, fixed_rate
	Male   float64 `yaml:"male"`
	Female float64 `yaml:"female"`
	Rate   float64 `yaml:"rate"`
}

// GrowthConfig selects biomass growth.
type GrowthConfig struct {
	Type string  `yaml:"type"` // none or logistic
	Rate float64 `yaml:"rate"`
}

// DiffusionConfig selects a daily movement process.
type DiffusionConfig struct {
	Type         string          `yaml:"type"` // none, smooth, constant_rate, age_limited, weighted
	Rate         float64         `yaml:"rate"`
	Differential float64         `yaml:"differential"`
	Limit        float64         `yaml:"limit"`
	MinBin       int             `yaml:"min_bin"`
	MaxBin       int             `yaml:"max_bin"`
	Rounding     bool            `yaml:"rounding"`
	Habitability AllocatorConfig `yaml:"habitability"`
}

// MigrationConfig biases biomass habitat in one direction. Rate 0 disables.
type MigrationConfig struct {
	Rate      float64 `yaml:"rate"`
	Direction string  `yaml:"direction"` // e.g. north, south_east
}

// AllocatorConfig selects a tile-weighting strategy.
type AllocatorConfig struct {
	Type        string        `yaml:"type"` // constant, fixed_tile, depth, noise, snapshot
	Value       float64       `yaml:"value"`
	X           int           `yaml:"x"`
	Y           int           `yaml:"y"`
	MinDepth    float64       `yaml:"min_depth"`
	MaxDepth    float64       `yaml:"max_depth"`
	Seed        int64         `yaml:"seed"`
	Scale       float64       `yaml:"scale"`
	Octaves     int           `yaml:"octaves"`
	Persistence float64       `yaml:"persistence"`
	Threshold   float64       `yaml:"threshold"`
	Bounds      *BoundsConfig `yaml:"bounds"`
}

// BoundsConfig restricts an allocator to a rectangle, inclusive.
type BoundsConfig struct {
	MinX int `yaml:"min_x"`
	MaxX int `yaml:"max_x"`
	MinY int `yaml:"min_y"`
	MaxY int `yaml:"max_y"`
}

// ResetConfig enables the yearly population reset.
type ResetConfig struct {
	Enabled        bool             `yaml:"enabled"`
	Allocator      AllocatorConfig  `yaml:"allocator"`
	RefreshPattern bool             `yaml:"refresh_pattern"`
	Targets        map[int]float64  `yaml:"targets"`
	LogNormal      *LogNormalConfig `yaml:"log_normal"`
}

// LogNormalConfig parameterises a log-normal yearly target.
type LogNormalConfig struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]int // name -> registry index
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
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Parse(cfg, data); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse overlays YAML data on cfg, then derives and validates. Only fields
// present in data are overwritten; a species list replaces the whole list.
func Parse(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	cfg.computeDerived()
	return cfg.Validate()
}

// computeDerived fills defaults and calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Map.Neighborhood == "" {
		c.Map.Neighborhood = "moore"
	}
	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i := range c.Species {
		sp := &c.Species[i]
		if sp.Code == "" {
			sp.Code = sp.Name
		}
		if sp.Representation == "" {
			sp.Representation = "biomass"
		}
		if sp.Recruitment.Type == "" {
			sp.Recruitment.Type = "none"
		}
		if sp.Recruitment.Interval == 0 {
			// pulses on a day of the year need a daily life cycle
			sp.Recruitment.Interval = 365
			if len(sp.Recruitment.Spread) > 0 || sp.Recruitment.Type == "maturity_multiplier" {
				sp.Recruitment.Interval = 1
			}
		}
		if sp.Aging.Type == "" {
			sp.Aging.Type = "standard"
		}
		if sp.Mortality.Type == "" {
			sp.Mortality.Type = "none"
		}
		if sp.Growth.Type == "" {
			sp.Growth.Type = "none"
		}
		if sp.Diffusion.Type == "" {
			sp.Diffusion.Type = "none"
		}
		if sp.Initial.Allocator.Type == "" {
			sp.Initial.Allocator = AllocatorConfig{Type: "constant", Value: 1}
		}
		if sp.Initial.MaxFill == 0 && sp.Initial.MinFill == 0 {
			sp.Initial.MinFill, sp.Initial.MaxFill = 1, 1
		}
		if sp.Reset.Enabled && sp.Reset.Allocator.Type == "" {
			sp.Reset.Allocator = AllocatorConfig{Type: "snapshot"}
		}
		c.Derived.SpeciesIndex[sp.Name] = i
	}
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
