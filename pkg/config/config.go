// Package config provides configuration loading and management for shollgo.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"shollgo/pkg/arbor"
	"shollgo/pkg/polar"
	"shollgo/pkg/sampler"
)

// Config represents the analysis configuration loaded from YAML
type Config struct {
	// Sampling parameters
	Sampling struct {
		// StepSize is the shell width for fixed-step sampling; 0 selects
		// continuous sampling with one entry per node distance
		StepSize float64 `yaml:"stepSize"`

		// Center selects the center strategy: any, undefined, soma,
		// soma-any, axon, dendrite, apical-dendrite or custom
		Center string `yaml:"center"`

		// SkipSomaticSegments ignores segments leaving a single-point soma root
		SkipSomaticSegments bool `yaml:"skipSomaticSegments"`

		// IncludeVolume records frustum-based cable volume per entry
		IncludeVolume bool `yaml:"includeVolume"`

		// GroupingScale is the fraction of the mean radius used as the
		// continuous-mode component-grouping threshold
		GroupingScale float64 `yaml:"groupingScale"`
	} `yaml:"sampling"`

	// Angular analysis parameters
	Polar struct {
		// AngleStep is the angular bin width in degrees; must evenly divide 360
		AngleStep float64 `yaml:"angleStep"`

		// DataMode selects the distributed quantity: intersections or length
		DataMode string `yaml:"dataMode"`

		// AllowUniformFallback spreads entries without located intersection
		// points evenly across all angular bins
		AllowUniformFallback bool `yaml:"allowUniformFallback"`
	} `yaml:"polar"`

	// Peak detection parameters
	Peaks struct {
		// MaxPeaks caps the number of reported peaks; 0 means no cap
		MaxPeaks int `yaml:"maxPeaks"`

		// MinProminence overrides the detection threshold; negative values
		// select the data-driven threshold
		MinProminence float64 `yaml:"minProminence"`
	} `yaml:"peaks"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default sampling parameters
	cfg.Sampling.StepSize = 0
	cfg.Sampling.Center = "any"
	cfg.Sampling.SkipSomaticSegments = false
	cfg.Sampling.IncludeVolume = false
	cfg.Sampling.GroupingScale = sampler.DefaultGroupingScale

	// Set default angular parameters
	cfg.Polar.AngleStep = polar.DefaultAngleStep
	cfg.Polar.DataMode = "intersections"
	cfg.Polar.AllowUniformFallback = false

	// Set default peak parameters
	cfg.Peaks.MaxPeaks = 0
	cfg.Peaks.MinProminence = polar.AutoProminence

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// CenterStrategy maps the configured center name to a strategy
func (c *Config) CenterStrategy() (arbor.CenterStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Sampling.Center)) {
	case "", "any":
		return arbor.RootNodesAny, nil
	case "undefined":
		return arbor.RootNodesUndefined, nil
	case "soma":
		return arbor.RootNodesSoma, nil
	case "soma-any":
		return arbor.RootNodesSomaAny, nil
	case "axon":
		return arbor.RootNodesAxon, nil
	case "dendrite":
		return arbor.RootNodesDendrite, nil
	case "apical-dendrite":
		return arbor.RootNodesApicalDendrite, nil
	case "custom":
		return arbor.RootNodesCustom, nil
	default:
		return 0, fmt.Errorf("unrecognized center strategy %q", c.Sampling.Center)
	}
}

// PolarDataMode maps the configured data mode name to a polar data mode
func (c *Config) PolarDataMode() (polar.DataMode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Polar.DataMode)) {
	case "", "intersections":
		return polar.Intersections, nil
	case "length":
		return polar.Length, nil
	default:
		return 0, fmt.Errorf("unrecognized data mode %q", c.Polar.DataMode)
	}
}
