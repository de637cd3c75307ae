// Package config provides configuration loading and management for pbsdailyqa.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"pbsdailyqa/pkg/report"
	"pbsdailyqa/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many exports a batch analyzes at once; 0 uses
		// all available cores
		NumCores int `yaml:"numCores"`

		// Extensions selects the export files of a batch directory
		Extensions []string `yaml:"extensions"`
	} `yaml:"processing"`

	// Upload store parameters
	Upload struct {
		// Root is the directory holding one subdirectory per test list instance
		Root string `yaml:"root"`
	} `yaml:"upload"`

	// Review band limits
	Tolerance struct {
		// PositionPass and PositionTolerance are absolute center deviations in mm
		PositionPass      float64 `yaml:"positionPass"`
		PositionTolerance float64 `yaml:"positionTolerance"`

		// SizePassPercent and SizeTolerancePercent are FWHM deviations in percent
		SizePassPercent      float64 `yaml:"sizePassPercent"`
		SizeTolerancePercent float64 `yaml:"sizeTolerancePercent"`
	} `yaml:"tolerance"`

	// Output parameters
	Output struct {
		// Format is one of json, yaml, summary or xlsx
		Format string `yaml:"format"`

		// Pretty indents JSON output
		Pretty bool `yaml:"pretty"`

		// Profiles includes axis profiles and spot regions in documents
		Profiles bool `yaml:"profiles"`
	} `yaml:"output"`

	// Logging parameters
	Log struct {
		// Level is one of debug, info, warn or error
		Level string `yaml:"level"`

		// JSON switches from console output to JSON lines
		JSON bool `yaml:"json"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Extensions = []string{".txt"}

	cfg.Upload.Root = "uploads"

	tol := visualization.DefaultTolerances()
	cfg.Tolerance.PositionPass = tol.PositionPass
	cfg.Tolerance.PositionTolerance = tol.PositionTolerance
	cfg.Tolerance.SizePassPercent = tol.SizePassPercent
	cfg.Tolerance.SizeTolerancePercent = tol.SizeTolerancePercent

	cfg.Output.Format = string(report.FormatSummary)
	cfg.Output.Pretty = false
	cfg.Output.Profiles = false

	cfg.Log.Level = "info"
	cfg.Log.JSON = false

	return cfg
}

// Tolerances returns the review band limits
func (c *Config) Tolerances() visualization.Tolerances {
	return visualization.Tolerances{
		PositionPass:         c.Tolerance.PositionPass,
		PositionTolerance:    c.Tolerance.PositionTolerance,
		SizePassPercent:      c.Tolerance.SizePassPercent,
		SizeTolerancePercent: c.Tolerance.SizeTolerancePercent,
	}
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}

	if c.Processing.NumCores < 0 {
		return fmt.Errorf("processing.numCores must not be negative, got %d", c.Processing.NumCores)
	}

	t := c.Tolerance
	if t.PositionPass < 0 || t.PositionTolerance < t.PositionPass {
		return fmt.Errorf("tolerance: position limits must satisfy 0 <= positionPass <= positionTolerance, got %g and %g",
			t.PositionPass, t.PositionTolerance)
	}
	if t.SizePassPercent < 0 || t.SizeTolerancePercent < t.SizePassPercent {
		return fmt.Errorf("tolerance: size limits must satisfy 0 <= sizePassPercent <= sizeTolerancePercent, got %g and %g",
			t.SizePassPercent, t.SizeTolerancePercent)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Fields missing from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
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

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
