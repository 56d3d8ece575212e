// Package config provides configuration loading and management for tilevec.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"tilevec/pkg/plate"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers specifies how many tiles to polygonize or rasterize concurrently
		Workers int `yaml:"workers"`

		// Tolerance is the polygon simplification tolerance in pixels
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"processing"`

	// Plate geometry parameters, supplied by the tile metadata provider
	Plate struct {
		// Name identifies the plate within the experiment
		Name string `yaml:"name"`

		// YOffset and XOffset position the plate within the experiment overview
		YOffset int `yaml:"yOffset"`
		XOffset int `yaml:"xOffset"`

		// WellHeight and WellWidth are the pixel dimensions of a single well
		WellHeight int `yaml:"wellHeight"`
		WellWidth  int `yaml:"wellWidth"`

		// VerticalDisplacement and HorizontalDisplacement correct for
		// systematic stage drift between site acquisitions, in pixels per
		// row and per column
		VerticalDisplacement   int `yaml:"verticalDisplacement"`
		HorizontalDisplacement int `yaml:"horizontalDisplacement"`
	} `yaml:"plate"`

	// Tile parameters shared by all tiles of the acquisition
	Tile struct {
		// Height and Width are the intrinsic pixel dimensions of a tile
		Height int `yaml:"height"`
		Width  int `yaml:"width"`

		// Overhangs are the cross-cycle alignment margins in pixels; all
		// zero means no alignment metadata exists
		UpperOverhang int `yaml:"upperOverhang"`
		LowerOverhang int `yaml:"lowerOverhang"`
		LeftOverhang  int `yaml:"leftOverhang"`
		RightOverhang int `yaml:"rightOverhang"`
	} `yaml:"tile"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.Tolerance = 2.0

	// Set default plate parameters
	cfg.Plate.Name = "plate00"

	// Set default tile parameters
	cfg.Tile.Height = 2160
	cfg.Tile.Width = 2560

	// Set default output parameters
	cfg.Output.Verbose = true

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

// NewPlate builds the plate described by the configuration.
func (c *Config) NewPlate() *plate.Plate {
	return &plate.Plate{
		Name:                   c.Plate.Name,
		YOffset:                c.Plate.YOffset,
		XOffset:                c.Plate.XOffset,
		WellHeight:             c.Plate.WellHeight,
		WellWidth:              c.Plate.WellWidth,
		VerticalDisplacement:   c.Plate.VerticalDisplacement,
		HorizontalDisplacement: c.Plate.HorizontalDisplacement,
	}
}

// Alignment returns the tile alignment metadata described by the
// configuration, or nil when all overhangs are zero.
func (c *Config) Alignment() *plate.Alignment {
	t := c.Tile
	if t.UpperOverhang == 0 && t.LowerOverhang == 0 && t.LeftOverhang == 0 && t.RightOverhang == 0 {
		return nil
	}
	return &plate.Alignment{
		UpperOverhang: t.UpperOverhang,
		LowerOverhang: t.LowerOverhang,
		LeftOverhang:  t.LeftOverhang,
		RightOverhang: t.RightOverhang,
	}
}
