package planner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file. Omitted sections keep
// the values from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the geometry that is fatal at session construction
func (c *Config) Validate() error {
	if c.Field.CellSize <= 0 {
		return fmt.Errorf("field.cellSize must be positive")
	}
	if c.Field.Size <= 0 {
		return fmt.Errorf("field.size must be positive")
	}
	if c.Field.Size < c.Field.CellSize {
		return fmt.Errorf("field.size (%g) must be at least field.cellSize (%g)", c.Field.Size, c.Field.CellSize)
	}
	if c.Robot.Radius < 0 {
		return fmt.Errorf("robot.radius must not be negative")
	}
	if c.Robot.SafetyMargin < 0 {
		return fmt.Errorf("robot.safetyMargin must not be negative")
	}
	if c.Layout.EdgeMargin < 0 {
		return fmt.Errorf("layout.edgeMargin must not be negative")
	}
	for i, r := range c.Layout.Rects {
		if r.Width < 0 || r.Height < 0 {
			return fmt.Errorf("layout.rects[%d] has negative size", i)
		}
	}
	for i, d := range c.Layout.Disks {
		if d.Radius < 0 {
			return fmt.Errorf("layout.disks[%d] has negative radius", i)
		}
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
