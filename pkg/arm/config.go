package arm

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const DefaultConfigFile = "manipulator.json"

// JointConfig describes one joint: display name, inclusive position
// range, and the home position the rig starts at.
type JointConfig struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Home int    `json:"home"`
}

// Config holds the rig configuration
type Config struct {
	Port             string        `json:"port"`
	Baud             int           `json:"baud"`
	Hz               int           `json:"hz"`
	Step             int           `json:"step"`
	InitialDelayMs   int           `json:"initial_delay_ms"`
	RepeatIntervalMs int           `json:"repeat_interval_ms"`
	Joints           []JointConfig `json:"joints"`
}

// DefaultConfig returns the stock configuration for the rig as wired:
// hardware position ranges per joint and the timing the firmware was
// tuned against.
func DefaultConfig() *Config {
	return &Config{
		Port:             "/dev/ttyUSB0",
		Baud:             115200,
		Hz:               60,
		Step:             3,
		InitialDelayMs:   50,
		RepeatIntervalMs: 50,
		Joints: []JointConfig{
			{Name: "Base", Min: 0, Max: 1023, Home: 512},
			{Name: "Shoulder", Min: 512, Max: 634, Home: 512},
			{Name: "Apear_Arm", Min: 104, Max: 924, Home: 512},
			{Name: "Elbow", Min: 512, Max: 956, Home: 956},
			{Name: "Wrist", Min: 0, Max: 1023, Home: 800},
			{Name: "Hand", Min: 430, Max: 890, Home: 430},
		},
	}
}

// Validate checks the configuration before the control loop starts.
// A bad config is fatal at startup; nothing here is recoverable later.
func (c *Config) Validate() error {
	if len(c.Joints) != NumJoints {
		return fmt.Errorf("config: want exactly %d joints, got %d", NumJoints, len(c.Joints))
	}
	for i, j := range c.Joints {
		if j.Min > j.Max {
			return fmt.Errorf("joint %d (%s): min %d greater than max %d", i+1, j.Name, j.Min, j.Max)
		}
		if j.Home < j.Min || j.Home > j.Max {
			return fmt.Errorf("joint %d (%s): home %d outside range [%d, %d]", i+1, j.Name, j.Home, j.Min, j.Max)
		}
	}
	if c.Baud <= 0 {
		return fmt.Errorf("config: baud rate must be positive, got %d", c.Baud)
	}
	if c.Hz <= 0 {
		return fmt.Errorf("config: frame rate must be positive, got %d", c.Hz)
	}
	if c.Step <= 0 {
		return fmt.Errorf("config: step size must be positive, got %d", c.Step)
	}
	if c.InitialDelayMs < 0 {
		return fmt.Errorf("config: initial delay must not be negative, got %d", c.InitialDelayMs)
	}
	if c.RepeatIntervalMs < 0 {
		return fmt.Errorf("config: repeat interval must not be negative, got %d", c.RepeatIntervalMs)
	}
	return nil
}

// InitialDelay is the wait between a key press and its first repeat.
func (c *Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

// RepeatInterval is the steady cadence of repeats while a key is held.
func (c *Config) RepeatInterval() time.Duration {
	return time.Duration(c.RepeatIntervalMs) * time.Millisecond
}

// LoadConfig loads and validates configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads and validates configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
