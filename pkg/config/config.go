// Package config loads and saves the demo2rules.json project file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gwillem/demo2rules/pkg/pipeline"
	"github.com/gwillem/demo2rules/pkg/robot"
)

const DefaultConfigFile = "demo2rules.json"

// Config holds the project configuration
type Config struct {
	Segmentation pipeline.Config `json:"segmentation"`
	Output       string          `json:"output,omitempty"`
	Recorder     RecorderConfig  `json:"recorder"`
}

// RecorderConfig holds settings for recording demonstrations
type RecorderConfig struct {
	Arm           robot.ArmConfig `json:"arm"`
	Hz            int             `json:"hz,omitempty"`
	GripThreshold float64         `json:"grip_threshold,omitempty"`
	Store         string          `json:"store,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Segmentation: pipeline.DefaultConfig(),
		Output:       "rules_autogen.py",
		Recorder: RecorderConfig{
			Hz:            30,
			GripThreshold: 0,
			Store:         "demos.db",
		},
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Fields missing
// from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Segmentation.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and falls back to Default otherwise
func LoadOrDefault(path string) (*Config, error) {
	if !Exists(path) {
		return Default(), nil
	}
	return LoadConfigFrom(path)
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

// Exists returns true if the config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
