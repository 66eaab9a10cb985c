package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// SlotTemplate defines a recurring slot that `seed-slots` expands into the
// schedule
type SlotTemplate struct {
	RRule           string `yaml:"rrule" validate:"required"`
	Name            string `yaml:"name,omitempty"`
	Type            string `yaml:"type,omitempty"`
	Start           string `yaml:"start" validate:"required"`
	DurationMinutes int    `yaml:"durationMinutes" validate:"required,min=1"`
	Hidden          bool   `yaml:"hidden,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL   string         `yaml:"databaseURL" validate:"required"`
	Timezone      string         `yaml:"timezone,omitempty"`
	ListenAddr    string         `yaml:"listenAddr,omitempty"`
	SlotTemplates []SlotTemplate `yaml:"slotTemplates,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from perma_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks that the timezone
// and every slot template are well formed
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	for i, tmpl := range cfg.SlotTemplates {
		if _, err := rrule.StrToRRule(tmpl.RRule); err != nil {
			return fmt.Errorf("invalid rrule in slotTemplates[%d]: %w", i, err)
		}
		if _, err := time.Parse("15:04", tmpl.Start); err != nil {
			return fmt.Errorf("invalid start time in slotTemplates[%d]: %w", i, err)
		}
	}

	return nil
}

// Location resolves the configured timezone, defaulting to the system's local
// timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	return loc, nil
}

// findConfigFile searches for perma_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "perma_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
