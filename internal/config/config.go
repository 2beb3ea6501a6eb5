// Package config loads the engine configuration file and holds small
// environment helpers shared by the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"voyage-routing-service/internal/routing"
	"voyage-routing-service/internal/vessel"
	"voyage-routing-service/internal/weather"

	"gopkg.in/yaml.v3"
)

// Config represents the root of the engine configuration file.
type Config struct {
	Vessel  vessel.Specs   `yaml:"vessel"`
	Weather weather.Config `yaml:"weather"`
	Routing routing.Config `yaml:"routing"`
	Service Service        `yaml:"service"`
}

type Service struct {
	// Searches run at once per optimization request; zero runs all of them.
	Parallelism int `yaml:"parallelism"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Vessel:  vessel.DefaultSpecs(),
		Weather: weather.DefaultConfig(),
		Routing: routing.DefaultConfig(),
	}
}

// Load reads the YAML file at path, fills zero values from the defaults
// and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Vessel = c.Vessel.WithDefaults()
	c.Weather = c.Weather.WithDefaults()
	c.Routing = c.Routing.WithDefaults()
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Vessel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Weather.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Routing.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Service.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("service: parallelism must not be negative, got %d", c.Service.Parallelism))
	}
	return errors.Join(errs...)
}

// Get returns the environment variable key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
