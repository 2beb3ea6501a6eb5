package weather

import (
	"errors"
	"fmt"
)

// Config is fixed at construction and never read from global state.
type Config struct {
	// Forecast horizon H in days from the run reference time.
	HorizonDays float64 `yaml:"horizon_days"`
	// Blend window W in days at the trailing edge of the horizon.
	BlendWindowDays float64 `yaml:"blend_window_days"`
	// Step between forecast grids when the run does not say.
	StepHours     int     `yaml:"step_hours"`
	ResolutionDeg float64 `yaml:"resolution_deg"`
	// Extra degrees fetched around each request box so that nearby
	// requests share grids.
	FetchMarginDeg  float64 `yaml:"fetch_margin_deg"`
	IncludeCurrents bool    `yaml:"include_currents"`
	CacheEntries    int     `yaml:"cache_entries"`
}

func DefaultConfig() Config {
	return Config{
		HorizonDays:     10,
		BlendWindowDays: 2,
		StepHours:       3,
		ResolutionDeg:   0.5,
		FetchMarginDeg:  2,
		CacheEntries:    DefaultCacheEntries,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.HorizonDays == 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.BlendWindowDays == 0 {
		c.BlendWindowDays = d.BlendWindowDays
	}
	if c.StepHours == 0 {
		c.StepHours = d.StepHours
	}
	if c.ResolutionDeg == 0 {
		c.ResolutionDeg = d.ResolutionDeg
	}
	if c.FetchMarginDeg == 0 {
		c.FetchMarginDeg = d.FetchMarginDeg
	}
	if c.CacheEntries == 0 {
		c.CacheEntries = d.CacheEntries
	}
	return c
}

func (c Config) Validate() error {
	var errs []error
	if !(c.HorizonDays > 0) {
		errs = append(errs, fmt.Errorf("horizon_days must be positive, got %v", c.HorizonDays))
	}
	if !(c.BlendWindowDays > 0) || c.BlendWindowDays > c.HorizonDays {
		errs = append(errs, fmt.Errorf("blend_window_days must be in (0, horizon_days], got %v", c.BlendWindowDays))
	}
	if c.StepHours <= 0 {
		errs = append(errs, fmt.Errorf("step_hours must be positive, got %d", c.StepHours))
	}
	if !(c.ResolutionDeg > 0) {
		errs = append(errs, fmt.Errorf("resolution_deg must be positive, got %v", c.ResolutionDeg))
	}
	if c.FetchMarginDeg < 0 {
		errs = append(errs, fmt.Errorf("fetch_margin_deg must not be negative, got %v", c.FetchMarginDeg))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("weather config: %w", err)
	}
	return nil
}
