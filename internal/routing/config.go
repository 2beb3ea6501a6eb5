package routing

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the search parameters. It is fixed when the Searcher is
// built and shared read-only by concurrent searches.
type Config struct {
	// Lattice spacing and the margin added around the start/goal box.
	ResolutionDeg float64 `yaml:"resolution_deg"`
	MarginDeg     float64 `yaml:"margin_deg"`
	// Neighbours are connected up to this many cells away.
	NeighborRadius int `yaml:"neighbor_radius"`
	// Longest single edge. Zero derives it from the lattice.
	MaxLegNM float64 `yaml:"max_leg_nm"`
	// Upper bound on lattice nodes; larger areas are searched on a
	// coarser lattice.
	MaxNodes int `yaml:"max_nodes"`

	// Balanced weighting trade-off in tonnes of fuel per hour at sea.
	Lambda float64 `yaml:"lambda"`

	// Danger thresholds. Safety searches never use an edge beyond them.
	MaxWaveHeightM float64 `yaml:"max_wave_height_m"`
	MaxWindSpeedMS float64 `yaml:"max_wind_speed_ms"`
	// A leg within this fraction below a threshold is marginal.
	MarginalFraction float64 `yaml:"marginal_fraction"`

	MaxExpansions int           `yaml:"max_expansions"`
	TimeLimit     time.Duration `yaml:"time_limit"`

	VisirStepHours float64 `yaml:"visir_step_hours"`
	// Zero allows three times the direct passage time.
	MaxVisirSteps int `yaml:"max_visir_steps"`

	// Largest favourable current the A* heuristic allows for.
	CurrentAllowanceKts float64 `yaml:"current_allowance_kts"`
}

func DefaultConfig() Config {
	return Config{
		ResolutionDeg:       0.5,
		MarginDeg:           2,
		NeighborRadius:      1,
		MaxNodes:            200_000,
		Lambda:              1,
		MaxWaveHeightM:      5,
		MaxWindSpeedMS:      25,
		MarginalFraction:    0.2,
		MaxExpansions:       50_000,
		TimeLimit:           20 * time.Second,
		VisirStepHours:      3,
		CurrentAllowanceKts: 3,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ResolutionDeg == 0 {
		c.ResolutionDeg = d.ResolutionDeg
	}
	if c.MarginDeg == 0 {
		c.MarginDeg = d.MarginDeg
	}
	if c.NeighborRadius == 0 {
		c.NeighborRadius = d.NeighborRadius
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = d.MaxNodes
	}
	if c.Lambda == 0 {
		c.Lambda = d.Lambda
	}
	if c.MaxWaveHeightM == 0 {
		c.MaxWaveHeightM = d.MaxWaveHeightM
	}
	if c.MaxWindSpeedMS == 0 {
		c.MaxWindSpeedMS = d.MaxWindSpeedMS
	}
	if c.MarginalFraction == 0 {
		c.MarginalFraction = d.MarginalFraction
	}
	if c.MaxExpansions == 0 {
		c.MaxExpansions = d.MaxExpansions
	}
	if c.TimeLimit == 0 {
		c.TimeLimit = d.TimeLimit
	}
	if c.VisirStepHours == 0 {
		c.VisirStepHours = d.VisirStepHours
	}
	if c.CurrentAllowanceKts == 0 {
		c.CurrentAllowanceKts = d.CurrentAllowanceKts
	}
	return c
}

func (c Config) Validate() error {
	var errs []error
	if !(c.ResolutionDeg > 0) || c.ResolutionDeg > 10 {
		errs = append(errs, fmt.Errorf("resolution_deg must be in (0, 10], got %v", c.ResolutionDeg))
	}
	if c.MarginDeg < 0 {
		errs = append(errs, fmt.Errorf("margin_deg must not be negative, got %v", c.MarginDeg))
	}
	if c.NeighborRadius < 1 || c.NeighborRadius > 4 {
		errs = append(errs, fmt.Errorf("neighbor_radius must be in [1, 4], got %d", c.NeighborRadius))
	}
	if c.MaxLegNM < 0 {
		errs = append(errs, fmt.Errorf("max_leg_nm must not be negative, got %v", c.MaxLegNM))
	}
	if c.MaxNodes < 16 {
		errs = append(errs, fmt.Errorf("max_nodes must be at least 16, got %d", c.MaxNodes))
	}
	if c.Lambda < 0 {
		errs = append(errs, fmt.Errorf("lambda must not be negative, got %v", c.Lambda))
	}
	if !(c.MaxWaveHeightM > 0) || !(c.MaxWindSpeedMS > 0) {
		errs = append(errs, errors.New("danger thresholds must be positive"))
	}
	if c.MarginalFraction < 0 || c.MarginalFraction >= 1 {
		errs = append(errs, fmt.Errorf("marginal_fraction must be in [0, 1), got %v", c.MarginalFraction))
	}
	if c.MaxExpansions <= 0 {
		errs = append(errs, fmt.Errorf("max_expansions must be positive, got %d", c.MaxExpansions))
	}
	if c.TimeLimit <= 0 {
		errs = append(errs, fmt.Errorf("time_limit must be positive, got %s", c.TimeLimit))
	}
	if !(c.VisirStepHours > 0) {
		errs = append(errs, fmt.Errorf("visir_step_hours must be positive, got %v", c.VisirStepHours))
	}
	if c.MaxVisirSteps < 0 {
		errs = append(errs, fmt.Errorf("max_visir_steps must not be negative, got %d", c.MaxVisirSteps))
	}
	if c.CurrentAllowanceKts < 0 {
		errs = append(errs, fmt.Errorf("current_allowance_kts must not be negative, got %v", c.CurrentAllowanceKts))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("routing config: %w", err)
	}
	return nil
}

// maxLeg is the configured edge limit or one and a half lattice steps per
// unit of neighbour radius.
func (c Config) maxLeg(res float64) float64 {
	if c.MaxLegNM > 0 {
		return c.MaxLegNM
	}
	return 1.5 * res * 60 * float64(c.NeighborRadius)
}
