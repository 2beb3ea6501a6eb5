// Package vessel models hull resistance, propulsion and fuel burn for a
// single tanker-class vessel.
package vessel

import (
	"errors"
	"fmt"
)

// Hydrostatic and windage figures for one loading condition.
type Condition struct {
	DraftM         float64 `yaml:"draft_m"`
	DisplacementT  float64 `yaml:"displacement_t"`
	BlockCoeff     float64 `yaml:"block_coefficient"`
	WettedAreaM2   float64 `yaml:"wetted_surface_m2"`
	FrontalAreaM2  float64 `yaml:"frontal_area_m2"`
	LateralAreaM2  float64 `yaml:"lateral_area_m2"`
	ServiceSpeedKn float64 `yaml:"service_speed_kts"`
	// Residuary resistance coefficient at Froude number 0.18.
	ResiduaryCoeff float64 `yaml:"residuary_coefficient"`
	// Hull-form multiplier on wave added resistance. Light ballast bows
	// respond harder to head seas than a deep laden hull.
	WaveFormCoeff float64 `yaml:"wave_form_coefficient"`
}

// Specs describes the vessel. Zero values are replaced by the defaults of
// a 49k DWT MR product tanker.
type Specs struct {
	Name   string  `yaml:"name"`
	DWT    float64 `yaml:"dwt"`
	LOAM   float64 `yaml:"loa_m"`
	LPPM   float64 `yaml:"lpp_m"`
	BeamM  float64 `yaml:"beam_m"`
	MCRKW  float64 `yaml:"mcr_kw"`
	SFOC   float64 `yaml:"sfoc_at_mcr_g_kwh"`
	EtaP   float64 `yaml:"propulsive_efficiency"`
	EtaH   float64 `yaml:"hull_efficiency"`
	// Share of the added-resistance power demand the engine answers before
	// speed is given up, in [0, 1].
	PowerResponse float64 `yaml:"power_response"`
	// Load fraction above which extra power is not applied in weather.
	MaxServiceLoad float64 `yaml:"max_service_load"`

	Laden   Condition `yaml:"laden"`
	Ballast Condition `yaml:"ballast"`
}

func DefaultSpecs() Specs {
	return Specs{
		Name:           "MR Product Tanker",
		DWT:            49000,
		LOAM:           183,
		LPPM:           176,
		BeamM:          32,
		MCRKW:          8840,
		SFOC:           171,
		EtaP:           0.65,
		EtaH:           1.05,
		PowerResponse:  0.5,
		MaxServiceLoad: 0.9,
		Laden: Condition{
			DraftM:         11.8,
			DisplacementT:  65000,
			BlockCoeff:     0.82,
			WettedAreaM2:   7500,
			FrontalAreaM2:  450,
			LateralAreaM2:  2100,
			ServiceSpeedKn: 14.5,
			ResiduaryCoeff: 4.0e-4,
			WaveFormCoeff:  1.0,
		},
		Ballast: Condition{
			DraftM:         6.5,
			DisplacementT:  20000,
			BlockCoeff:     0.75,
			WettedAreaM2:   5200,
			FrontalAreaM2:  850,
			LateralAreaM2:  2800,
			ServiceSpeedKn: 15.0,
			ResiduaryCoeff: 3.0e-4,
			WaveFormCoeff:  1.25,
		},
	}
}

// WithDefaults fills every zero field from DefaultSpecs.
func (s Specs) WithDefaults() Specs {
	d := DefaultSpecs()
	if s.Name == "" {
		s.Name = d.Name
	}
	fill(&s.DWT, d.DWT)
	fill(&s.LOAM, d.LOAM)
	fill(&s.LPPM, d.LPPM)
	fill(&s.BeamM, d.BeamM)
	fill(&s.MCRKW, d.MCRKW)
	fill(&s.SFOC, d.SFOC)
	fill(&s.EtaP, d.EtaP)
	fill(&s.EtaH, d.EtaH)
	fill(&s.PowerResponse, d.PowerResponse)
	fill(&s.MaxServiceLoad, d.MaxServiceLoad)
	s.Laden = s.Laden.withDefaults(d.Laden)
	s.Ballast = s.Ballast.withDefaults(d.Ballast)
	return s
}

func (c Condition) withDefaults(d Condition) Condition {
	fill(&c.DraftM, d.DraftM)
	fill(&c.DisplacementT, d.DisplacementT)
	fill(&c.BlockCoeff, d.BlockCoeff)
	fill(&c.WettedAreaM2, d.WettedAreaM2)
	fill(&c.FrontalAreaM2, d.FrontalAreaM2)
	fill(&c.LateralAreaM2, d.LateralAreaM2)
	fill(&c.ServiceSpeedKn, d.ServiceSpeedKn)
	fill(&c.ResiduaryCoeff, d.ResiduaryCoeff)
	fill(&c.WaveFormCoeff, d.WaveFormCoeff)
	return c
}

func fill(v *float64, d float64) {
	if *v == 0 {
		*v = d
	}
}

func (s Specs) Validate() error {
	var errs []error
	positive := map[string]float64{
		"lpp_m":                 s.LPPM,
		"beam_m":                s.BeamM,
		"mcr_kw":                s.MCRKW,
		"sfoc_at_mcr_g_kwh":     s.SFOC,
		"propulsive_efficiency": s.EtaP,
		"hull_efficiency":       s.EtaH,
		"max_service_load":      s.MaxServiceLoad,
	}
	for name, v := range positive {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	if s.PowerResponse < 0 || s.PowerResponse > 1 {
		errs = append(errs, fmt.Errorf("power_response must be in [0, 1], got %v", s.PowerResponse))
	}
	for name, c := range map[string]Condition{"laden": s.Laden, "ballast": s.Ballast} {
		if !(c.DraftM > 0) || !(c.BlockCoeff > 0) || !(c.WettedAreaM2 > 0) {
			errs = append(errs, fmt.Errorf("%s: draft, block coefficient and wetted surface must be positive", name))
		}
		if c.FrontalAreaM2 < 0 || c.LateralAreaM2 < 0 || c.ResiduaryCoeff < 0 || c.WaveFormCoeff < 0 {
			errs = append(errs, fmt.Errorf("%s: areas and coefficients must not be negative", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("vessel specs: %w", err)
	}
	return nil
}

func (s Specs) condition(laden bool) Condition {
	if laden {
		return s.Laden
	}
	return s.Ballast
}
