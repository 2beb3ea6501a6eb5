package vessel

import "fmt"

// Bounds for calibration factors, matching what a noon-report fit can
// reasonably produce.
const (
	MinCalibrationFactor = 0.5
	MaxCalibrationFactor = 3.0
)

// Calibration scales the theoretical model towards observed performance.
// A zero field means "no adjustment".
type Calibration struct {
	HullFouling float64 `json:"hull_fouling" yaml:"hull_fouling"`
	Wind        float64 `json:"wind" yaml:"wind"`
	Waves       float64 `json:"waves" yaml:"waves"`
	SFOC        float64 `json:"sfoc" yaml:"sfoc"`
}

func DefaultCalibration() Calibration {
	return Calibration{HullFouling: 1, Wind: 1, Waves: 1, SFOC: 1}
}

// Normalized replaces zero factors with 1.
func (c Calibration) Normalized() Calibration {
	fill(&c.HullFouling, 1)
	fill(&c.Wind, 1)
	fill(&c.Waves, 1)
	fill(&c.SFOC, 1)
	return c
}

func (c Calibration) Validate() error {
	n := c.Normalized()
	for name, v := range map[string]float64{
		"hull_fouling": n.HullFouling,
		"wind":         n.Wind,
		"waves":        n.Waves,
		"sfoc":         n.SFOC,
	} {
		if v < MinCalibrationFactor || v > MaxCalibrationFactor {
			return fmt.Errorf("calibration %s=%v outside [%v, %v]", name, v, MinCalibrationFactor, MaxCalibrationFactor)
		}
	}
	return nil
}
