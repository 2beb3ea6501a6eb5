package vessel

import (
	"errors"
	"fmt"
	"math"
	"voyage-routing-service/internal/domain"
)

// Below these the sea is treated as calm and no speed is lost.
const (
	NegligibleWindMS = 0.5
	NegligibleWaveM  = 0.1
)

const solveIterations = 100

// One wave system as seen from the vessel.
type WaveComponent struct {
	HeightM     float64
	RelativeDeg float64
}

// Input to the performance model. Relative directions are measured from the
// bow: 0 means the weather arrives from dead ahead.
type Input struct {
	CalmSpeedKts float64
	Laden        bool

	WindSpeedKts    float64
	WindRelativeDeg float64

	WaveHeightM     float64
	WaveRelativeDeg float64
	// Separate swell/windwave systems. When present they replace the
	// single total-height wave above.
	WaveComponents []WaveComponent

	// Current along the course in knots, positive when favourable.
	CurrentAlongKts float64

	Calibration *Calibration
}

type Performance struct {
	STWKts          float64
	SOGKts          float64
	PowerKW         float64
	FuelRateMTPerHr float64
	SpeedLossPct    float64
	LoadFraction    float64
	SFOCGPerKWh     float64

	CalmResistanceKN float64
	WindResistanceKN float64
	WaveResistanceKN float64
}

type Model struct {
	specs Specs
}

func NewModel(specs Specs) (*Model, error) {
	specs = specs.WithDefaults()
	if err := specs.Validate(); err != nil {
		return nil, fmt.Errorf("new vessel model: %w", err)
	}
	return &Model{specs: specs}, nil
}

func (m *Model) Specs() Specs { return m.specs }

// Evaluate converts calm-water speed and local conditions into speed, power
// and fuel burn.
//
// The engine is set to the power that makes the calm speed in calm water.
// Added wind/wave resistance raises that setting by PowerResponse of the
// extra demand, up to MaxServiceLoad; the remaining deficit is taken as
// speed loss, found by solving for the speed at which total resistance
// absorbs the delivered power. In negligible weather STW equals the calm
// speed exactly.
func (m *Model) Evaluate(in Input) (Performance, error) {
	if !(in.CalmSpeedKts > 0) || math.IsInf(in.CalmSpeedKts, 0) {
		return Performance{}, errors.New("evaluate performance: calm speed must be positive")
	}
	cal := DefaultCalibration()
	if in.Calibration != nil {
		cal = in.Calibration.Normalized()
	}

	s := m.specs
	cond := s.condition(in.Laden)
	eta := s.EtaP * s.EtaH
	vc := in.CalmSpeedKts * knotsToMS

	calm := func(v float64) float64 { return cal.HullFouling * calmResistance(s, cond, v) }

	windMS := in.WindSpeedKts / domain.MSToKnots
	waves := in.WaveComponents
	if len(waves) == 0 && in.WaveHeightM > 0 {
		waves = []WaveComponent{{HeightM: in.WaveHeightM, RelativeDeg: in.WaveRelativeDeg}}
	}

	rWind := cal.Wind * windResistance(cond, windMS, in.WindRelativeDeg)
	added := func(v float64) float64 {
		r := rWind
		for _, w := range waves {
			r += cal.Waves * waveResistance(s, cond, w.HeightM, w.RelativeDeg, v)
		}
		return r
	}

	rCalm := calm(vc)
	pCalm := rCalm * vc / eta // W at the shaft

	perf := Performance{CalmResistanceKN: rCalm / 1000}

	stw := vc
	power := pCalm
	if !negligible(windMS, in.WaveHeightM, waves) {
		rAdded := added(vc)
		perf.WindResistanceKN = rWind / 1000

		// Extra power the engine is allowed to give, capped by the service
		// load but never below the calm setting itself.
		wanted := pCalm + s.PowerResponse*rAdded*vc/eta
		ceiling := max(pCalm, s.MaxServiceLoad*s.MCRKW*1000)
		power = min(wanted, ceiling)

		target := power * eta
		stw = solveSpeed(func(v float64) float64 { return (calm(v) + added(v)) * v }, target, vc)
		perf.WaveResistanceKN = (added(stw) - rWind) / 1000
	}

	load := power / 1000 / s.MCRKW
	sfoc := sfocAt(s.SFOC, load) * cal.SFOC

	perf.STWKts = stw / knotsToMS
	if stw == vc {
		perf.STWKts = in.CalmSpeedKts
	}
	perf.SOGKts = perf.STWKts + in.CurrentAlongKts
	perf.PowerKW = power / 1000
	perf.LoadFraction = load
	perf.SFOCGPerKWh = sfoc
	perf.FuelRateMTPerHr = perf.PowerKW * sfoc / 1e6
	perf.SpeedLossPct = (in.CalmSpeedKts - perf.STWKts) / in.CalmSpeedKts * 100
	return perf, nil
}

// CalmFuelRate is the fuel burn at calm speed in calm water.
func (m *Model) CalmFuelRate(calmSpeedKts float64, laden bool, cal *Calibration) (float64, error) {
	p, err := m.Evaluate(Input{CalmSpeedKts: calmSpeedKts, Laden: laden, Calibration: cal})
	if err != nil {
		return 0, err
	}
	return p.FuelRateMTPerHr, nil
}

func negligible(windMS, totalWaveM float64, waves []WaveComponent) bool {
	if windMS >= NegligibleWindMS || totalWaveM >= NegligibleWaveM {
		return false
	}
	for _, w := range waves {
		if w.HeightM >= NegligibleWaveM {
			return false
		}
	}
	return true
}

// solveSpeed finds v in (0, hi] with f(v) = target by bisection. f must be
// increasing with f(0) = 0. Returns hi when f(hi) <= target.
func solveSpeed(f func(float64) float64, target, hi float64) float64 {
	if f(hi) <= target {
		return hi
	}
	lo := 0.0
	for range solveIterations {
		mid := (lo + hi) / 2
		if f(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
