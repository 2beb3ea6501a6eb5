package vessel

import "math"

const (
	rhoSeawater = 1025.0  // kg/m3
	rhoAir      = 1.225   // kg/m3
	nuSeawater  = 1.19e-6 // m2/s
	gravity     = 9.81    // m/s2

	knotsToMS = 0.514444

	appendageAllowance = 0.05
	// Froude number the residuary coefficient is quoted at.
	residuaryRefFroude = 0.18
	minReynolds        = 1e5
)

func froude(vMS, lpp float64) float64 { return vMS / math.Sqrt(gravity*lpp) }

// Calm-water resistance in newtons: ITTC-57 friction with a Holtrop form
// factor, an appendage allowance and a residuary term growing with Fn^4.
func calmResistance(s Specs, c Condition, vMS float64) float64 {
	if vMS <= 0 {
		return 0
	}
	q := 0.5 * rhoSeawater * vMS * vMS * c.WettedAreaM2

	re := max(vMS*s.LPPM/nuSeawater, minReynolds)
	lre := math.Log10(re) - 2
	cf := 0.075 / (lre * lre)
	k1 := 0.93 + 0.4871*(s.BeamM/s.LPPM) - 0.2156*(s.BeamM/c.DraftM) + 0.1027*c.BlockCoeff

	rf := q * cf * (1 + k1)
	rapp := appendageAllowance * rf

	fr := froude(vMS, s.LPPM) / residuaryRefFroude
	rr := q * c.ResiduaryCoeff * fr * fr * fr * fr

	return rf + rapp + rr
}

// Wind added resistance in newtons for true wind of windMS coming from
// relDeg off the bow. Longitudinal drag acts on the frontal area; a tenth of
// the lateral force shows up as drift/rudder resistance. Following wind is
// not credited as thrust.
func windResistance(c Condition, windMS, relDeg float64) float64 {
	if windMS <= 0 {
		return 0
	}
	theta := relDeg * math.Pi / 180
	q := 0.5 * rhoAir * windMS * windMS

	cx := 0.8 * math.Cos(theta)
	cy := 0.9 * math.Abs(math.Sin(theta))

	fx := q * cx * c.FrontalAreaM2
	fy := q * cy * c.LateralAreaM2
	return max(0, fx+0.1*fy)
}

// Wave added resistance in newtons for one wave system of significant height
// hM arriving relDeg off the bow (Kreitner form with a directional factor
// that falls from 1 in head seas to 0 in following seas).
func waveResistance(s Specs, c Condition, hM, relDeg, vMS float64) float64 {
	if hM <= 0 {
		return 0
	}
	theta := relDeg * math.Pi / 180
	dir := (1 + math.Cos(theta)) / 2
	base := 0.64 * rhoSeawater * gravity * s.BeamM * s.BeamM * c.BlockCoeff * hM * hM / s.LPPM
	return base * dir * c.WaveFormCoeff * (1 + froude(max(vMS, 0), s.LPPM))
}

// Specific fuel oil consumption in g/kWh at the given engine load fraction.
// The curve bottoms out at 75 % MCR.
func sfocAt(sfocMCR, load float64) float64 {
	load = min(1, max(0.15, load))
	if load < 0.75 {
		return sfocMCR * (1 + 0.15*(0.75-load))
	}
	return sfocMCR * (1 + 0.05*(load-0.75))
}
