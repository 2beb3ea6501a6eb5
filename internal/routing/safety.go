package routing

import "voyage-routing-service/internal/domain"

// margin is the relative distance of a leg's weather from the nearer danger
// threshold: 1 in flat calm, 0 at a threshold, negative beyond it.
func (c Config) margin(leg domain.LegResult) float64 {
	wave := 1 - leg.WaveHeightM/c.MaxWaveHeightM
	wind := 1 - (leg.WindSpeedKts/domain.MSToKnots)/c.MaxWindSpeedMS
	return min(wave, wind)
}

// Classify judges a simulated route against the danger thresholds:
// dangerous when any leg exceeds one, marginal when a leg comes within
// MarginalFraction of one, safe otherwise.
func (c Config) Classify(v *domain.VoyageResult) domain.SafetyVerdict {
	verdict := domain.SafetyVerdict{Status: domain.SafetySafe, MinMargin: 1}
	for _, leg := range v.Legs {
		verdict.MaxWaveHeightM = max(verdict.MaxWaveHeightM, leg.WaveHeightM)
		verdict.MaxWindSpeedMS = max(verdict.MaxWindSpeedMS, leg.WindSpeedKts/domain.MSToKnots)

		m := c.margin(leg)
		verdict.MinMargin = min(verdict.MinMargin, m)
		if m < 0 {
			verdict.DangerousLegs = append(verdict.DangerousLegs, leg.LegIndex)
		}
	}

	switch {
	case verdict.MinMargin < 0:
		verdict.Status = domain.SafetyDangerous
	case verdict.MinMargin < c.MarginalFraction:
		verdict.Status = domain.SafetyMarginal
	}
	return verdict
}
