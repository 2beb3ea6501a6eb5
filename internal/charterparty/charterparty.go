// Package charterparty analyses simulated or reported voyage legs against the
// weather clauses of a time charter: Beaufort classification, good-weather
// day counts, warranted speed and consumption, and off-hire periods.
package charterparty

import (
	"fmt"
	"math"
	"voyage-routing-service/internal/domain"
)

type BeaufortEntry struct {
	Force       int
	WindMinKts  float64
	WindMaxKts  float64
	WaveHeightM float64
	Description string
}

// Upper wind bounds are inclusive; force 12 is open-ended.
var beaufortScale = []BeaufortEntry{
	{Force: 0, WindMinKts: 0, WindMaxKts: 1, WaveHeightM: 0, Description: "Calm"},
	{Force: 1, WindMinKts: 1, WindMaxKts: 3, WaveHeightM: 0.1, Description: "Light air"},
	{Force: 2, WindMinKts: 4, WindMaxKts: 6, WaveHeightM: 0.3, Description: "Light breeze"},
	{Force: 3, WindMinKts: 7, WindMaxKts: 10, WaveHeightM: 0.6, Description: "Gentle breeze"},
	{Force: 4, WindMinKts: 11, WindMaxKts: 16, WaveHeightM: 1, Description: "Moderate breeze"},
	{Force: 5, WindMinKts: 17, WindMaxKts: 21, WaveHeightM: 2, Description: "Fresh breeze"},
	{Force: 6, WindMinKts: 22, WindMaxKts: 27, WaveHeightM: 3, Description: "Strong breeze"},
	{Force: 7, WindMinKts: 28, WindMaxKts: 33, WaveHeightM: 4, Description: "Near gale"},
	{Force: 8, WindMinKts: 34, WindMaxKts: 40, WaveHeightM: 5.5, Description: "Gale"},
	{Force: 9, WindMinKts: 41, WindMaxKts: 47, WaveHeightM: 7, Description: "Severe gale"},
	{Force: 10, WindMinKts: 48, WindMaxKts: 55, WaveHeightM: 9, Description: "Storm"},
	{Force: 11, WindMinKts: 56, WindMaxKts: 63, WaveHeightM: 11.5, Description: "Violent storm"},
	{Force: 12, WindMinKts: 64, WindMaxKts: math.Inf(1), WaveHeightM: 14, Description: "Hurricane"},
}

// BeaufortScale returns a copy of the reference table.
func BeaufortScale() []BeaufortEntry {
	out := make([]BeaufortEntry, len(beaufortScale))
	copy(out, beaufortScale)
	return out
}

// ClassifyBeaufort maps a wind speed in knots to a force from 0 to 12.
// Speeds between two bands fall into the higher one; negative or NaN speeds
// are calm.
func ClassifyBeaufort(windKts float64) int {
	if !(windKts >= 0) {
		return 0
	}
	for _, e := range beaufortScale {
		if windKts <= e.WindMaxKts {
			return e.Force
		}
	}
	return 12
}

// Leg is the weather and performance record of one leg, as simulated or as
// reported from the vessel.
type Leg struct {
	WindSpeedKts float64
	WaveHeightM  float64
	// Speed of the current in knots.
	CurrentKts float64
	TimeHours  float64
	DistanceNM float64
	SOGKts     float64
	FuelMT     float64
}

// LegsFromVoyage takes the legs of a simulated voyage. The current is what
// separates speed over ground from speed through water along the track.
func LegsFromVoyage(v *domain.VoyageResult) []Leg {
	if v == nil {
		return nil
	}
	out := make([]Leg, len(v.Legs))
	for i, l := range v.Legs {
		out[i] = Leg{
			WindSpeedKts: l.WindSpeedKts,
			WaveHeightM:  l.WaveHeightM,
			CurrentKts:   math.Abs(l.SOGKts - l.STWKts),
			TimeHours:    l.TimeHours,
			DistanceNM:   l.DistanceNM,
			SOGKts:       l.SOGKts,
			FuelMT:       l.FuelMT,
		}
	}
	return out
}

// GoodWeather defines a good-weather leg: Beaufort force at most
// MaxBeaufort and, when set, waves and current no worse than the limits.
type GoodWeather struct {
	MaxBeaufort    int
	MaxWaveHeightM *float64
	MaxCurrentKts  *float64
}

// DefaultGoodWeather is the usual "up to and including Beaufort 4" clause.
func DefaultGoodWeather() GoodWeather { return GoodWeather{MaxBeaufort: 4} }

func (g GoodWeather) Validate() error {
	if g.MaxBeaufort < 0 || g.MaxBeaufort > 12 {
		return &domain.ValidationError{Field: "bf_threshold", Message: fmt.Sprintf("beaufort threshold %d outside [0, 12]", g.MaxBeaufort)}
	}
	if g.MaxWaveHeightM != nil && !(*g.MaxWaveHeightM >= 0) {
		return &domain.ValidationError{Field: "wave_threshold_m", Message: "wave threshold must not be negative"}
	}
	if g.MaxCurrentKts != nil && !(*g.MaxCurrentKts >= 0) {
		return &domain.ValidationError{Field: "current_threshold_kts", Message: "current threshold must not be negative"}
	}
	return nil
}

// Good reports whether a leg qualifies, with its Beaufort force.
func (g GoodWeather) Good(l Leg) (bool, int) {
	bf := ClassifyBeaufort(l.WindSpeedKts)
	if bf > g.MaxBeaufort {
		return false, bf
	}
	if g.MaxWaveHeightM != nil && l.WaveHeightM > *g.MaxWaveHeightM {
		return false, bf
	}
	if g.MaxCurrentKts != nil && l.CurrentKts > *g.MaxCurrentKts {
		return false, bf
	}
	return true, bf
}

type LegAssessment struct {
	LegIndex    int
	Leg         Leg
	Beaufort    int
	GoodWeather bool
}

type GoodWeatherResult struct {
	Criteria        GoodWeather
	TotalDays       float64
	GoodWeatherDays float64
	BadWeatherDays  float64
	GoodWeatherPct  float64
	Legs            []LegAssessment
}

// CountGoodWeatherDays splits the sailing time into good and bad weather.
func CountGoodWeatherDays(legs []Leg, g GoodWeather) (*GoodWeatherResult, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	res := &GoodWeatherResult{Criteria: g, Legs: make([]LegAssessment, 0, len(legs))}

	var good, bad float64
	for i, l := range legs {
		ok, bf := g.Good(l)
		if ok {
			good += l.TimeHours
		} else {
			bad += l.TimeHours
		}
		res.Legs = append(res.Legs, LegAssessment{LegIndex: i, Leg: l, Beaufort: bf, GoodWeather: ok})
	}

	total := good + bad
	res.TotalDays = total / 24
	res.GoodWeatherDays = good / 24
	res.BadWeatherDays = bad / 24
	if total > 0 {
		res.GoodWeatherPct = good / total * 100
	}
	return res, nil
}

// Warranty is the speed and consumption the owner warrants in good weather.
// Tolerances are percentages ("about" clauses) of up to 20.
type Warranty struct {
	SpeedKts                float64
	ConsumptionMTDay        float64
	MaxBeaufort             int
	SpeedTolerancePct       float64
	ConsumptionTolerancePct float64
}

func (w Warranty) Validate() error {
	switch {
	case !(w.SpeedKts > 0):
		return &domain.ValidationError{Field: "warranted_speed_kts", Message: "warranted speed must be positive"}
	case !(w.ConsumptionMTDay > 0):
		return &domain.ValidationError{Field: "warranted_consumption_mt_day", Message: "warranted consumption must be positive"}
	case w.MaxBeaufort < 0 || w.MaxBeaufort > 12:
		return &domain.ValidationError{Field: "bf_threshold", Message: fmt.Sprintf("beaufort threshold %d outside [0, 12]", w.MaxBeaufort)}
	case !(w.SpeedTolerancePct >= 0 && w.SpeedTolerancePct <= 20):
		return &domain.ValidationError{Field: "speed_tolerance_pct", Message: "speed tolerance outside [0, 20]"}
	case !(w.ConsumptionTolerancePct >= 0 && w.ConsumptionTolerancePct <= 20):
		return &domain.ValidationError{Field: "consumption_tolerance_pct", Message: "consumption tolerance outside [0, 20]"}
	}
	return nil
}

type WarrantyResult struct {
	Warranty Warranty

	AchievedSpeedKts float64
	// Achieved minus warranted; negative is a shortfall.
	SpeedMarginKts float64
	SpeedCompliant bool

	AchievedConsumptionMTDay float64
	// Warranted minus achieved; negative is overconsumption.
	ConsumptionMarginMT  float64
	ConsumptionCompliant bool

	GoodWeatherHours float64
	TotalHours       float64
	LegsAssessed     int
	LegsGoodWeather  int
	Legs             []LegAssessment
}

// VerifyWarranty measures performance over the good-weather legs only.
// Speed is distance over time on those legs and consumption is their fuel
// per day. With no good-weather legs the achieved figures are zero, so the
// speed warranty fails and the consumption warranty holds.
func VerifyWarranty(legs []Leg, w Warranty) (*WarrantyResult, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	g := GoodWeather{MaxBeaufort: w.MaxBeaufort}
	res := &WarrantyResult{Warranty: w, LegsAssessed: len(legs), Legs: make([]LegAssessment, 0, len(legs))}

	var dist, hours, fuel float64
	for i, l := range legs {
		ok, bf := g.Good(l)
		res.TotalHours += l.TimeHours
		if ok {
			dist += l.DistanceNM
			hours += l.TimeHours
			fuel += l.FuelMT
			res.LegsGoodWeather++
		}
		res.Legs = append(res.Legs, LegAssessment{LegIndex: i, Leg: l, Beaufort: bf, GoodWeather: ok})
	}
	res.GoodWeatherHours = hours

	if hours > 0 {
		res.AchievedSpeedKts = dist / hours
		res.AchievedConsumptionMTDay = fuel / (hours / 24)
	}
	minSpeed := w.SpeedKts * (1 - w.SpeedTolerancePct/100)
	maxConsumption := w.ConsumptionMTDay * (1 + w.ConsumptionTolerancePct/100)

	res.SpeedMarginKts = res.AchievedSpeedKts - w.SpeedKts
	res.SpeedCompliant = res.AchievedSpeedKts >= minSpeed
	res.ConsumptionMarginMT = w.ConsumptionMTDay - res.AchievedConsumptionMTDay
	res.ConsumptionCompliant = hours == 0 || res.AchievedConsumptionMTDay <= maxConsumption
	return res, nil
}
