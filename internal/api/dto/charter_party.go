package dto

import (
	"math"
	"time"
	"voyage-routing-service/internal/charterparty"
	"voyage-routing-service/internal/domain"
)

// Leg figures as reported by the vessel or taken from an earlier calculation.
type LegWeatherRequest struct {
	WindSpeedKts   float64 `json:"wind_speed_kts"`
	WaveHeightM    float64 `json:"wave_height_m"`
	CurrentSpeedMS float64 `json:"current_speed_ms"`
	TimeHours      float64 `json:"time_hours"`
	DistanceNM     float64 `json:"distance_nm"`
	SOGKts         float64 `json:"sog_kts"`
	FuelMT         float64 `json:"fuel_mt"`
}

func ToLegs(in []LegWeatherRequest) []charterparty.Leg {
	out := make([]charterparty.Leg, len(in))
	for i, l := range in {
		out[i] = charterparty.Leg{
			WindSpeedKts: l.WindSpeedKts,
			WaveHeightM:  l.WaveHeightM,
			CurrentKts:   l.CurrentSpeedMS * domain.MSToKnots,
			TimeHours:    l.TimeHours,
			DistanceNM:   l.DistanceNM,
			SOGKts:       l.SOGKts,
			FuelMT:       l.FuelMT,
		}
	}
	return out
}

type GoodWeatherClause struct {
	// Defaults to 4.
	BFThreshold         *int     `json:"bf_threshold"`
	WaveThresholdM      *float64 `json:"wave_threshold_m"`
	CurrentThresholdKts *float64 `json:"current_threshold_kts"`
}

func (c GoodWeatherClause) ToGoodWeather() charterparty.GoodWeather {
	g := charterparty.DefaultGoodWeather()
	if c.BFThreshold != nil {
		g.MaxBeaufort = *c.BFThreshold
	}
	g.MaxWaveHeightM = c.WaveThresholdM
	g.MaxCurrentKts = c.CurrentThresholdKts
	return g
}

type GoodWeatherFromLegsRequest struct {
	Legs []LegWeatherRequest `json:"legs"`
	GoodWeatherClause
}

// The voyage is calculated first and its legs analysed.
type GoodWeatherVoyageRequest struct {
	CalculateVoyageRequest
	GoodWeatherClause
}

type WarrantyTerms struct {
	WarrantedSpeedKts         float64 `json:"warranted_speed_kts"`
	WarrantedConsumptionMTDay float64 `json:"warranted_consumption_mt_day"`
	// Defaults to 4.
	BFThreshold             *int    `json:"bf_threshold"`
	SpeedTolerancePct       float64 `json:"speed_tolerance_pct"`
	ConsumptionTolerancePct float64 `json:"consumption_tolerance_pct"`
}

func (t WarrantyTerms) ToWarranty() charterparty.Warranty {
	w := charterparty.Warranty{
		SpeedKts:                t.WarrantedSpeedKts,
		ConsumptionMTDay:        t.WarrantedConsumptionMTDay,
		MaxBeaufort:             charterparty.DefaultGoodWeather().MaxBeaufort,
		SpeedTolerancePct:       t.SpeedTolerancePct,
		ConsumptionTolerancePct: t.ConsumptionTolerancePct,
	}
	if t.BFThreshold != nil {
		w.MaxBeaufort = *t.BFThreshold
	}
	return w
}

type WarrantyFromLegsRequest struct {
	Legs []LegWeatherRequest `json:"legs"`
	WarrantyTerms
}

type WarrantyVoyageRequest struct {
	CalculateVoyageRequest
	WarrantyTerms
}

type LogEntryRequest struct {
	Timestamp time.Time `json:"timestamp"`
	RPM       float64   `json:"rpm"`
	SpeedSTW  float64   `json:"speed_stw"`
	Event     string    `json:"event"`
	Place     string    `json:"place"`
}

type OffHireRequest struct {
	Entries        []LogEntryRequest `json:"entries"`
	RPMThreshold   *float64          `json:"rpm_threshold"`
	SpeedThreshold *float64          `json:"speed_threshold"`
	GapHours       *float64          `json:"gap_hours"`
}

func (r OffHireRequest) ToRules() charterparty.OffHireRules {
	rules := charterparty.DefaultOffHireRules()
	if r.RPMThreshold != nil {
		rules.MinRPM = *r.RPMThreshold
	}
	if r.SpeedThreshold != nil {
		rules.MinSpeedKts = *r.SpeedThreshold
	}
	if r.GapHours != nil {
		rules.MaxGap = time.Duration(*r.GapHours * float64(time.Hour))
	}
	return rules
}

func (r OffHireRequest) ToEntries() []charterparty.LogEntry {
	out := make([]charterparty.LogEntry, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = charterparty.LogEntry{
			Timestamp: e.Timestamp,
			RPM:       e.RPM,
			SpeedSTW:  e.SpeedSTW,
			Event:     e.Event,
			Place:     e.Place,
		}
	}
	return out
}

type BeaufortEntryResponse struct {
	Force      int     `json:"force"`
	WindMinKts float64 `json:"wind_min_kts"`
	// Null for the open-ended top force.
	WindMaxKts  *float64 `json:"wind_max_kts"`
	WaveHeightM float64  `json:"wave_height_m"`
	Description string   `json:"description"`
}

type BeaufortScaleResponse struct {
	Scale []BeaufortEntryResponse `json:"scale"`
}

func FromBeaufortScale(scale []charterparty.BeaufortEntry) BeaufortScaleResponse {
	out := BeaufortScaleResponse{Scale: make([]BeaufortEntryResponse, len(scale))}
	for i, e := range scale {
		var hi *float64
		if !math.IsInf(e.WindMaxKts, 1) {
			v := e.WindMaxKts
			hi = &v
		}
		out.Scale[i] = BeaufortEntryResponse{
			Force:       e.Force,
			WindMinKts:  e.WindMinKts,
			WindMaxKts:  hi,
			WaveHeightM: e.WaveHeightM,
			Description: e.Description,
		}
	}
	return out
}

type GoodWeatherLegResponse struct {
	LegIndex       int     `json:"leg_index"`
	WindSpeedKts   float64 `json:"wind_speed_kts"`
	WaveHeightM    float64 `json:"wave_height_m"`
	CurrentSpeedMS float64 `json:"current_speed_ms"`
	BFForce        int     `json:"bf_force"`
	IsGoodWeather  bool    `json:"is_good_weather"`
	TimeHours      float64 `json:"time_hours"`
}

type GoodWeatherResponse struct {
	TotalDays           float64                  `json:"total_days"`
	GoodWeatherDays     float64                  `json:"good_weather_days"`
	BadWeatherDays      float64                  `json:"bad_weather_days"`
	GoodWeatherPct      float64                  `json:"good_weather_pct"`
	BFThreshold         int                      `json:"bf_threshold"`
	WaveThresholdM      *float64                 `json:"wave_threshold_m"`
	CurrentThresholdKts *float64                 `json:"current_threshold_kts"`
	Legs                []GoodWeatherLegResponse `json:"legs"`
}

func FromGoodWeather(r *charterparty.GoodWeatherResult) GoodWeatherResponse {
	out := GoodWeatherResponse{
		TotalDays:           round(r.TotalDays, 4),
		GoodWeatherDays:     round(r.GoodWeatherDays, 4),
		BadWeatherDays:      round(r.BadWeatherDays, 4),
		GoodWeatherPct:      round(r.GoodWeatherPct, 2),
		BFThreshold:         r.Criteria.MaxBeaufort,
		WaveThresholdM:      r.Criteria.MaxWaveHeightM,
		CurrentThresholdKts: r.Criteria.MaxCurrentKts,
		Legs:                make([]GoodWeatherLegResponse, len(r.Legs)),
	}
	for i, l := range r.Legs {
		out.Legs[i] = GoodWeatherLegResponse{
			LegIndex:       l.LegIndex,
			WindSpeedKts:   round(l.Leg.WindSpeedKts, 2),
			WaveHeightM:    round(l.Leg.WaveHeightM, 2),
			CurrentSpeedMS: round(l.Leg.CurrentKts/domain.MSToKnots, 3),
			BFForce:        l.Beaufort,
			IsGoodWeather:  l.GoodWeather,
			TimeHours:      round(l.Leg.TimeHours, 4),
		}
	}
	return out
}

type WarrantyLegResponse struct {
	LegIndex      int     `json:"leg_index"`
	SOGKts        float64 `json:"sog_kts"`
	FuelMT        float64 `json:"fuel_mt"`
	TimeHours     float64 `json:"time_hours"`
	DistanceNM    float64 `json:"distance_nm"`
	BFForce       int     `json:"bf_force"`
	IsGoodWeather bool    `json:"is_good_weather"`
}

type WarrantyResponse struct {
	WarrantedSpeedKts float64 `json:"warranted_speed_kts"`
	AchievedSpeedKts  float64 `json:"achieved_speed_kts"`
	SpeedMarginKts    float64 `json:"speed_margin_kts"`
	SpeedCompliant    bool    `json:"speed_compliant"`

	WarrantedConsumptionMTDay float64 `json:"warranted_consumption_mt_day"`
	AchievedConsumptionMTDay  float64 `json:"achieved_consumption_mt_day"`
	ConsumptionMarginMT       float64 `json:"consumption_margin_mt"`
	ConsumptionCompliant      bool    `json:"consumption_compliant"`

	GoodWeatherHours float64               `json:"good_weather_hours"`
	TotalHours       float64               `json:"total_hours"`
	LegsAssessed     int                   `json:"legs_assessed"`
	LegsGoodWeather  int                   `json:"legs_good_weather"`
	Legs             []WarrantyLegResponse `json:"legs"`
}

func FromWarranty(r *charterparty.WarrantyResult) WarrantyResponse {
	out := WarrantyResponse{
		WarrantedSpeedKts:         r.Warranty.SpeedKts,
		AchievedSpeedKts:          round(r.AchievedSpeedKts, 4),
		SpeedMarginKts:            round(r.SpeedMarginKts, 4),
		SpeedCompliant:            r.SpeedCompliant,
		WarrantedConsumptionMTDay: r.Warranty.ConsumptionMTDay,
		AchievedConsumptionMTDay:  round(r.AchievedConsumptionMTDay, 4),
		ConsumptionMarginMT:       round(r.ConsumptionMarginMT, 4),
		ConsumptionCompliant:      r.ConsumptionCompliant,
		GoodWeatherHours:          round(r.GoodWeatherHours, 4),
		TotalHours:                round(r.TotalHours, 4),
		LegsAssessed:              r.LegsAssessed,
		LegsGoodWeather:           r.LegsGoodWeather,
		Legs:                      make([]WarrantyLegResponse, len(r.Legs)),
	}
	for i, l := range r.Legs {
		out.Legs[i] = WarrantyLegResponse{
			LegIndex:      l.LegIndex,
			SOGKts:        round(l.Leg.SOGKts, 2),
			FuelMT:        round(l.Leg.FuelMT, 4),
			TimeHours:     round(l.Leg.TimeHours, 4),
			DistanceNM:    round(l.Leg.DistanceNM, 2),
			BFForce:       l.Beaufort,
			IsGoodWeather: l.GoodWeather,
		}
	}
	return out
}

type OffHireEventResponse struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	Reason        string    `json:"reason"`
	AvgSpeedKts   float64   `json:"avg_speed_kts"`
}

type OffHireResponse struct {
	TotalHours   float64                `json:"total_hours"`
	OnHireHours  float64                `json:"on_hire_hours"`
	OffHireHours float64                `json:"off_hire_hours"`
	OffHirePct   float64                `json:"off_hire_pct"`
	Events       []OffHireEventResponse `json:"events"`
}

func FromOffHire(r *charterparty.OffHireResult) OffHireResponse {
	out := OffHireResponse{
		TotalHours:   round(r.TotalHours, 4),
		OnHireHours:  round(r.OnHireHours, 4),
		OffHireHours: round(r.OffHireHours, 4),
		OffHirePct:   round(r.OffHirePct, 2),
		Events:       make([]OffHireEventResponse, len(r.Events)),
	}
	for i, e := range r.Events {
		out.Events[i] = OffHireEventResponse{
			StartTime:     e.Start,
			EndTime:       e.End,
			DurationHours: round(e.Hours(), 4),
			Reason:        string(e.Reason),
			AvgSpeedKts:   round(e.AvgSpeedKts, 2),
		}
	}
	return out
}
