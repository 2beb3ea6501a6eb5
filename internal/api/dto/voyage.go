package dto

import (
	"math"
	"strconv"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/vessel"
)

type WaypointRequest struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Waypoints without an id are numbered from 1 in request order.
func ToWaypoints(in []WaypointRequest) []domain.Waypoint {
	out := make([]domain.Waypoint, len(in))
	for i, w := range in {
		id := w.ID
		if id == 0 {
			id = i + 1
		}
		name := w.Name
		if name == "" {
			name = "WP" + strconv.Itoa(id)
		}
		out[i] = domain.Waypoint{ID: id, Name: name, Position: domain.Position{Lat: w.Lat, Lon: w.Lon}}
	}
	return out
}

type CalculateVoyageRequest struct {
	RouteName    string            `json:"route_name"`
	Waypoints    []WaypointRequest `json:"waypoints"`
	CalmSpeedKts float64           `json:"calm_speed_kts"`
	// Defaults to true.
	IsLaden       *bool      `json:"is_laden"`
	DepartureTime *time.Time `json:"departure_time"`
	// Defaults to true.
	UseWeather  *bool               `json:"use_weather"`
	VesselID    string              `json:"vessel_id"`
	Calibration *vessel.Calibration `json:"calibration"`
}

type OptimizeVoyageRequest struct {
	CalculateVoyageRequest
	// Empty selects all.
	Algorithms []string `json:"algorithms"`
	Weightings []string `json:"weightings"`
}

type WaypointResponse struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type LegResponse struct {
	LegIndex   int              `json:"leg_index"`
	From       WaypointResponse `json:"from_wp"`
	To         WaypointResponse `json:"to_wp"`
	DistanceNM float64          `json:"distance_nm"`
	BearingDeg float64          `json:"bearing_deg"`

	WindSpeedKts float64 `json:"wind_speed_kts"`
	WindDirDeg   float64 `json:"wind_dir_deg"`
	WaveHeightM  float64 `json:"wave_height_m"`
	WaveDirDeg   float64 `json:"wave_dir_deg"`

	CalmSpeedKts float64 `json:"calm_speed_kts"`
	STWKts       float64 `json:"stw_kts"`
	SOGKts       float64 `json:"sog_kts"`
	SpeedLossPct float64 `json:"speed_loss_pct"`

	TimeHours     float64   `json:"time_hours"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`

	FuelMT  float64 `json:"fuel_mt"`
	PowerKW float64 `json:"power_kw"`

	WeatherApplied bool `json:"weather_applied"`
	ProvenanceResponse
}

// Only blended samples carry a forecast weight.
type ProvenanceResponse struct {
	DataSource     string   `json:"data_source"`
	ForecastWeight *float64 `json:"forecast_weight,omitempty"`
}

type DataSourcesResponse struct {
	ForecastLegs        int     `json:"forecast_legs"`
	BlendedLegs         int     `json:"blended_legs"`
	ClimatologyLegs     int     `json:"climatology_legs"`
	ForecastHorizonDays float64 `json:"forecast_horizon_days"`
	Warning             string  `json:"warning,omitempty"`
}

type VoyageResponse struct {
	RouteName     string    `json:"route_name"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`

	TotalDistanceNM float64 `json:"total_distance_nm"`
	TotalTimeHours  float64 `json:"total_time_hours"`
	TotalFuelMT     float64 `json:"total_fuel_mt"`
	AvgSOGKts       float64 `json:"avg_sog_kts"`
	AvgSTWKts       float64 `json:"avg_stw_kts"`

	Legs []LegResponse `json:"legs"`

	CalmSpeedKts float64 `json:"calm_speed_kts"`
	IsLaden      bool    `json:"is_laden"`
	UseWeather   bool    `json:"use_weather"`

	DataSources DataSourcesResponse `json:"data_sources"`
}

type SafetyResponse struct {
	Status         string  `json:"status"`
	MaxWaveHeightM float64 `json:"max_wave_height_m"`
	MaxWindSpeedMS float64 `json:"max_wind_speed_ms"`
	MinMargin      float64 `json:"min_margin"`
	DangerousLegs  []int   `json:"dangerous_legs"`
}

type OptimizationResponse struct {
	Algorithm     string `json:"algorithm"`
	Weighting     string `json:"weighting"`
	Outcome       string `json:"outcome"`
	Partial       bool   `json:"partial"`
	ReachesGoal   bool   `json:"reaches_goal"`
	NodesExpanded int    `json:"nodes_expanded"`

	// Zero when the route does not reach the goal.
	FuelSavingsPct float64 `json:"fuel_savings_pct"`
	TimeDeltaHours float64 `json:"time_delta_hours"`

	BaselineFuelMT     float64 `json:"baseline_fuel_mt"`
	BaselineDistanceNM float64 `json:"baseline_distance_nm"`
	BaselineTimeHours  float64 `json:"baseline_time_hours"`

	Safety SafetyResponse `json:"safety"`
	Voyage VoyageResponse `json:"voyage"`
}

// Results are keyed "algorithm/weighting"; a null value means the search
// found no usable route.
type OptimizeVoyageResponse struct {
	Baseline VoyageResponse                   `json:"baseline"`
	Results  map[string]*OptimizationResponse `json:"results"`
}

func FromProvenance(p domain.Provenance) ProvenanceResponse {
	out := ProvenanceResponse{DataSource: p.Source().String()}
	if w, ok := p.BlendWeight(); ok {
		w = round(w, 3)
		out.ForecastWeight = &w
	}
	return out
}

func fromWaypoint(w domain.Waypoint) WaypointResponse {
	return WaypointResponse{ID: w.ID, Name: w.Name, Lat: w.Lat, Lon: w.Lon}
}

// FromVoyage rounds figures for display the same way for every endpoint.
func FromVoyage(v *domain.VoyageResult) VoyageResponse {
	legs := make([]LegResponse, 0, len(v.Legs))
	for _, l := range v.Legs {
		legs = append(legs, LegResponse{
			LegIndex:           l.LegIndex,
			From:               fromWaypoint(l.From),
			To:                 fromWaypoint(l.To),
			DistanceNM:         round(l.DistanceNM, 2),
			BearingDeg:         round(l.BearingDeg, 1),
			WindSpeedKts:       round(l.WindSpeedKts, 1),
			WindDirDeg:         round(l.WindDirDeg, 0),
			WaveHeightM:        round(l.WaveHeightM, 1),
			WaveDirDeg:         round(l.WaveDirDeg, 0),
			CalmSpeedKts:       round(l.CalmSpeedKts, 1),
			STWKts:             round(l.STWKts, 1),
			SOGKts:             round(l.SOGKts, 1),
			SpeedLossPct:       round(l.SpeedLossPct, 1),
			TimeHours:          round(l.TimeHours, 2),
			DepartureTime:      l.DepartureTime,
			ArrivalTime:        l.ArrivalTime,
			FuelMT:             round(l.FuelMT, 2),
			PowerKW:            round(l.PowerKW, 0),
			WeatherApplied:     l.WeatherApplied,
			ProvenanceResponse: FromProvenance(l.Provenance),
		})
	}

	return VoyageResponse{
		RouteName:       v.RouteName,
		DepartureTime:   v.DepartureTime,
		ArrivalTime:     v.ArrivalTime,
		TotalDistanceNM: round(v.TotalDistanceNM, 2),
		TotalTimeHours:  round(v.TotalTimeHours, 2),
		TotalFuelMT:     round(v.TotalFuelMT, 2),
		AvgSOGKts:       round(v.AvgSOGKts, 1),
		AvgSTWKts:       round(v.AvgSTWKts, 1),
		Legs:            legs,
		CalmSpeedKts:    v.CalmSpeedKts,
		IsLaden:         v.IsLaden,
		UseWeather:      v.UseWeather,
		DataSources: DataSourcesResponse{
			ForecastLegs:        v.DataSources.ForecastLegs,
			BlendedLegs:         v.DataSources.BlendedLegs,
			ClimatologyLegs:     v.DataSources.ClimatologyLegs,
			ForecastHorizonDays: v.DataSources.ForecastHorizonDays,
			Warning:             v.DataSources.Warning,
		},
	}
}

func FromOptimization(r *domain.OptimizationResult) *OptimizationResponse {
	if r == nil {
		return nil
	}
	legs := r.Safety.DangerousLegs
	if legs == nil {
		legs = []int{}
	}
	return &OptimizationResponse{
		Algorithm:          string(r.Key.Algorithm),
		Weighting:          string(r.Key.Weighting),
		Outcome:            string(r.Outcome),
		Partial:            r.Partial,
		ReachesGoal:        r.ReachesGoal,
		NodesExpanded:      r.NodesExpanded,
		FuelSavingsPct:     round(r.FuelSavingsPct(), 2),
		TimeDeltaHours:     round(r.TimeDeltaHours(), 2),
		BaselineFuelMT:     round(r.BaselineFuelMT, 2),
		BaselineDistanceNM: round(r.BaselineDistanceNM, 2),
		BaselineTimeHours:  round(r.BaselineTimeHours, 2),
		Safety: SafetyResponse{
			Status:         string(r.Safety.Status),
			MaxWaveHeightM: round(r.Safety.MaxWaveHeightM, 2),
			MaxWindSpeedMS: round(r.Safety.MaxWindSpeedMS, 2),
			MinMargin:      round(r.Safety.MinMargin, 3),
			DangerousLegs:  legs,
		},
		Voyage: FromVoyage(&r.VoyageResult),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
