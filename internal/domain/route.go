package domain

import "time"

// Computed figures for one leg of a voyage.
// A LegResult is produced by evaluating the passage between two consecutive
// waypoints, starting at DepartureTime under the weather found at the leg
// midpoint.
type LegResult struct {
	LegIndex int
	From     Waypoint
	To       Waypoint

	DistanceNM float64
	BearingDeg float64

	WindSpeedKts float64
	WindDirDeg   float64
	WaveHeightM  float64
	WaveDirDeg   float64

	CalmSpeedKts float64
	STWKts       float64
	SOGKts       float64
	SpeedLossPct float64

	TimeHours     float64
	DepartureTime time.Time
	ArrivalTime   time.Time

	FuelMT  float64
	PowerKW float64

	// False for calm-water legs, which carry zero weather tagged as forecast.
	WeatherApplied bool
	Provenance     Provenance
}

// Per-tier leg counts for a voyage.
type DataSourceSummary struct {
	ForecastLegs        int
	BlendedLegs         int
	ClimatologyLegs     int
	ForecastHorizonDays float64
	Warning             string
}

// Represents a whole voyage along an ordered waypoint list.
// Totals are sums over Legs; ArrivalTime is the arrival of the last leg.
// It is computed per request and never cached.
type VoyageResult struct {
	RouteName     string
	DepartureTime time.Time
	ArrivalTime   time.Time

	TotalDistanceNM float64
	TotalTimeHours  float64
	TotalFuelMT     float64
	AvgSOGKts       float64
	AvgSTWKts       float64

	Legs []LegResult

	CalmSpeedKts float64
	IsLaden      bool
	UseWeather   bool

	DataSources DataSourceSummary
}

// Waypoints reconstructs the route the voyage was computed over.
func (v *VoyageResult) Waypoints() []Waypoint {
	if len(v.Legs) == 0 {
		return nil
	}
	out := make([]Waypoint, 0, len(v.Legs)+1)
	out = append(out, v.Legs[0].From)
	for _, l := range v.Legs {
		out = append(out, l.To)
	}
	return out
}

// Hours converts fractional hours into a duration, rounded to the nearest nanosecond.
func Hours(h float64) time.Duration {
	return time.Duration(h*float64(time.Hour) + 0.5)
}
