package dto

import (
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/vessel"
)

type PositionResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type WindResponse struct {
	SpeedMS  float64 `json:"speed_ms"`
	SpeedKts float64 `json:"speed_kts"`
	DirDeg   float64 `json:"dir_deg"`
}

type WavesResponse struct {
	HeightM         float64 `json:"height_m"`
	DirDeg          float64 `json:"dir_deg"`
	SwellHeightM    float64 `json:"swell_height_m"`
	SwellDirDeg     float64 `json:"swell_dir_deg"`
	SwellPeriodS    float64 `json:"swell_period_s"`
	WindwaveHeightM float64 `json:"windwave_height_m"`
	WindwaveDirDeg  float64 `json:"windwave_dir_deg"`
	WindwavePeriodS float64 `json:"windwave_period_s"`
}

type CurrentResponse struct {
	U float64 `json:"u_ms"`
	V float64 `json:"v_ms"`
}

type PointWeatherResponse struct {
	WaypointIndex *int             `json:"waypoint_index,omitempty"`
	Position      PositionResponse `json:"position"`
	Time          time.Time        `json:"time"`
	// Set instead of the weather fields when the point has no coverage.
	Error string `json:"error,omitempty"`

	Wind    *WindResponse    `json:"wind,omitempty"`
	Waves   *WavesResponse   `json:"waves,omitempty"`
	Current *CurrentResponse `json:"current,omitempty"`
	*ProvenanceResponse
}

type WeatherAlongRouteResponse struct {
	Time      time.Time              `json:"time"`
	Waypoints []PointWeatherResponse `json:"waypoints"`
}

func FromSample(p domain.Position, t time.Time, s domain.WeatherSample, prov domain.Provenance) PointWeatherResponse {
	pr := FromProvenance(prov)
	return PointWeatherResponse{
		Position: PositionResponse{Lat: p.Lat, Lon: p.Lon},
		Time:     t,
		Wind: &WindResponse{
			SpeedMS:  round(s.WindSpeedMS(), 2),
			SpeedKts: round(s.WindSpeedKts(), 1),
			DirDeg:   round(s.WindDirFromDeg(), 0),
		},
		Waves: &WavesResponse{
			HeightM:         round(s.TotalWaveHeightM(), 1),
			DirDeg:          round(s.WaveDirDeg(), 0),
			SwellHeightM:    round(s.SwellHeightM, 1),
			SwellDirDeg:     round(s.SwellDirDeg, 0),
			SwellPeriodS:    round(s.SwellPeriodS, 1),
			WindwaveHeightM: round(s.WindwaveHeightM, 1),
			WindwaveDirDeg:  round(s.WindwaveDirDeg, 0),
			WindwavePeriodS: round(s.WindwavePeriodS, 1),
		},
		Current:            &CurrentResponse{U: round(s.CurrentU, 2), V: round(s.CurrentV, 2)},
		ProvenanceResponse: &pr,
	}
}

type ConditionResponse struct {
	DraftM          float64 `json:"draft_m"`
	DisplacementT   float64 `json:"displacement_t"`
	BlockCoeff      float64 `json:"block_coefficient"`
	WettedAreaM2    float64 `json:"wetted_surface_m2"`
	ServiceSpeedKts float64 `json:"service_speed_kts"`
}

type VesselSpecsResponse struct {
	Name    string            `json:"name"`
	DWT     float64           `json:"dwt"`
	LOAM    float64           `json:"loa_m"`
	LPPM    float64           `json:"lpp_m"`
	BeamM   float64           `json:"beam_m"`
	MCRKW   float64           `json:"mcr_kw"`
	SFOC    float64           `json:"sfoc_at_mcr_g_kwh"`
	Laden   ConditionResponse `json:"laden"`
	Ballast ConditionResponse `json:"ballast"`
}

func FromSpecs(s vessel.Specs) VesselSpecsResponse {
	cond := func(c vessel.Condition) ConditionResponse {
		return ConditionResponse{
			DraftM:          c.DraftM,
			DisplacementT:   c.DisplacementT,
			BlockCoeff:      c.BlockCoeff,
			WettedAreaM2:    c.WettedAreaM2,
			ServiceSpeedKts: c.ServiceSpeedKn,
		}
	}
	return VesselSpecsResponse{
		Name:    s.Name,
		DWT:     s.DWT,
		LOAM:    s.LOAM,
		LPPM:    s.LPPM,
		BeamM:   s.BeamM,
		MCRKW:   s.MCRKW,
		SFOC:    s.SFOC,
		Laden:   cond(s.Laden),
		Ballast: cond(s.Ballast),
	}
}
