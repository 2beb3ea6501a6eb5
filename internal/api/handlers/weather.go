package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"voyage-routing-service/internal/api/dto"
	"voyage-routing-service/internal/domain"
)

// AlongRoute reports the weather at each waypoint of
// ?waypoints=lat,lon;lat,lon at an optional ?time=.
func (h *VoyageHandler) AlongRoute(w http.ResponseWriter, r *http.Request) {
	ps, err := parsePositions(r.URL.Query().Get("waypoints"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid waypoints: "+err.Error())
		return
	}
	at, ok := parseTime(r, "time")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "time must be RFC 3339")
		return
	}

	points, err := h.Service.WeatherAlongRoute(r.Context(), domain.WaypointsFromPositions(ps), at)
	if err != nil {
		writeDomainError(w, r, "weather along route", err)
		return
	}

	res := dto.WeatherAlongRouteResponse{Waypoints: make([]dto.PointWeatherResponse, 0, len(points))}
	for i, p := range points {
		res.Time = p.Time
		var pr dto.PointWeatherResponse
		if p.Err != nil {
			pr = dto.PointWeatherResponse{
				Position: dto.PositionResponse{Lat: p.Waypoint.Lat, Lon: p.Waypoint.Lon},
				Time:     p.Time,
				Error:    p.Err.Error(),
			}
		} else {
			pr = dto.FromSample(p.Waypoint.Position, p.Time, p.Sample, p.Provenance)
		}
		idx := i
		pr.WaypointIndex = &idx
		res.Waypoints = append(res.Waypoints, pr)
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Point reports the weather at ?lat=&lon= at an optional ?time=.
func (h *VoyageHandler) Point(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, r, http.StatusBadRequest, "lat and lon are required numbers")
		return
	}
	at, ok := parseTime(r, "time")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "time must be RFC 3339")
		return
	}

	p, err := h.Service.WeatherAtPoint(r.Context(), domain.Position{Lat: lat, Lon: lon}, at)
	if err != nil {
		writeDomainError(w, r, "weather at point", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromSample(p.Waypoint.Position, p.Time, p.Sample, p.Provenance))
}

// parsePositions reads "lat,lon;lat,lon;...".
func parsePositions(raw string) ([]domain.Position, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("at least one lat,lon pair is required")
	}
	parts := strings.Split(raw, ";")
	out := make([]domain.Position, 0, len(parts))
	for i, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("pair %d: want lat,lon", i+1)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("pair %d: lat: %w", i+1, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("pair %d: lon: %w", i+1, err)
		}
		out = append(out, domain.Position{Lat: lat, Lon: lon})
	}
	return out, nil
}
