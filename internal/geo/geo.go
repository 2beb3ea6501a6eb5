// Package geo holds spherical-earth helpers used by leg evaluation and the
// route search graph.
package geo

import (
	"math"
	"voyage-routing-service/internal/domain"
)

// Mean earth radius in nautical miles.
const EarthRadiusNM = 3440.065

func toRad(d float64) float64 { return d * math.Pi / 180 }

func toDeg(r float64) float64 { return r * 180 / math.Pi }

// DistanceNM returns the great-circle distance between a and b using the haversine formula.
func DistanceNM(a, b domain.Position) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := lat2 - lat1
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusNM * c
}

// InitialBearing returns the true course leaving a towards b, in [0, 360).
func InitialBearing(a, b domain.Position) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLon := toRad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return domain.NormalizeDeg(toDeg(math.Atan2(y, x)))
}

// Midpoint returns the point halfway along the great circle from a to b.
func Midpoint(a, b domain.Position) domain.Position {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	lon1 := toRad(a.Lon)
	dLon := toRad(b.Lon - a.Lon)

	bx := math.Cos(lat2) * math.Cos(dLon)
	by := math.Cos(lat2) * math.Sin(dLon)

	lat := math.Atan2(math.Sin(lat1)+math.Sin(lat2), math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by))
	lon := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return domain.Position{Lat: toDeg(lat), Lon: domain.NormalizeLon(toDeg(lon))}
}

// RelativeDeg returns the angle between a weather direction and the vessel
// heading, in [0, 360). Zero means the weather comes from dead ahead.
func RelativeDeg(weatherDirDeg, bearingDeg float64) float64 {
	return domain.NormalizeDeg(weatherDirDeg - bearingDeg)
}
