package geospatial

import (
	"math"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// ExpandBounds grows a viewport rectangle by marginMeters on every side.
// Latitude is clamped to the poles; longitude is left unwrapped, callers near
// the antimeridian overfetch rather than split the query.
func ExpandBounds(b domain.Bounds, marginMeters float64) domain.Bounds {
	latDelta := marginMeters / 111320.0
	midLat := (b.South + b.North) / 2
	lngDelta := marginMeters / (111320.0 * math.Cos(toRad(midLat)))
	// Near the poles cos(midLat) vanishes and the delta explodes; 180 per
	// side already covers every meridian.
	if lngDelta > 180 {
		lngDelta = 180
	}

	out := domain.Bounds{
		South: b.South - latDelta,
		West:  b.West - lngDelta,
		North: b.North + latDelta,
		East:  b.East + lngDelta,
	}
	out.South = math.Max(out.South, -90)
	out.North = math.Min(out.North, 90)
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
