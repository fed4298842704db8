package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite. (0,0) is valid,
// if suspicious.
func (p GeoPoint) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Bounds is the rectangular lat/lng region currently visible on the map.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// signaturePrecision is the coordinate rounding used for viewport equality:
// four decimal places, roughly eleven meters at the equator. Two viewports
// whose edges coincide at this precision trigger no reload.
const signaturePrecision = 1e4

func roundEdge(v float64) float64 {
	return math.Round(v*signaturePrecision) / signaturePrecision
}

// Signature returns a stable string key for the bounds rounded to four
// decimal places. Equal signatures mean "same viewport" for reload purposes.
func (b Bounds) Signature() string {
	return fmt.Sprintf("%.4f:%.4f:%.4f:%.4f",
		roundEdge(b.South), roundEdge(b.West), roundEdge(b.North), roundEdge(b.East))
}

// Contains reports whether the point lies inside the bounds, inclusive of
// edges. Bounds crossing the antimeridian are not handled.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.South && p.Lat <= b.North &&
		p.Lng >= b.West && p.Lng <= b.East
}

// BoundsOf computes the minimal bounds enclosing the given points.
// The second return value is false when pts is empty.
func BoundsOf(pts []GeoPoint) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	b := Bounds{South: pts[0].Lat, North: pts[0].Lat, West: pts[0].Lng, East: pts[0].Lng}
	for _, p := range pts[1:] {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lng)
		b.East = math.Max(b.East, p.Lng)
	}
	return b, true
}
