package geospatial

import (
	"math"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
// Inputs are not validated.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Distance is Haversine over two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

const metersPerDegree = 111320.0

// BoundingBox returns a box around a point that contains every point within
// radiusMeters. Latitudes are clamped to the poles. A box crossing the
// antimeridian has West > East, and a box reaching a pole spans every longitude.
func BoundingBox(p domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / metersPerDegree
	b := domain.Bounds{
		North: math.Min(p.Lat+latDelta, 90),
		South: math.Max(p.Lat-latDelta, -90),
		West:  -180,
		East:  180,
	}
	if b.North >= 90 || b.South <= -90 {
		return b
	}

	// Longitude degrees are shortest at the box edge farthest from the equator.
	cosLat := math.Cos(toRad(math.Max(math.Abs(b.North), math.Abs(b.South))))
	lngDelta := radiusMeters / (metersPerDegree * cosLat)
	if lngDelta >= 180 {
		return b
	}
	b.West = normalizeLng(p.Lng - lngDelta)
	b.East = normalizeLng(p.Lng + lngDelta)
	return b
}

func normalizeLng(lng float64) float64 {
	switch {
	case lng > 180:
		return lng - 360
	case lng < -180:
		return lng + 360
	}
	return lng
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
