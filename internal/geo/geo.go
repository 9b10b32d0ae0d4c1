// Package geo provides the distance and containment primitives used by
// region evaluation. Pure math, no I/O.
package geo

import "math"

// earthRadiusMeters is the mean spherical earth radius. A spherical model
// is accurate to within a few meters at the radii we work with
// (100m-1600m); no ellipsoidal correction.
const earthRadiusMeters = 6371000

// DistanceMeters returns the haversine great-circle distance between two
// WGS84 coordinates given in degrees. The result is non-negative.
// Out-of-range inputs produce a deterministic but meaningless value;
// coordinate validation belongs to the ingestion layer.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Inside reports whether the point lies within radiusMeters of the center.
// The boundary is inclusive.
func Inside(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	return DistanceMeters(lat, lon, centerLat, centerLon) <= radiusMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
