package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceMeters(30.0, -97.0, 30.0, -97.0))
	})

	t.Run("known distance along a meridian", func(t *testing.T) {
		// One degree of latitude is ~111.19 km on a 6371 km sphere.
		d := DistanceMeters(30.0, -97.0, 31.0, -97.0)
		assert.InDelta(t, 111195, d, 50)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][4]float64{
			{30.0, -97.0, 30.01, -97.01},
			{-33.86, 151.21, 51.5, -0.12},
			{0, 0, 0.001, 0.001},
			{89.9, 10, -89.9, -170},
		}
		for _, p := range pairs {
			ab := DistanceMeters(p[0], p[1], p[2], p[3])
			ba := DistanceMeters(p[2], p[3], p[0], p[1])
			assert.InDelta(t, ab, ba, 1e-9)
		}
	})

	t.Run("non-negative", func(t *testing.T) {
		assert.GreaterOrEqual(t, DistanceMeters(10, 20, -10, -20), 0.0)
	})
}

func TestInside(t *testing.T) {
	const centerLat, centerLon = 30.0, -97.0

	t.Run("center is inside", func(t *testing.T) {
		assert.True(t, Inside(centerLat, centerLon, centerLat, centerLon, 200))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		// Walk north until we sit right on the 200m radius.
		d := 200.0 / earthRadiusMeters * 180 / math.Pi
		lat := centerLat + d
		dist := DistanceMeters(lat, centerLon, centerLat, centerLon)
		assert.InDelta(t, 200, dist, 0.01)
		assert.True(t, Inside(lat, centerLon, centerLat, centerLon, dist))
	})

	t.Run("just past the boundary is outside", func(t *testing.T) {
		d := 201.0 / earthRadiusMeters * 180 / math.Pi
		assert.False(t, Inside(centerLat+d, centerLon, centerLat, centerLon, 200))
	})

	t.Run("1.4km away is outside a 200m region", func(t *testing.T) {
		assert.False(t, Inside(30.01, -97.01, centerLat, centerLon, 200))
	})
}
