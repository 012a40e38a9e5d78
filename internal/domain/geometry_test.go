package domain_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squarePolygon(t *testing.T) domain.Polygon {
	t.Helper()
	poly, err := domain.NewPolygon([]domain.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 0},
	})
	require.NoError(t, err)
	return poly
}

func TestNewPolygon_Validation(t *testing.T) {
	_, err := domain.NewPolygon([]domain.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = domain.NewPolygon([]domain.Coordinate{
		{Lat: 0, Lon: 0}, {Lat: 95, Lon: 1}, {Lat: 1, Lon: 1},
	})
	require.ErrorAs(t, err, &verr)
}

func TestPolygon_ContainsSquare(t *testing.T) {
	poly := squarePolygon(t)

	assert.True(t, poly.Contains(domain.Coordinate{Lat: 5, Lon: 5}))
	assert.True(t, poly.Contains(domain.Coordinate{Lat: 0, Lon: 5}), "boundary point")
	assert.True(t, poly.Contains(domain.Coordinate{Lat: 10, Lon: 10}), "vertex")

	assert.False(t, poly.Contains(domain.Coordinate{Lat: -1, Lon: 5}))
	assert.False(t, poly.Contains(domain.Coordinate{Lat: 5, Lon: 10.01}))
}

func TestPolygon_ContainsConcave(t *testing.T) {
	// L-shape: the notch at the top-right is outside.
	poly, err := domain.NewPolygon([]domain.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 5, Lon: 10},
		{Lat: 5, Lon: 5},
		{Lat: 10, Lon: 5},
		{Lat: 10, Lon: 0},
	})
	require.NoError(t, err)

	assert.True(t, poly.Contains(domain.Coordinate{Lat: 2, Lon: 8}))
	assert.True(t, poly.Contains(domain.Coordinate{Lat: 8, Lon: 2}))
	assert.False(t, poly.Contains(domain.Coordinate{Lat: 8, Lon: 8}), "inside the notch")
}

func TestPolygon_Bounds(t *testing.T) {
	poly, err := domain.NewPolygon([]domain.Coordinate{
		{Lat: -3, Lon: 7}, {Lat: 4, Lon: -2}, {Lat: 1, Lon: 9},
	})
	require.NoError(t, err)

	minLat, minLon, maxLat, maxLon := poly.Bounds()
	assert.Equal(t, -3.0, minLat)
	assert.Equal(t, -2.0, minLon)
	assert.Equal(t, 4.0, maxLat)
	assert.Equal(t, 9.0, maxLon)
}

// randomConvexPolygon builds a convex ring by sorting random points around
// their centroid by angle.
func randomConvexPolygon(t *testing.T, rng *rand.Rand) domain.Polygon {
	t.Helper()
	n := 3 + rng.Intn(6)
	centerLat := -60 + rng.Float64()*120
	centerLon := -150 + rng.Float64()*300

	angles := make([]float64, n)
	for i := range angles {
		angles[i] = rng.Float64() * 2 * math.Pi
	}
	// insertion sort; n is tiny
	for i := 1; i < n; i++ {
		for j := i; j > 0 && angles[j] < angles[j-1]; j-- {
			angles[j], angles[j-1] = angles[j-1], angles[j]
		}
	}

	verts := make([]domain.Coordinate, n)
	radius := 0.5 + rng.Float64()*5
	for i, a := range angles {
		verts[i] = domain.Coordinate{
			Lat: centerLat + radius*math.Sin(a),
			Lon: centerLon + radius*math.Cos(a),
		}
	}
	poly, err := domain.NewPolygon(verts)
	require.NoError(t, err)
	return poly
}

// randomStarPolygon builds a non-convex star-shaped ring with alternating
// radii.
func randomStarPolygon(t *testing.T, rng *rand.Rand) domain.Polygon {
	t.Helper()
	n := 2 * (3 + rng.Intn(4))
	centerLat := -60 + rng.Float64()*120
	centerLon := -150 + rng.Float64()*300
	outer := 1 + rng.Float64()*5
	inner := outer * (0.3 + rng.Float64()*0.4)

	verts := make([]domain.Coordinate, n)
	for i := 0; i < n; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := 2 * math.Pi * float64(i) / float64(n)
		verts[i] = domain.Coordinate{
			Lat: centerLat + r*math.Sin(a),
			Lon: centerLon + r*math.Cos(a),
		}
	}
	poly, err := domain.NewPolygon(verts)
	require.NoError(t, err)
	return poly
}

func TestPolygon_ContainsAgreesWithBounds(t *testing.T) {
	// Random probing: any point reported inside must lie within the bounding
	// box, and the centroid of a convex polygon must be inside.
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		poly := randomConvexPolygon(t, rng)
		minLat, minLon, maxLat, maxLon := poly.Bounds()

		var cLat, cLon float64
		verts := poly.Vertices()
		for _, v := range verts {
			cLat += v.Lat
			cLon += v.Lon
		}
		cLat /= float64(len(verts))
		cLon /= float64(len(verts))
		assert.True(t, poly.Contains(domain.Coordinate{Lat: cLat, Lon: cLon}),
			"convex centroid must be interior (iteration %d)", i)

		for j := 0; j < 20; j++ {
			p := domain.Coordinate{
				Lat: minLat - 1 + rng.Float64()*(maxLat-minLat+2),
				Lon: minLon - 1 + rng.Float64()*(maxLon-minLon+2),
			}
			if poly.Contains(p) {
				assert.True(t, p.Lat >= minLat && p.Lat <= maxLat, "iteration %d", i)
				assert.True(t, p.Lon >= minLon && p.Lon <= maxLon, "iteration %d", i)
			}
		}
	}

	for i := 0; i < 500; i++ {
		poly := randomStarPolygon(t, rng)
		verts := poly.Vertices()
		for _, v := range verts {
			assert.True(t, poly.Contains(v), "vertices are boundary points (iteration %d)", i)
		}
	}
}
