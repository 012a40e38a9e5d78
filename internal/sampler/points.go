package sampler

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/atmoslabs/comfort-engine/internal/domain"
)

// rejectionBudgetPerPoint bounds the random top-up loop so near-degenerate
// polygons (slivers, collapsed rings) terminate instead of spinning.
const rejectionBudgetPerPoint = 64

// GeneratePoints produces up to count coordinates inside the polygon, in a
// deterministic generation order: an oversampled grid over the bounding box
// filtered by containment, topped up by seeded rejection sampling. Every
// returned point is interior or on the boundary. Returns
// *domain.InsufficientSamplesError when not a single interior point can be
// found within the attempt budget.
//
// The same polygon and count always produce the same points: the grid is
// fixed and the top-up RNG is seeded from the ring geometry.
func GeneratePoints(poly domain.Polygon, count int) ([]domain.Coordinate, error) {
	minLat, minLon, maxLat, maxLon := poly.Bounds()
	latSpan := maxLat - minLat
	lonSpan := maxLon - minLon

	points := make([]domain.Coordinate, 0, count)

	// Grid pass: oversample 4× so concave polygons still fill from the grid.
	// Cell centers, row-major, so generation order is stable.
	n := int(math.Ceil(math.Sqrt(float64(4 * count))))
	for row := 0; row < n && len(points) < count; row++ {
		for col := 0; col < n && len(points) < count; col++ {
			p := domain.Coordinate{
				Lat: minLat + latSpan*(float64(row)+0.5)/float64(n),
				Lon: minLon + lonSpan*(float64(col)+0.5)/float64(n),
			}
			if poly.Contains(p) {
				points = append(points, p)
			}
		}
	}

	// Top-up pass: bounded rejection sampling over the bounding box.
	rng := rand.New(rand.NewSource(polygonSeed(poly, count)))
	for attempts := 0; len(points) < count && attempts < rejectionBudgetPerPoint*count; attempts++ {
		p := domain.Coordinate{
			Lat: minLat + rng.Float64()*latSpan,
			Lon: minLon + rng.Float64()*lonSpan,
		}
		if poly.Contains(p) {
			points = append(points, p)
		}
	}

	if len(points) == 0 {
		return nil, &domain.InsufficientSamplesError{Requested: count, Generated: 0, Succeeded: 0}
	}
	return points, nil
}

// polygonSeed derives a deterministic RNG seed from the ring geometry and the
// requested count.
func polygonSeed(poly domain.Polygon, count int) int64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range poly.Vertices() {
		putFloat(h, buf, v.Lat)
		putFloat(h, buf, v.Lon)
	}
	putFloat(h, buf, float64(count))
	return int64(h.Sum64())
}

func putFloat(h interface{ Write([]byte) (int, error) }, buf []byte, f float64) {
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	h.Write(buf) //nolint:errcheck // fnv never fails
}
