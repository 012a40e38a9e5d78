package domain

import "fmt"

// Polygon is a simple (non-self-intersecting) polygon on the lat/lon plane.
// The ring is implicitly closed; the last vertex need not repeat the first.
// Region sampling treats lat/lon as planar, which is adequate at the scales
// a comfort query covers.
type Polygon struct {
	vertices []Coordinate
}

// NewPolygon validates the ring: at least three vertices, all on the globe.
func NewPolygon(vertices []Coordinate) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, &ValidationError{
			Field:  "polygon",
			Reason: fmt.Sprintf("need at least 3 vertices, got %d", len(vertices)),
		}
	}
	for i, v := range vertices {
		if err := v.Validate(); err != nil {
			return Polygon{}, &ValidationError{
				Field:  "polygon",
				Reason: fmt.Sprintf("vertex %d: %v", i, err),
			}
		}
	}

	ring := make([]Coordinate, len(vertices))
	copy(ring, vertices)
	return Polygon{vertices: ring}, nil
}

// Vertices returns a copy of the ring.
func (p Polygon) Vertices() []Coordinate {
	out := make([]Coordinate, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// Bounds returns the bounding box (minLat, minLon, maxLat, maxLon).
func (p Polygon) Bounds() (minLat, minLon, maxLat, maxLon float64) {
	minLat, maxLat = p.vertices[0].Lat, p.vertices[0].Lat
	minLon, maxLon = p.vertices[0].Lon, p.vertices[0].Lon
	for _, v := range p.vertices[1:] {
		if v.Lat < minLat {
			minLat = v.Lat
		}
		if v.Lat > maxLat {
			maxLat = v.Lat
		}
		if v.Lon < minLon {
			minLon = v.Lon
		}
		if v.Lon > maxLon {
			maxLon = v.Lon
		}
	}
	return minLat, minLon, maxLat, maxLon
}

// Contains reports whether the point lies inside the polygon or on its
// boundary. Interior testing uses the even-odd ray casting rule; boundary
// points are checked explicitly because ray casting is unreliable exactly on
// an edge.
func (p Polygon) Contains(c Coordinate) bool {
	n := len(p.vertices)
	for i := 0; i < n; i++ {
		if onSegment(p.vertices[i], p.vertices[(i+1)%n], c) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.vertices[i], p.vertices[j]
		if (vi.Lat > c.Lat) != (vj.Lat > c.Lat) {
			x := vj.Lon + (c.Lat-vj.Lat)/(vi.Lat-vj.Lat)*(vi.Lon-vj.Lon)
			if c.Lon < x {
				inside = !inside
			}
		}
	}
	return inside
}

const segmentEpsilon = 1e-9

// onSegment reports whether c lies on the segment a-b, within a small
// tolerance.
func onSegment(a, b, c Coordinate) bool {
	cross := (b.Lon-a.Lon)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lon-a.Lon)
	if cross > segmentEpsilon || cross < -segmentEpsilon {
		return false
	}
	if c.Lat < min(a.Lat, b.Lat)-segmentEpsilon || c.Lat > max(a.Lat, b.Lat)+segmentEpsilon {
		return false
	}
	if c.Lon < min(a.Lon, b.Lon)-segmentEpsilon || c.Lon > max(a.Lon, b.Lon)+segmentEpsilon {
		return false
	}
	return true
}
