// Package geo derives the symmetric great-circle distance matrix the routing
// layer consumes from raw station coordinates.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// Point is a station position in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b Point) float64 {
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dLat := la2 - la1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Matrix is a station-keyed symmetric distance matrix.
type Matrix struct {
	index map[string]int
	d     [][]float64
}

// NewMatrix builds the distance matrix for the given stations. ids and pts
// must align.
func NewMatrix(ids []string, pts []Point) (*Matrix, error) {
	if len(ids) != len(pts) {
		return nil, fmt.Errorf("geo: %d ids for %d points", len(ids), len(pts))
	}
	m := &Matrix{index: make(map[string]int, len(ids)), d: make([][]float64, len(ids))}
	for i, id := range ids {
		if _, dup := m.index[id]; dup {
			return nil, fmt.Errorf("geo: duplicate station %q", id)
		}
		m.index[id] = i
		m.d[i] = make([]float64, len(ids))
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			d := DistanceKm(pts[i], pts[j])
			m.d[i][j] = d
			m.d[j][i] = d
		}
	}
	return m, nil
}

// Between returns the distance between two stations.
func (m *Matrix) Between(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("geo: unknown station %q", a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("geo: unknown station %q", b)
	}
	return m.d[i][j], nil
}
