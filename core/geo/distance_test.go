package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	paris := Point{Lat: 48.8566, Lon: 2.3522}
	lyon := Point{Lat: 45.7640, Lon: 4.8357}

	d := DistanceKm(paris, lyon)
	if math.Abs(d-392) > 5 {
		t.Fatalf("Paris-Lyon: got %.1f km", d)
	}
	if DistanceKm(paris, paris) != 0 {
		t.Fatalf("distance to self must be zero")
	}
	if DistanceKm(paris, lyon) != DistanceKm(lyon, paris) {
		t.Fatalf("distance must be symmetric")
	}
}

func TestNewMatrix(t *testing.T) {
	ids := []string{"a", "b"}
	pts := []Point{{48.85, 2.35}, {48.86, 2.36}}
	m, err := NewMatrix(ids, pts)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	ab, err := m.Between("a", "b")
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	ba, _ := m.Between("b", "a")
	if ab != ba || ab <= 0 {
		t.Fatalf("got ab=%v ba=%v", ab, ba)
	}
	if _, err := m.Between("a", "zz"); err == nil {
		t.Fatalf("unknown station accepted")
	}
}

func TestNewMatrixRejectsBadInput(t *testing.T) {
	if _, err := NewMatrix([]string{"a"}, nil); err == nil {
		t.Fatalf("misaligned input accepted")
	}
	if _, err := NewMatrix([]string{"a", "a"}, []Point{{}, {}}); err == nil {
		t.Fatalf("duplicate station accepted")
	}
}
