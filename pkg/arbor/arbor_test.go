package arbor

import (
	"math"
	"testing"
)

// TestAzimuth verifies azimuth angles for the four cardinal directions
// and the [0,360) normalization
func TestAzimuth(t *testing.T) {
	center := Point{X: 1, Y: 1}
	cases := []struct {
		p    Point
		want float64
	}{
		{Point{X: 2, Y: 1}, 0},
		{Point{X: 1, Y: 2}, 90},
		{Point{X: 0, Y: 1}, 180},
		{Point{X: 1, Y: 0}, 270},
	}
	for _, tc := range cases {
		got := Azimuth(center, tc.p)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Azimuth to (%f,%f): expected %f, got %f", tc.p.X, tc.p.Y, tc.want, got)
		}
	}
}

// TestAverage verifies the centroid computation and the empty-slice case
func TestAverage(t *testing.T) {
	got := Average([]Point{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 4, Z: 6}})
	want := Point{X: 1, Y: 2, Z: 3}
	if got != want {
		t.Errorf("Expected centroid %v, got %v", want, got)
	}

	if got := Average(nil); got != (Point{}) {
		t.Errorf("Expected zero point for empty input, got %v", got)
	}
}

// TestNodeRadius verifies NaN is reported for missing radius data
func TestNodeRadius(t *testing.T) {
	p := &Path{Points: []Point{{}, {X: 1}}}
	if !math.IsNaN(p.NodeRadius(0)) {
		t.Error("Expected NaN radius for path without radius data")
	}

	p.Radii = []float64{0.5, 0.7}
	if p.NodeRadius(1) != 0.7 {
		t.Errorf("Expected radius 0.7, got %f", p.NodeRadius(1))
	}
}

// TestIs3D verifies detection of nonzero Z coordinates
func TestIs3D(t *testing.T) {
	flat := &Tree{Paths: []*Path{{Points: []Point{{X: 1, Y: 2}}}}}
	if flat.Is3D() {
		t.Error("Expected planar tree to report 2D")
	}

	deep := &Tree{Paths: []*Path{{Points: []Point{{X: 1, Y: 2, Z: 3}}}}}
	if !deep.Is3D() {
		t.Error("Expected tree with nonzero Z to report 3D")
	}
}

// TestCenterOf verifies the center strategies, the primary-path filter
// and the soma-any connectivity exception
func TestCenterOf(t *testing.T) {
	tree := &Tree{Paths: []*Path{
		{Points: []Point{{X: 0, Y: 0}}, Type: TypeSoma, Primary: true},
		{Points: []Point{{X: 2, Y: 0}, {X: 3, Y: 0}}, Type: TypeAxon, Primary: true},
		{Points: []Point{{X: 0, Y: 4}, {X: 0, Y: 5}}, Type: TypeDendrite, Primary: true},
		// Non-primary soma path: visible to RootNodesSomaAny only
		{Points: []Point{{X: 0, Y: 2}}, Type: TypeSoma, Primary: false},
	}}

	// Any: average of the three primary roots
	got, err := tree.CenterOf(RootNodesAny)
	if err != nil {
		t.Fatalf("RootNodesAny failed: %v", err)
	}
	want := Point{X: 2.0 / 3.0, Y: 4.0 / 3.0}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("Expected center %v, got %v", want, got)
	}

	// Soma: primary soma paths only
	got, err = tree.CenterOf(RootNodesSoma)
	if err != nil {
		t.Fatalf("RootNodesSoma failed: %v", err)
	}
	if got != (Point{}) {
		t.Errorf("Expected soma center at origin, got %v", got)
	}

	// SomaAny: includes the disconnected soma path
	got, err = tree.CenterOf(RootNodesSomaAny)
	if err != nil {
		t.Fatalf("RootNodesSomaAny failed: %v", err)
	}
	if got != (Point{X: 0, Y: 1}) {
		t.Errorf("Expected soma-any center (0,1), got %v", got)
	}

	// No apical dendrites in the tree
	if _, err := tree.CenterOf(RootNodesApicalDendrite); err != ErrNoMatchingPaths {
		t.Errorf("Expected ErrNoMatchingPaths, got %v", err)
	}
}

// TestCenterOfFallback verifies that RootNodesAny falls back to the
// first node when no path is marked primary
func TestCenterOfFallback(t *testing.T) {
	tree := &Tree{Paths: []*Path{
		{Points: []Point{{X: 7, Y: 8}, {X: 9, Y: 9}}, Type: TypeDendrite},
	}}
	got, err := tree.CenterOf(RootNodesAny)
	if err != nil {
		t.Fatalf("Fallback failed: %v", err)
	}
	if got != (Point{X: 7, Y: 8}) {
		t.Errorf("Expected fallback center (7,8), got %v", got)
	}
}
