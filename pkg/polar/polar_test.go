package polar

import (
	"errors"
	"math"
	"testing"

	"shollgo/pkg/arbor"
	"shollgo/pkg/profile"
)

// pointAt places a point at the given azimuth (degrees) and radius
// around the origin.
func pointAt(angleDeg, radius float64) arbor.Point {
	rad := angleDeg * math.Pi / 180
	return arbor.Point{X: radius * math.Cos(rad), Y: radius * math.Sin(rad)}
}

// buildProfile creates a centered profile whose every entry carries one
// located intersection per given azimuth.
func buildProfile(radii []float64, angles []float64) *profile.Profile {
	p := profile.New()
	p.SetCenter(arbor.Point{})
	for _, r := range radii {
		pts := make([]arbor.Point, len(angles))
		for i, a := range angles {
			pts[i] = pointAt(a, r)
		}
		p.Add(profile.Entry{
			Radius: r,
			Count:  float64(len(angles)),
			Length: float64(len(angles)) * r,
			Points: pts,
		})
	}
	return p
}

// TestNewAnalyzerValidation verifies angle step validation
func TestNewAnalyzerValidation(t *testing.T) {
	p := buildProfile([]float64{1, 2}, []float64{0})

	if _, err := NewAnalyzer(p, Intersections, 7); !errors.Is(err, ErrBadAngleStep) {
		t.Errorf("Expected ErrBadAngleStep for step 7, got %v", err)
	}
	if _, err := NewAnalyzer(p, Intersections, -10); !errors.Is(err, ErrBadAngleStep) {
		t.Errorf("Expected ErrBadAngleStep for negative step, got %v", err)
	}

	a, err := NewAnalyzer(p, Intersections, 15)
	if err != nil {
		t.Fatalf("NewAnalyzer failed for valid step: %v", err)
	}
	if a.BinCount() != 24 {
		t.Errorf("Expected 24 bins for a 15-degree step, got %d", a.BinCount())
	}
}

// TestMatrixErrors verifies the empty-profile and missing-locations
// failures
func TestMatrixErrors(t *testing.T) {
	// Profile without a center
	p := profile.New()
	p.Add(profile.Entry{Radius: 1, Count: 2})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	if _, err := a.Matrix(); !errors.Is(err, ErrEmptyProfile) {
		t.Errorf("Expected ErrEmptyProfile, got %v", err)
	}

	// Centered profile without located points
	p.SetCenter(arbor.Point{})
	if _, err := a.Matrix(); !errors.Is(err, ErrNoLocations) {
		t.Errorf("Expected ErrNoLocations, got %v", err)
	}

	// The uniform fallback lifts the restriction
	a.SetAllowUniformFallback(true)
	dist, err := a.AngularDistribution()
	if err != nil {
		t.Fatalf("Expected fallback distribution, got error %v", err)
	}
	for i, v := range dist {
		if math.Abs(v-2.0/float64(a.BinCount())) > 1e-9 {
			t.Errorf("Bin %d: expected uniform weight, got %f", i, v)
		}
	}
}

// TestSymmetricCross verifies that four orthogonal arms cancel both
// coherences while still producing four directional peaks
func TestSymmetricCross(t *testing.T) {
	p := buildProfile([]float64{1, 2, 3, 4}, []float64{0, 90, 180, 270})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	adc, err := a.ADC()
	if err != nil {
		t.Fatalf("ADC failed: %v", err)
	}
	if adc > 1e-9 {
		t.Errorf("Expected ADC ~0 for a symmetric cross, got %f", adc)
	}

	odc, err := a.ODC()
	if err != nil {
		t.Fatalf("ODC failed: %v", err)
	}
	if odc > 1e-9 {
		t.Errorf("Expected ODC ~0 for a symmetric cross, got %f", odc)
	}

	peaks, err := a.DirectionPeaks()
	if err != nil {
		t.Fatalf("DirectionPeaks failed: %v", err)
	}
	if len(peaks) != 4 {
		t.Fatalf("Expected 4 directional peaks, got %d", len(peaks))
	}
	oriPeaks, err := a.OrientationPeaks()
	if err != nil {
		t.Fatalf("OrientationPeaks failed: %v", err)
	}
	if len(oriPeaks) != 2 {
		t.Errorf("Expected 2 orientation peaks, got %d", len(oriPeaks))
	}

	// No unimodal fit for a four-lobed distribution
	rep, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep.DirectionalFit != nil {
		t.Error("Expected no directional von Mises fit for a cross")
	}
}

// TestSingleDirection verifies full coherence and a lone peak for an
// arbor growing along a single azimuth
func TestSingleDirection(t *testing.T) {
	p := buildProfile([]float64{1, 2, 3, 4, 5}, []float64{45})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	adc, err := a.ADC()
	if err != nil {
		t.Fatalf("ADC failed: %v", err)
	}
	if math.Abs(adc-1) > 1e-9 {
		t.Errorf("Expected ADC 1 for a single direction, got %f", adc)
	}

	peaks, err := a.DirectionPeaks()
	if err != nil {
		t.Fatalf("DirectionPeaks failed: %v", err)
	}
	if len(peaks) != 1 {
		t.Fatalf("Expected 1 directional peak, got %d", len(peaks))
	}
	// Smoothing can shift a spike peak by at most one bin
	if math.Abs(peaks[0].AngleDeg-45) > a.AngleStep() {
		t.Errorf("Expected peak within one bin of 45 degrees, got %f", peaks[0].AngleDeg)
	}

	rep, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep.DirectionalFit == nil {
		t.Fatal("Expected a directional von Mises fit for a unimodal distribution")
	}
	if math.Abs(rep.DirectionalFit.MuDeg-45) > 1e-9 {
		t.Errorf("Expected fitted mean 45 degrees, got %f", rep.DirectionalFit.MuDeg)
	}
	if rep.DirectionalFit.Kappa <= 0 {
		t.Errorf("Expected positive concentration, got %f", rep.DirectionalFit.Kappa)
	}
}

// TestPeakSeparation verifies the pairwise minimum separation of
// reported peaks under the circular metric
func TestPeakSeparation(t *testing.T) {
	p := buildProfile([]float64{1, 2, 3}, []float64{0, 40, 90, 180, 270})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	peaks, err := a.DirectionPeaks()
	if err != nil {
		t.Fatalf("DirectionPeaks failed: %v", err)
	}

	minSep := 2 * a.AngleStep()
	for i := range peaks {
		for j := i + 1; j < len(peaks); j++ {
			d := math.Abs(peaks[i].AngleDeg - peaks[j].AngleDeg)
			if d > 180 {
				d = 360 - d
			}
			if d < minSep {
				t.Errorf("Peaks %f and %f closer than %f degrees", peaks[i].AngleDeg, peaks[j].AngleDeg, minSep)
			}
		}
	}
}

// TestPreferredOrientation verifies the axial statistics of a bilobed
// distribution
func TestPreferredOrientation(t *testing.T) {
	// Two antipodal lobes along the 30/210 axis
	p := buildProfile([]float64{1, 2, 3}, []float64{30, 210})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	adc, err := a.ADC()
	if err != nil {
		t.Fatalf("ADC failed: %v", err)
	}
	if adc > 1e-9 {
		t.Errorf("Expected ADC ~0 for antipodal lobes, got %f", adc)
	}

	odc, err := a.ODC()
	if err != nil {
		t.Fatalf("ODC failed: %v", err)
	}
	if math.Abs(odc-1) > 1e-9 {
		t.Errorf("Expected ODC 1 for antipodal lobes, got %f", odc)
	}

	ori, err := a.PreferredOrientation()
	if err != nil {
		t.Fatalf("PreferredOrientation failed: %v", err)
	}
	if math.Abs(ori-30) > a.AngleStep() {
		t.Errorf("Expected preferred orientation near 30 degrees, got %f", ori)
	}
}

// TestBinEdgeAngles verifies that an azimuth on a sector boundary lands
// in the sector it opens, despite float round-off in the angle
func TestBinEdgeAngles(t *testing.T) {
	p := buildProfile([]float64{1}, []float64{90})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	dist, err := a.AngularDistribution()
	if err != nil {
		t.Fatalf("AngularDistribution failed: %v", err)
	}
	for i, v := range dist {
		want := 0.0
		if i == 9 {
			want = 1
		}
		if math.Abs(v-want) > 1e-9 {
			t.Errorf("Bin %d: expected weight %f, got %f", i, want, v)
		}
	}
}

// TestBandQueries verifies restriction to a radial band by ring centers
func TestBandQueries(t *testing.T) {
	// Inner rings point east, outer rings north
	p := profile.New()
	p.SetCenter(arbor.Point{})
	for _, r := range []float64{1, 2} {
		p.Add(profile.Entry{Radius: r, Count: 1, Points: []arbor.Point{pointAt(0, r)}})
	}
	for _, r := range []float64{3, 4} {
		p.Add(profile.Entry{Radius: r, Count: 1, Points: []arbor.Point{pointAt(90, r)}})
	}

	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	dir, err := a.PreferredDirectionBand(0, 2.5)
	if err != nil {
		t.Fatalf("PreferredDirectionBand failed: %v", err)
	}
	if math.Abs(dir-5) > 1e-9 {
		t.Errorf("Expected inner-band direction at the first bin center, got %f", dir)
	}

	dir, err = a.PreferredDirectionBand(2.5, 10)
	if err != nil {
		t.Fatalf("PreferredDirectionBand failed: %v", err)
	}
	if math.Abs(dir-95) > 1e-9 {
		t.Errorf("Expected outer-band direction at the 90-100 bin center, got %f", dir)
	}
}

// TestSettingInvalidation verifies that setting changes rebuild the
// cached matrix and report
func TestSettingInvalidation(t *testing.T) {
	p := buildProfile([]float64{1, 2, 3}, []float64{45})
	a, err := NewAnalyzer(p, Intersections, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	rep1, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	// Unchanged settings return the cached snapshot
	rep2, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep1 != rep2 {
		t.Error("Expected cached report for unchanged settings")
	}

	if err := a.SetAngleStep(30); err != nil {
		t.Fatalf("SetAngleStep failed: %v", err)
	}
	dist, err := a.AngularDistribution()
	if err != nil {
		t.Fatalf("AngularDistribution failed: %v", err)
	}
	if len(dist) != 12 {
		t.Errorf("Expected 12 bins after step change, got %d", len(dist))
	}
	rep3, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep3 == rep1 {
		t.Error("Expected a recomputed report after angle step change")
	}

	// Data mode changes also invalidate
	a.SetDataMode(Length)
	rep4, err := a.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep4 == rep3 {
		t.Error("Expected a recomputed report after data mode change")
	}
}

// TestLengthMode verifies that length mode distributes cable length
// instead of counts
func TestLengthMode(t *testing.T) {
	p := buildProfile([]float64{2}, []float64{0})
	a, err := NewAnalyzer(p, Length, DefaultAngleStep)
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	dist, err := a.AngularDistribution()
	if err != nil {
		t.Fatalf("AngularDistribution failed: %v", err)
	}
	// buildProfile assigns Length = count * radius = 2
	var total float64
	for _, v := range dist {
		total += v
	}
	if math.Abs(total-2) > 1e-9 {
		t.Errorf("Expected total distributed length 2, got %f", total)
	}
}
