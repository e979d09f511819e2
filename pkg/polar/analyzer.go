// Package polar computes angle-resolved metrics from a Sholl profile:
// a radius-by-angle distribution matrix, angular distributions over
// radial bands, circular-moment coherences (ADC/ODC), preferred
// direction/orientation, and peak detection on the circular domain.
package polar

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"shollgo/pkg/arbor"
	"shollgo/pkg/circstat"
	"shollgo/pkg/profile"
)

// DataMode selects which quantity is distributed across angular bins.
type DataMode int

const (
	// Intersections distributes crossing counts.
	Intersections DataMode = iota

	// Length distributes cable length.
	Length
)

// String returns a human-readable mode label.
func (m DataMode) String() string {
	if m == Length {
		return "length"
	}
	return "intersections"
}

// DefaultAngleStep is the default angular bin width in degrees.
const DefaultAngleStep = 10.0

// Failures surfaced by the analyzer.
var (
	// ErrBadAngleStep is returned when the angle step is not a positive
	// divisor of 360.
	ErrBadAngleStep = errors.New("polar: angle step must be a positive divisor of 360 degrees")

	// ErrEmptyProfile is returned when the profile has no entries or no
	// center.
	ErrEmptyProfile = errors.New("polar: profile is empty or its center is unknown")

	// ErrNoLocations is returned when no profile entry carries located
	// intersection points and the uniform fallback is disabled. Angular
	// analysis refuses to fabricate directionality in that case.
	ErrNoLocations = errors.New("polar: profile carries no intersection locations")
)

// Analyzer distributes a profile's counts or lengths across angular
// sectors and derives circular statistics from the result. The matrix
// and the summary report are cached and rebuilt lazily; every setting
// mutation bumps a version counter that invalidates both.
type Analyzer struct {
	prof      *profile.Profile
	mode      DataMode
	angleStep float64
	nBins     int

	// allowUniformFallback spreads entries without located points
	// evenly across all angular bins instead of dropping them. Off by
	// default: fabricating a uniform ring for entries lacking spatial
	// information (typical of curve-fitted profiles) biases the
	// distribution toward isotropy.
	allowUniformFallback bool

	version       uint64
	matrix        [][]float64
	matrixVersion uint64
	report        *Report
	reportVersion uint64
}

// NewAnalyzer returns an analyzer over the given profile. angleStepDeg
// must evenly divide 360.
func NewAnalyzer(p *profile.Profile, mode DataMode, angleStepDeg float64) (*Analyzer, error) {
	a := &Analyzer{prof: p, mode: mode, version: 1}
	if err := a.SetAngleStep(angleStepDeg); err != nil {
		return nil, err
	}
	return a, nil
}

// SetAngleStep changes the angular bin width in degrees.
func (a *Analyzer) SetAngleStep(deg float64) error {
	if deg <= 0 || deg > 360 {
		return fmt.Errorf("%w: got %g", ErrBadAngleStep, deg)
	}
	nBins := 360 / deg
	if math.Abs(nBins-math.Round(nBins)) > 1e-10 {
		return fmt.Errorf("%w: got %g", ErrBadAngleStep, deg)
	}
	a.angleStep = deg
	a.nBins = int(math.Round(nBins))
	a.version++
	return nil
}

// SetDataMode selects counts or lengths as the distributed quantity.
func (a *Analyzer) SetDataMode(mode DataMode) {
	if mode != a.mode {
		a.mode = mode
		a.version++
	}
}

// SetAllowUniformFallback toggles the opt-in uniform spreading of
// entries that carry no located intersection points.
func (a *Analyzer) SetAllowUniformFallback(allow bool) {
	if allow != a.allowUniformFallback {
		a.allowUniformFallback = allow
		a.version++
	}
}

// AngleStep returns the angular bin width in degrees.
func (a *Analyzer) AngleStep() float64 {
	return a.angleStep
}

// BinCount returns the number of angular bins (360 / step).
func (a *Analyzer) BinCount() int {
	return a.nBins
}

// DataMode returns the distributed quantity.
func (a *Analyzer) DataMode() DataMode {
	return a.mode
}

// Profile returns the underlying profile.
func (a *Analyzer) Profile() *profile.Profile {
	return a.prof
}

// BinCenters returns the angular bin centers in degrees, ascending in
// [0, 360). The i-th center is (i+0.5)*angleStep.
func (a *Analyzer) BinCenters() []float64 {
	centers := make([]float64, a.nBins)
	for i := range centers {
		centers[i] = circstat.Norm360((float64(i) + 0.5) * a.angleStep)
	}
	return centers
}

// Matrix returns the [radialBin][angleBin] distribution, rebuilt when
// any setting changed since the last call. Rows run inner to outer.
func (a *Analyzer) Matrix() ([][]float64, error) {
	if err := a.ensureMatrix(); err != nil {
		return nil, err
	}
	return a.matrix, nil
}

func (a *Analyzer) ensureMatrix() error {
	if a.matrixVersion == a.version && a.matrix != nil {
		return nil
	}
	if _, ok := a.prof.Center(); !ok || a.prof.Size() == 0 {
		return ErrEmptyProfile
	}
	if !a.prof.HasPoints() && !a.allowUniformFallback {
		return fmt.Errorf("%w: re-parse with point tracking or enable the uniform fallback", ErrNoLocations)
	}

	center, _ := a.prof.Center()
	nRadial := a.prof.Size()
	startRadius := a.prof.StartRadius()
	stepRadius := a.prof.StepSize()

	matrix := make([][]float64, nRadial)
	for i := range matrix {
		matrix[i] = make([]float64, a.nBins)
	}

	for _, entry := range a.prof.Entries() {
		radialBin := 0
		if stepRadius > 0 {
			// Ring interval [start + b*step, start + (b+1)*step); the
			// epsilon counters float round-off at ring boundaries.
			radialBin = int(math.Floor((entry.Radius-startRadius)/stepRadius + 1e-12))
		}
		if radialBin < 0 || radialBin >= nRadial {
			continue
		}

		switch {
		case len(entry.Points) > 0:
			binCounts := make([]int, a.nBins)
			for _, pt := range entry.Points {
				theta := arbor.Azimuth(center, pt)
				// Same epsilon as the radial binning: an azimuth that is
				// exactly on a sector boundary up to float round-off must
				// land in the sector it opens.
				bin := int(math.Floor(theta/a.angleStep + 1e-12))
				if bin < 0 {
					bin = 0
				}
				if bin >= a.nBins {
					bin = a.nBins - 1
				}
				binCounts[bin]++
			}
			// The entry's total is split evenly across its components
			// and placed proportionally to where the components fall.
			components := float64(len(entry.Points))
			perComponent := entry.Count / components
			if a.mode == Length {
				perComponent = entry.Length / components
			}
			for bin, c := range binCounts {
				if c > 0 {
					matrix[radialBin][bin] += perComponent * float64(c)
				}
			}
		case a.allowUniformFallback:
			total := entry.Count
			if a.mode == Length {
				total = entry.Length
			}
			perBin := total / float64(a.nBins)
			if perBin == 0 {
				continue
			}
			for bin := range matrix[radialBin] {
				matrix[radialBin][bin] += perBin
			}
		}
	}

	a.matrix = matrix
	a.matrixVersion = a.version
	a.report = nil
	return nil
}

// AngularDistribution returns the column sums of the matrix over all
// radial bins.
func (a *Analyzer) AngularDistribution() ([]float64, error) {
	matrix, err := a.Matrix()
	if err != nil {
		return nil, err
	}
	dist := make([]float64, a.nBins)
	for _, row := range matrix {
		floats.Add(dist, row)
	}
	return dist, nil
}

// AngularDistributionBand returns the column sums over the radial bins
// whose ring centers (start + (r+0.5)*step) fall in [rMin, rMax).
// Ring-center inclusion keeps the binning stable and avoids weighting
// partial rings.
func (a *Analyzer) AngularDistributionBand(rMin, rMax float64) ([]float64, error) {
	matrix, err := a.Matrix()
	if err != nil {
		return nil, err
	}
	dist := make([]float64, a.nBins)
	step := a.prof.StepSize()
	start := a.prof.StartRadius()
	for r, row := range matrix {
		ringCenter := start + (float64(r)+0.5)*step
		if ringCenter < rMin || ringCenter >= rMax {
			continue
		}
		floats.Add(dist, row)
	}
	return dist, nil
}

// PreferredDirection returns the first circular moment direction of the
// full angular distribution, in [0, 360) degrees. NaN for zero weight.
func (a *Analyzer) PreferredDirection() (float64, error) {
	rep, err := a.Report()
	if err != nil {
		return math.NaN(), err
	}
	return rep.PreferredDirection, nil
}

// PreferredOrientation returns the axis of the second circular moment
// of the full angular distribution, in [0, 180) degrees. NaN for zero
// weight.
func (a *Analyzer) PreferredOrientation() (float64, error) {
	rep, err := a.Report()
	if err != nil {
		return math.NaN(), err
	}
	return rep.PreferredOrientation, nil
}

// PreferredDirectionBand computes the preferred direction from a radial
// band [rMin, rMax).
func (a *Analyzer) PreferredDirectionBand(rMin, rMax float64) (float64, error) {
	dist, err := a.AngularDistributionBand(rMin, rMax)
	if err != nil {
		return math.NaN(), err
	}
	return a.preferredAngle(dist, false), nil
}

// PreferredOrientationBand computes the preferred orientation from a
// radial band [rMin, rMax).
func (a *Analyzer) PreferredOrientationBand(rMin, rMax float64) (float64, error) {
	dist, err := a.AngularDistributionBand(rMin, rMax)
	if err != nil {
		return math.NaN(), err
	}
	return a.preferredAngle(dist, true), nil
}

// ADC returns the Angular Distribution Coherence in [0,1]: the
// normalized first circular moment magnitude. 0 for a uniform
// distribution, 1 for weight concentrated in a single direction.
func (a *Analyzer) ADC() (float64, error) {
	rep, err := a.Report()
	if err != nil {
		return math.NaN(), err
	}
	return rep.ADC, nil
}

// ODC returns the Orientation Distribution Coherence in [0,1]: the
// normalized second circular moment magnitude, insensitive to 180-degree
// flips. It captures bilobed morphologies for which the ADC cancels.
func (a *Analyzer) ODC() (float64, error) {
	rep, err := a.Report()
	if err != nil {
		return math.NaN(), err
	}
	return rep.ODC, nil
}

// moments returns the weighted circular moment sums (Sx, Sy, total) of
// the distribution over bin-center angles. Orientation mode doubles the
// angles (second moment).
func (a *Analyzer) moments(dist []float64, orientation bool) (sx, sy, sum float64) {
	mult := 1.0
	if orientation {
		mult = 2
	}
	for i, w := range dist {
		theta := mult * (float64(i) + 0.5) * a.angleStep * math.Pi / 180
		sx += w * math.Cos(theta)
		sy += w * math.Sin(theta)
	}
	sum = floats.Sum(dist)
	return sx, sy, sum
}

// preferredAngle returns the mean direction (or halved mean doubled
// angle in orientation mode) of the distribution, or NaN for zero
// total weight.
func (a *Analyzer) preferredAngle(dist []float64, orientation bool) float64 {
	sx, sy, sum := a.moments(dist, orientation)
	if sum <= 0 {
		return math.NaN()
	}
	deg := math.Atan2(sy, sx) * 180 / math.Pi
	if orientation {
		return circstat.Norm180(deg / 2)
	}
	return circstat.Norm360(deg)
}
