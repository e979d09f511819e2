package polar

import (
	"fmt"
	"math"
	"strings"

	"shollgo/pkg/circstat"
)

// Unimodality heuristics: a distribution is treated as unimodal when a
// single robust peak exists, when coherence is strong and the top peak
// dominates the runner-up, or when coherence is very strong despite an
// overly conservative peak picker returning nothing.
const (
	dominanceRatioMin   = 1.5
	coherenceStrong     = 0.80
	coherenceVeryStrong = 0.85
)

// Report is an immutable snapshot of the polar analysis over the full
// radial range. It is cached by the Analyzer and recomputed whenever a
// setting changes.
type Report struct {
	// DirectionPeaks are directional peaks ([0,360) degrees), sorted by
	// descending height.
	DirectionPeaks []Peak

	// OrientationPeaks are orientation peaks ([0,180) degrees), sorted
	// by descending height.
	OrientationPeaks []Peak

	// ADC is the Angular Distribution Coherence in [0,1].
	ADC float64

	// ODC is the Orientation Distribution Coherence in [0,1].
	ODC float64

	// PreferredDirection is the preferred direction in [0,360) degrees
	// (NaN for zero-weight distributions).
	PreferredDirection float64

	// PreferredOrientation is the preferred orientation in [0,180)
	// degrees (NaN for zero-weight distributions).
	PreferredOrientation float64

	// DirectionalFit holds the von Mises fit of the directional
	// distribution; non-nil only when the distribution is unimodal.
	DirectionalFit *circstat.VonMisesFit

	// AxialFit holds the von Mises fit of the axial distribution;
	// non-nil only when the orientation distribution is unimodal.
	AxialFit *circstat.VonMisesFit
}

// Report returns the cached analysis summary, recomputing it when any
// setting changed since the last call.
func (a *Analyzer) Report() (*Report, error) {
	if err := a.ensureMatrix(); err != nil {
		return nil, err
	}
	if a.report != nil && a.reportVersion == a.version {
		return a.report, nil
	}
	rep, err := a.computeReport()
	if err != nil {
		return nil, err
	}
	a.report = rep
	a.reportVersion = a.version
	return rep, nil
}

func (a *Analyzer) computeReport() (*Report, error) {
	dist, err := a.AngularDistribution()
	if err != nil {
		return nil, err
	}

	// First and second circular moments from the same distribution.
	sx1, sy1, total := a.moments(dist, false)
	sx2, sy2, _ := a.moments(dist, true)
	adc, odc := 0.0, 0.0
	if total > 0 {
		adc = math.Hypot(sx1, sy1) / total
		odc = math.Hypot(sx2, sy2) / total
	}

	var dirPeaks, oriPeaks []Peak
	if total > 0 {
		dirPeaks, oriPeaks = a.findPeaksCircular(dist, math.MaxInt, 2*a.angleStep, autoProminenceThreshold(dist))
	}

	pd := a.preferredAngle(dist, false)
	if len(dirPeaks) > 0 {
		pd = dirPeaks[0].AngleDeg
	}
	po := a.preferredAngle(dist, true)
	if len(oriPeaks) > 0 {
		po = oriPeaks[0].AngleDeg
	}

	dirUnimodal := len(dirPeaks) == 1 ||
		(adc >= coherenceStrong && dominanceRatio(dirPeaks) >= dominanceRatioMin) ||
		(len(dirPeaks) == 0 && adc >= coherenceVeryStrong)
	oriUnimodal := len(oriPeaks) == 1 ||
		(odc >= coherenceStrong && dominanceRatio(oriPeaks) >= dominanceRatioMin) ||
		(len(oriPeaks) == 0 && odc >= coherenceVeryStrong)

	rep := &Report{
		DirectionPeaks:       dirPeaks,
		OrientationPeaks:     oriPeaks,
		ADC:                  adc,
		ODC:                  odc,
		PreferredDirection:   pd,
		PreferredOrientation: po,
	}
	if dirUnimodal {
		fit := circstat.FitFromHistogram(dist, a.angleStep, circstat.Directional)
		rep.DirectionalFit = &fit
	}
	if oriUnimodal {
		fit := circstat.FitFromHistogram(dist, a.angleStep, circstat.Axial)
		rep.AxialFit = &fit
	}
	return rep, nil
}

// dominanceRatio is the height ratio between the two tallest peaks:
// +Inf for a single peak (or a zero-height runner-up), NaN for none.
func dominanceRatio(peaks []Peak) float64 {
	if len(peaks) == 0 {
		return math.NaN()
	}
	if len(peaks) == 1 || !(peaks[1].Value > 0) {
		return math.Inf(1)
	}
	return peaks[0].Value / peaks[1].Value
}

// Regime thresholds for the textual summary.
const (
	coherenceLow         = 0.15
	coherenceStrongLabel = 0.45
)

// String renders an adaptive plain-text summary: single preferred
// direction, preferred axis, no structure, multiple directions, or a
// weak preference, depending on the coherence regime.
func (r *Report) String() string {
	vmDir := ""
	if r.DirectionalFit != nil {
		vmDir = fmt.Sprintf("; VM: mu=%.1f deg, kappa=%.2f", r.DirectionalFit.MuDeg, r.DirectionalFit.Kappa)
	}
	vmAx := ""
	if r.AxialFit != nil {
		vmAx = fmt.Sprintf("; VM: mu=%.1f deg, kappa=%.2f", r.AxialFit.MuDeg, r.AxialFit.Kappa)
	}

	// Strong unimodal direction: trust the first moment regardless of
	// peak picking.
	if r.ADC >= coherenceStrongLabel {
		return fmt.Sprintf("Single preferred direction: %.1f deg (ADC=%.2f%s)", r.PreferredDirection, r.ADC, vmDir)
	}
	// Strong axis with weak direction: bilobed/antipodal morphology.
	if r.ODC >= coherenceStrongLabel {
		return fmt.Sprintf("Preferred orientation (axis): %.1f deg (ODC=%.2f%s)", r.PreferredOrientation, r.ODC, vmAx)
	}
	if r.ADC < coherenceLow && r.ODC < coherenceLow {
		return fmt.Sprintf("No preferred directions detected (ADC=%.2f, ODC=%.2f)", r.ADC, r.ODC)
	}

	switch n := len(r.DirectionPeaks); {
	case n == 1:
		return fmt.Sprintf("Single preferred direction: %.1f deg (ADC=%.2f%s)", r.DirectionPeaks[0].AngleDeg, r.ADC, vmDir)
	case n >= 2:
		k := n
		if k > 3 {
			k = 3
		}
		angles := make([]string, k)
		for i := 0; i < k; i++ {
			angles[i] = fmt.Sprintf("%.1f deg", r.DirectionPeaks[i].AngleDeg)
		}
		list := strings.Join(angles, ", ")
		if n > k {
			list += ", ..."
		}
		return fmt.Sprintf("Multiple preferred directions (%d): %s (ADC=%.2f, ODC=%.2f)", n, list, r.ADC, r.ODC)
	}

	if r.ADC >= r.ODC {
		return fmt.Sprintf("Weak preferred direction: %.1f deg (ADC=%.2f)", r.PreferredDirection, r.ADC)
	}
	return fmt.Sprintf("Weak preferred orientation: %.1f deg (ODC=%.2f)", r.PreferredOrientation, r.ODC)
}
