package polar

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"shollgo/pkg/circstat"
)

// Peak is a local maximum of an angular distribution. AngleDeg is the
// bin-center angle (direction: [0,360), orientation: [0,180)), Value the
// smoothed height, Bin the index in the detection domain.
type Peak struct {
	AngleDeg float64
	Value    float64
	Bin      int
}

// AutoProminence requests the data-driven prominence threshold when
// passed as minProminence to the peak searches.
const AutoProminence = -1.0

// DirectionPeaks finds local maxima of the full-range direction
// (0-360) distribution with auto-thresholded prominence.
func (a *Analyzer) DirectionPeaks() ([]Peak, error) {
	return a.DirectionPeaksBand(math.Inf(-1), math.Inf(1), math.MaxInt, AutoProminence)
}

// OrientationPeaks finds local maxima of the full-range orientation
// (0-180) distribution with auto-thresholded prominence.
func (a *Analyzer) OrientationPeaks() ([]Peak, error) {
	return a.OrientationPeaksBand(math.Inf(-1), math.Inf(1), math.MaxInt, AutoProminence)
}

// DirectionPeaksBand finds up to maxPeaks directional peaks within the
// radial band [rMin, rMax). Candidates are detected on a 3-point
// circularly smoothed distribution, must exceed minProminence above the
// mean of their neighbors (AutoProminence derives a robust threshold
// from the data), and are greedily selected with a minimum separation
// of two angular bins.
func (a *Analyzer) DirectionPeaksBand(rMin, rMax float64, maxPeaks int, minProminence float64) ([]Peak, error) {
	dist, err := a.AngularDistributionBand(rMin, rMax)
	if err != nil {
		return nil, err
	}
	if floats.Sum(dist) <= 0 {
		return nil, nil
	}
	if minProminence < 0 {
		minProminence = autoProminenceThreshold(dist)
	}
	dir, _ := a.findPeaksCircular(dist, maxPeaks, 2*a.angleStep, minProminence)
	return dir, nil
}

// OrientationPeaksBand is the orientation-domain (0-180) counterpart of
// DirectionPeaksBand.
func (a *Analyzer) OrientationPeaksBand(rMin, rMax float64, maxPeaks int, minProminence float64) ([]Peak, error) {
	dist, err := a.AngularDistributionBand(rMin, rMax)
	if err != nil {
		return nil, err
	}
	if floats.Sum(dist) <= 0 {
		return nil, nil
	}
	if minProminence < 0 {
		minProminence = autoProminenceThreshold(dist)
	}
	_, ori := a.findPeaksCircular(dist, maxPeaks, 2*a.angleStep, minProminence)
	return ori, nil
}

// findPeaksCircular runs both the directional and the orientation
// search from a single smoothing pass, so the two reported peak sets
// stay consistent.
func (a *Analyzer) findPeaksCircular(y []float64, maxPeaks int, minSepDeg, minProminence float64) (dir, ori []Peak) {
	n := len(y)
	if n == 0 {
		return nil, nil
	}
	s := smoothCircular3(y)

	dirCand := candidates(s, a.angleStep, 360, minProminence)
	dir = suppress(dirCand, maxPeaks, minSepDeg, 360)

	if n%2 == 0 {
		// Fold antipodal bins: fold[i] = s[i] + s[i+n/2]. The bin width
		// is unchanged (360/n == 180/(n/2)).
		half := n / 2
		fold := make([]float64, half)
		for i := range fold {
			fold[i] = s[i] + s[i+half]
		}
		oriCand := candidates(fold, a.angleStep, 180, minProminence)
		ori = suppress(oriCand, maxPeaks, minSepDeg, 180)
	} else {
		// Odd bin counts cannot fold; run on s and map angles mod 180.
		oriCand := candidates(s, a.angleStep, 180, minProminence)
		ori = suppress(oriCand, maxPeaks, minSepDeg, 180)
	}
	return dir, ori
}

// candidates returns the local maxima of the smoothed circular series
// whose prominence s[i] - 0.5*(s[i-1]+s[i+1]) reaches minProminence.
// The strict-then-nonstrict comparison breaks plateau ties in favor of
// the earlier index.
func candidates(s []float64, stepDeg, wrapDeg, minProminence float64) []Peak {
	n := len(s)
	var out []Peak
	for i := 0; i < n; i++ {
		prev := s[(i-1+n)%n]
		cur := s[i]
		next := s[(i+1)%n]
		if cur > prev && cur >= next {
			prom := cur - 0.5*(prev+next)
			if prom >= minProminence {
				ang := (float64(i) + 0.5) * stepDeg
				if wrapDeg == 180 {
					ang = circstat.Norm180(ang)
				} else {
					ang = circstat.Norm360(ang)
				}
				out = append(out, Peak{AngleDeg: ang, Value: cur, Bin: i})
			}
		}
	}
	return out
}

// suppress applies greedy non-maximum suppression: candidates sorted by
// height descending are accepted only when at least minSepDeg away from
// every accepted peak under the circular wrap metric.
func suppress(cands []Peak, maxPeaks int, minSepDeg, wrapDeg float64) []Peak {
	if len(cands) == 0 {
		return nil
	}
	sorted := append([]Peak(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	sep := math.Max(0, minSepDeg)
	if maxPeaks < 1 {
		maxPeaks = 1
	}
	var out []Peak
	for _, p := range sorted {
		ok := true
		for _, q := range out {
			d := math.Abs(p.AngleDeg - q.AngleDeg)
			if d > wrapDeg/2 {
				d = wrapDeg - d
			}
			if d < sep {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
			if len(out) >= maxPeaks {
				break
			}
		}
	}
	return out
}

// smoothCircular3 applies a 3-point circular moving average.
func smoothCircular3(y []float64) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}
	s := make([]float64, n)
	for i := range y {
		s[i] = (y[(i-1+n)%n] + y[i] + y[(i+1)%n]) / 3
	}
	return s
}

// autoProminenceThreshold derives a data-driven prominence threshold:
// median + 1.5*MAD of the positive local prominences, capped at half
// the maximum prominence, and relaxed to a tenth of the maximum when
// fewer than 4 positive-prominence bins exist (too little evidence for
// a robust median/MAD).
func autoProminenceThreshold(y []float64) float64 {
	s := smoothCircular3(y)
	n := len(s)
	if n == 0 {
		return 0
	}
	var pos []float64
	maxProm := 0.0
	for i := range s {
		p := s[i] - 0.5*(s[(i-1+n)%n]+s[(i+1)%n])
		if p > maxProm {
			maxProm = p
		}
		if p > 0 {
			pos = append(pos, p)
		}
	}
	if len(pos) == 0 {
		return 0
	}
	med := median(pos)
	mad := medianAbsoluteDeviation(pos, med)
	thr := math.Max(0, med+1.5*mad)
	if maxProm > 0 {
		thr = math.Min(thr, 0.5*maxProm)
	}
	if len(pos) < 4 {
		thr = 0.1 * maxProm
	}
	return thr
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

func medianAbsoluteDeviation(values []float64, med float64) float64 {
	if len(values) == 0 || math.IsNaN(med) {
		return math.NaN()
	}
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	return median(dev)
}
