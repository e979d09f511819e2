// Package circstat provides circular-statistics utilities shared by the
// polar analysis: angle normalization, von Mises concentration
// estimation and histogram/pair moment fits for directional (0-360)
// and axial (0-180) data.
package circstat

import "math"

// Domain identifies how angles wrap. Directional data distinguishes
// opposite directions; axial data treats them as equivalent.
type Domain int

const (
	// Directional operates on angles in [0, 360) degrees.
	Directional Domain = iota

	// Axial operates on orientations in [0, 180) degrees; the fit works
	// on doubled angles and halves the resulting mean.
	Axial
)

// VonMisesFit summarizes a von Mises fit on circular or axial data.
// MuDeg is the mean direction/orientation in degrees (NaN when the
// distribution is empty), Kappa the concentration (0 = uniform), and
// RBar the mean resultant length in [0,1], equal to the ADC for
// directional fits and the ODC for axial fits.
type VonMisesFit struct {
	MuDeg  float64
	Kappa  float64
	RBar   float64
	Domain Domain
}

// Norm360 normalizes an angle in degrees to [0, 360).
func Norm360(deg float64) float64 {
	x := math.Mod(deg, 360)
	if x < 0 {
		x += 360
	}
	return x
}

// Norm180 normalizes an angle in degrees to [0, 180).
func Norm180(deg float64) float64 {
	x := math.Mod(deg, 180)
	if x < 0 {
		x += 180
	}
	return x
}

// KappaFromRBar estimates the von Mises concentration from the mean
// resultant length using the standard piecewise approximations (Fisher,
// Statistical Analysis of Circular Data; CircStat).
func KappaFromRBar(r float64) float64 {
	if !(r > 0) {
		return 0
	}
	if r < 0.53 {
		return 2*r + r*r*r + 5*r*r*r*r*r/6
	}
	if r < 0.85 {
		return -0.4 + 1.39*r + 0.43/(1-r)
	}
	return 1 / (r*r*r - 4*r*r + 3*r)
}

// FitFromHistogram fits a von Mises distribution to a weighted angular
// histogram whose i-th bin is centered at (i+0.5)*angleStepDeg degrees.
func FitFromHistogram(weights []float64, angleStepDeg float64, domain Domain) VonMisesFit {
	if len(weights) == 0 || !(angleStepDeg > 0) {
		return VonMisesFit{MuDeg: math.NaN(), Domain: domain}
	}
	step := angleStepDeg * math.Pi / 180
	mult := 1.0
	if domain == Axial {
		mult = 2
	}
	var c, s, w float64
	for i, weight := range weights {
		if !(weight > 0) {
			continue
		}
		th := mult * (float64(i) + 0.5) * step
		c += weight * math.Cos(th)
		s += weight * math.Sin(th)
		w += weight
	}
	return fitFromMoments(c, s, w, domain)
}

// FitFromPairs fits a von Mises distribution to angle/weight pairs.
// A nil weights slice means unit weights.
func FitFromPairs(anglesDeg, weights []float64, domain Domain) VonMisesFit {
	if len(anglesDeg) == 0 {
		return VonMisesFit{MuDeg: math.NaN(), Domain: domain}
	}
	var c, s, w float64
	for i, ang := range anglesDeg {
		weight := 1.0
		if weights != nil {
			weight = weights[i]
		}
		if !(weight > 0) {
			continue
		}
		th := ang * math.Pi / 180
		if domain == Axial {
			th *= 2
		}
		c += weight * math.Cos(th)
		s += weight * math.Sin(th)
		w += weight
	}
	return fitFromMoments(c, s, w, domain)
}

func fitFromMoments(c, s, w float64, domain Domain) VonMisesFit {
	if !(w > 0) {
		return VonMisesFit{MuDeg: math.NaN(), Domain: domain}
	}
	rBar := math.Hypot(c, s) / w
	mu := math.Atan2(s, c) * 180 / math.Pi
	if domain == Axial {
		mu = Norm180(mu / 2)
	} else {
		mu = Norm360(mu)
	}
	return VonMisesFit{MuDeg: mu, Kappa: KappaFromRBar(rBar), RBar: rBar, Domain: domain}
}
