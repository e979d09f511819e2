// Package geom provides the geometric primitives of the analysis:
// line–sphere intersection, clipping of a segment to a spherical shell,
// and frustum volume for tapered cable pieces. All functions are pure.
package geom

import (
	"math"
	"sort"

	"shollgo/pkg/arbor"
)

// discriminantTol treats near-zero quadratic discriminants as a single
// tangential root.
const discriminantTol = 1e-12

// LineSphereIntersections solves |p1 + t(p2-p1) - center|^2 = radius^2
// and returns the parametric roots, unfiltered. Zero, one (tangential)
// or two values are returned; only roots in [0,1] lie on the segment.
func LineSphereIntersections(p1, p2, center arbor.Point, radius float64) []float64 {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	dz := p2.Z - p1.Z
	fx := p1.X - center.X
	fy := p1.Y - center.Y
	fz := p1.Z - center.Z

	a := dx*dx + dy*dy + dz*dz
	b := 2 * (fx*dx + fy*dy + fz*dz)
	c := fx*fx + fy*fy + fz*fz - radius*radius

	if a == 0 {
		// Degenerate zero-length segment: no parametric roots.
		return nil
	}
	disc := b*b - 4*a*c
	switch {
	case disc < -discriminantTol:
		return nil
	case disc < discriminantTol:
		return []float64{-b / (2 * a)}
	default:
		sqrtD := math.Sqrt(disc)
		return []float64{(-b - sqrtD) / (2 * a), (-b + sqrtD) / (2 * a)}
	}
}

// SegmentSphereIntersections returns the points where the segment
// p1-p2 crosses the sphere of the given radius, in segment order.
func SegmentSphereIntersections(p1, p2, center arbor.Point, radius float64) []arbor.Point {
	var pts []arbor.Point
	for _, t := range LineSphereIntersections(p1, p2, center, radius) {
		if t >= 0 && t <= 1 {
			pts = append(pts, lerp(p1, p2, t))
		}
	}
	return pts
}

// SegmentShellIntersections returns the points where the segment p1-p2
// crosses either bounding sphere of the shell [rInner, rOuter], keeping
// only crossings that actually lie on the shell surface.
func SegmentShellIntersections(p1, p2, center arbor.Point, rInner, rOuter float64) []arbor.Point {
	var pts []arbor.Point
	for _, radius := range [2]float64{rInner, rOuter} {
		for _, t := range LineSphereIntersections(p1, p2, center, radius) {
			if t < 0 || t > 1 {
				continue
			}
			pt := lerp(p1, p2, t)
			d := pt.DistanceTo(center)
			if d >= rInner-discriminantTol && d <= rOuter+discriminantTol {
				pts = append(pts, pt)
			}
		}
	}
	return pts
}

// ShellIntervals returns the parametric sub-intervals of the segment
// p1-p2 that lie inside the shell [rInner, rOuter), sorted and
// non-overlapping. The segment is split at every crossing of either
// bounding sphere, so each returned interval has a monotone distance to
// the center and a constant radius gradient.
func ShellIntervals(p1, p2, center arbor.Point, rInner, rOuter float64) [][2]float64 {
	d1 := p1.DistanceTo(center)
	d2 := p2.DistanceTo(center)
	if d1 >= rInner && d1 <= rOuter && d2 >= rInner && d2 <= rOuter {
		// Both endpoints inside: the nearest point of the segment to the
		// center can still dip below rInner, so only shortcut when no
		// inner-sphere crossing exists.
		if len(boundedRoots(p1, p2, center, rInner)) == 0 {
			return [][2]float64{{0, 1}}
		}
	}

	cuts := []float64{0, 1}
	cuts = append(cuts, boundedRoots(p1, p2, center, rInner)...)
	cuts = append(cuts, boundedRoots(p1, p2, center, rOuter)...)
	sort.Float64s(cuts)

	var intervals [][2]float64
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		if hi-lo <= discriminantTol {
			continue
		}
		mid := lerp(p1, p2, (lo+hi)/2)
		d := mid.DistanceTo(center)
		if d >= rInner && d < rOuter {
			intervals = append(intervals, [2]float64{lo, hi})
		}
	}
	return intervals
}

func boundedRoots(p1, p2, center arbor.Point, radius float64) []float64 {
	var out []float64
	for _, t := range LineSphereIntersections(p1, p2, center, radius) {
		if t > 0 && t < 1 {
			out = append(out, t)
		}
	}
	return out
}

// SegmentLengthInShell returns the length of the portion of the segment
// p1-p2 that lies within the shell [rInner, rOuter). Returns 0 when the
// segment never enters the shell.
func SegmentLengthInShell(p1, p2, center arbor.Point, rInner, rOuter float64) float64 {
	segLen := p1.DistanceTo(p2)
	if segLen == 0 {
		return 0
	}
	var frac float64
	for _, iv := range ShellIntervals(p1, p2, center, rInner, rOuter) {
		frac += iv[1] - iv[0]
	}
	return segLen * frac
}

// FrustumVolume returns the volume of a right circular cone frustum of
// height h between end radii r0 and r1: (pi*h/3)*(r0^2 + r0*r1 + r1^2).
func FrustumVolume(h, r0, r1 float64) float64 {
	return math.Pi * h / 3 * (r0*r0 + r0*r1 + r1*r1)
}

// SegmentVolumeInShell returns the volume of the portion of a tapered
// segment lying within the shell [rInner, rOuter). The segment tapers
// linearly from node radius nr1 at p1 to nr2 at p2. When both node
// radii are unknown (NaN) the contribution is zero; when only one is
// known it is used for both ends.
func SegmentVolumeInShell(p1, p2 arbor.Point, nr1, nr2 float64, center arbor.Point, rInner, rOuter float64) float64 {
	r1, r2 := nr1, nr2
	switch {
	case math.IsNaN(r1) && math.IsNaN(r2):
		return 0
	case math.IsNaN(r1):
		r1 = r2
	case math.IsNaN(r2):
		r2 = r1
	}
	segLen := p1.DistanceTo(p2)
	if segLen == 0 {
		return 0
	}
	var vol float64
	for _, iv := range ShellIntervals(p1, p2, center, rInner, rOuter) {
		h := segLen * (iv[1] - iv[0])
		ra := r1 + iv[0]*(r2-r1)
		rb := r1 + iv[1]*(r2-r1)
		vol += FrustumVolume(h, ra, rb)
	}
	return vol
}

func lerp(p1, p2 arbor.Point, t float64) arbor.Point {
	return arbor.Point{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
		Z: p1.Z + t*(p2.Z-p1.Z),
	}
}
