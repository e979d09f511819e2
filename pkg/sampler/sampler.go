// Package sampler converts a traced arbor into a Sholl profile by
// sampling a nested family of concentric spheres around a center point.
// Two modes are supported: continuous (one entry per distinct endpoint
// distance) and fixed-step (one entry per shell of width stepSize).
package sampler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"

	"shollgo/pkg/arbor"
	"shollgo/pkg/geom"
	"shollgo/pkg/profile"
)

// Configuration and input failures surfaced by Parse and the setters.
var (
	// ErrInvalidTree is returned when parsing a nil or empty tree.
	ErrInvalidTree = errors.New("sampler: tree is nil or empty")

	// ErrNoCenter is returned when parsing starts before a center was set.
	ErrNoCenter = errors.New("sampler: center must be set before parsing")

	// ErrNoSegments is returned when the tree holds paths but no segments.
	ErrNoSegments = errors.New("sampler: tree contains no segments")

	// ErrImmutableAfterParse is returned by setters invoked after a
	// profile has already been produced.
	ErrImmutableAfterParse = errors.New("sampler: setting is immutable once data has been parsed")
)

// DefaultGroupingScale is the fraction of the mean radius used as the
// component-grouping distance threshold in continuous mode. Empirical
// default; tune via SetGroupingScale.
const DefaultGroupingScale = 0.01

// minShellThickness floors the thin-shell width used by continuous-mode
// length sampling, so degenerate reconstructions never produce a
// zero-width shell.
const minShellThickness = 1e-9

// Sampler builds a Profile from a Tree. Configure the center and the
// sampling options, then call Parse. All setters fail once a profile
// exists. A parse may be cancelled from another goroutine via Terminate;
// a cancelled parse leaves a partial profile that must not be trusted
// unless Successful reports true.
type Sampler struct {
	tree *arbor.Tree

	center    arbor.Point
	hasCenter bool
	stepSize  float64

	skipSomatic   bool
	includeVolume bool
	groupingScale float64

	prof    *profile.Profile
	index   *CrossingIndex
	running atomic.Bool

	// intrinsic caches the median inter-node spacing; < 0 means unset.
	intrinsic float64
}

// New returns a sampler for the given tree with continuous sampling.
func New(tree *arbor.Tree) *Sampler {
	s := &Sampler{tree: tree, groupingScale: DefaultGroupingScale, intrinsic: -1}
	s.running.Store(true)
	return s
}

// SetCenter sets the focal point of the profile. Must be called before
// parsing.
func (s *Sampler) SetCenter(c arbor.Point) error {
	if s.Successful() {
		return fmt.Errorf("set center: %w", ErrImmutableAfterParse)
	}
	s.center = c
	s.hasCenter = true
	return nil
}

// SetCenterStrategy derives the center from the tree's root nodes
// according to the given strategy.
func (s *Sampler) SetCenterStrategy(strategy arbor.CenterStrategy) error {
	if s.Successful() {
		return fmt.Errorf("set center: %w", ErrImmutableAfterParse)
	}
	c, err := s.tree.CenterOf(strategy)
	if err != nil {
		return fmt.Errorf("set center: %w", err)
	}
	s.center = c
	s.hasCenter = true
	return nil
}

// Center returns the configured center point. ok is false when unset.
func (s *Sampler) Center() (arbor.Point, bool) {
	return s.center, s.hasCenter
}

// SetStepSize selects fixed-step sampling with shells of the given
// width. Zero or negative selects continuous sampling.
func (s *Sampler) SetStepSize(step float64) error {
	if s.Successful() {
		return fmt.Errorf("set step size: %w", ErrImmutableAfterParse)
	}
	if step < 0 {
		step = 0
	}
	s.stepSize = step
	return nil
}

// SetSkipSomaticSegments controls whether the first segment of each
// path is ignored when the tree's root path is a single-point soma.
// Useful when the soma is large relative to the arbor.
func (s *Sampler) SetSkipSomaticSegments(skip bool) error {
	if s.Successful() {
		return fmt.Errorf("set skip-somatic: %w", ErrImmutableAfterParse)
	}
	s.skipSomatic = skip
	return nil
}

// SetIncludeVolume enables frustum-based cable volume as each entry's
// extra measurement. Requires per-node radii to contribute.
func (s *Sampler) SetIncludeVolume(enabled bool) error {
	if s.Successful() {
		return fmt.Errorf("set include-volume: %w", ErrImmutableAfterParse)
	}
	s.includeVolume = enabled
	return nil
}

// SetGroupingScale overrides the fraction of the mean radius used as
// the continuous-mode grouping threshold.
func (s *Sampler) SetGroupingScale(scale float64) error {
	if s.Successful() {
		return fmt.Errorf("set grouping scale: %w", ErrImmutableAfterParse)
	}
	if scale <= 0 {
		scale = DefaultGroupingScale
	}
	s.groupingScale = scale
	return nil
}

// Terminate requests cooperative cancellation of a running parse. The
// flag transitions once; a terminated sampler cannot be resumed.
func (s *Sampler) Terminate() {
	s.running.Store(false)
}

// Successful reports whether a complete, non-degenerate profile exists.
func (s *Sampler) Successful() bool {
	return s.prof != nil && !s.prof.Empty()
}

// Profile returns the parsed profile, or nil before Parse.
func (s *Sampler) Profile() *profile.Profile {
	return s.prof
}

// Index returns the crossing-count index built during Parse, or nil
// before Parse. The index also serves external rasterization (e.g.,
// labels images) via CrossingsAt queries.
func (s *Sampler) Index() *CrossingIndex {
	return s.index
}

// Parse samples the tree and builds the profile. It fails fast on an
// empty tree or missing center; a cancelled parse returns nil but
// leaves Successful false (or a partial profile).
func (s *Sampler) Parse() error {
	if s.tree.Empty() {
		return ErrInvalidTree
	}
	if !s.hasCenter {
		return ErrNoCenter
	}

	prof := profile.New()
	prof.SetIdentifier(s.tree.Label)
	if s.tree.Is3D() {
		prof.SetDimensions(3)
	} else {
		prof.SetDimensions(2)
	}
	prof.SetCenter(s.center)
	prof.SetSource(profile.SourceTraces)
	s.prof = prof

	events := s.assembleEvents()
	if !s.running.Load() {
		return nil
	}
	if len(events) == 0 {
		return ErrNoSegments
	}
	s.index = buildCrossingIndex(events)

	if s.stepSize > 0 {
		s.sampleFixedStep()
	} else {
		s.sampleContinuous()
	}

	eff := s.stepSize
	if eff <= 0 {
		eff = s.intrinsicScale()
	}
	prof.SetEffectiveStepSize(eff)
	return nil
}

// assembleEvents records both endpoint distances of every segment.
// Duplicate distances are deliberately retained: multiple segments can
// legitimately share identical radii.
func (s *Sampler) assembleEvents() []event {
	var events []event
	s.forEachSegment(func(p1, p2 arbor.Point, _, _ float64) {
		d1 := p1.DistanceSquaredTo(s.center)
		d2 := p2.DistanceSquaredTo(s.center)
		nearer := d1 < d2
		events = append(events, event{distSq: d1, entering: nearer})
		events = append(events, event{distSq: d2, entering: !nearer})
	})
	return events
}

// forEachSegment visits every segment honoring the skip-somatic option
// and the cancellation flag (checked between paths and segments).
func (s *Sampler) forEachSegment(fn func(p1, p2 arbor.Point, r1, r2 float64)) {
	skip := s.skipFirstNode()
	rootPath := s.tree.RootPath()
	for _, path := range s.tree.Paths {
		if !s.running.Load() {
			return
		}
		if path.Size() == 0 || (skip && path == rootPath) {
			continue
		}
		// Only primary paths begin at the soma point; branch paths begin
		// at a fork node and keep their first segment.
		start := 0
		if skip && path.Primary {
			start = 1
		}
		for i := start; i < path.Size()-1; i++ {
			if !s.running.Load() {
				return
			}
			fn(path.Node(i), path.Node(i+1), path.NodeRadius(i), path.NodeRadius(i+1))
		}
	}
}

func (s *Sampler) skipFirstNode() bool {
	if !s.skipSomatic {
		return false
	}
	rp := s.tree.RootPath()
	return rp != nil && rp.Size() == 1 && rp.Type == arbor.TypeSoma
}

// sampleContinuous emits one entry per recorded endpoint distance.
func (s *Sampler) sampleContinuous() {
	for _, d2 := range s.index.radiiSquared() {
		if !s.running.Load() {
			return
		}
		x := math.Sqrt(d2)
		points := s.intersectionsAtRadius(x)
		entry := profile.Entry{
			Radius: x,
			Count:  float64(len(points)),
			Length: s.cableLengthAtRadius(x),
			Points: groupComponents(points, s.continuousThresholdSq(points)),
		}
		if s.includeVolume {
			t := s.shellThicknessAt(x)
			entry.Extra = s.cableVolumeInShell(x-t/2, x+t/2)
		}
		s.prof.Add(entry)
	}
}

// sampleFixedStep emits one entry per shell [i*step, (i+1)*step),
// skipping shells entirely below the minimum observed distance.
func (s *Sampler) sampleFixedStep() {
	minDist := s.index.MinDistance()
	maxDist := s.index.MaxDistance()
	nShells := int(math.Ceil(maxDist / s.stepSize))
	thresholdSq := s.stepSize * s.stepSize
	for i := 0; i < nShells; i++ {
		if !s.running.Load() {
			return
		}
		x := float64(i) * s.stepSize
		if x+s.stepSize <= minDist {
			continue
		}
		points := s.intersectionsInShell(x, x+s.stepSize)
		groups := groupComponents(points, thresholdSq)
		entry := profile.Entry{
			Radius: x,
			Count:  float64(len(groups)),
			Length: s.cableLengthInShell(x, x+s.stepSize),
			Points: groups,
		}
		if s.includeVolume {
			entry.Extra = s.cableVolumeInShell(x, x+s.stepSize)
		}
		s.prof.Add(entry)
	}
}

// intersectionsAtRadius collects the exact sphere crossings of every
// segment at the given radius, with coordinate duplicates removed.
func (s *Sampler) intersectionsAtRadius(radius float64) []arbor.Point {
	var points []arbor.Point
	s.forEachSegment(func(p1, p2 arbor.Point, _, _ float64) {
		points = append(points, geom.SegmentSphereIntersections(p1, p2, s.center, radius)...)
	})
	return dedupPoints(points)
}

// intersectionsInShell collects crossings of both bounding spheres of
// the shell, so inner and outer crossings of the same neurite can later
// be grouped into one component.
func (s *Sampler) intersectionsInShell(rInner, rOuter float64) []arbor.Point {
	var points []arbor.Point
	s.forEachSegment(func(p1, p2 arbor.Point, _, _ float64) {
		points = append(points, geom.SegmentShellIntersections(p1, p2, s.center, rInner, rOuter)...)
	})
	return points
}

// continuousThresholdSq derives the grouping distance for continuous
// mode: max(groupingScale * mean radius, intrinsic node spacing),
// squared.
func (s *Sampler) continuousThresholdSq(points []arbor.Point) float64 {
	if len(points) == 0 {
		return 0
	}
	distSq := make([]float64, len(points))
	for i, p := range points {
		distSq[i] = p.DistanceSquaredTo(s.center)
	}
	rBar := math.Sqrt(stat.Mean(distSq, nil))
	scale := s.intrinsicScale()
	if scale <= 0 {
		scale = minShellThickness
	}
	thr := math.Max(s.groupingScale*rBar, scale)
	return thr * thr
}

// cableLengthInShell sums, over all segments, the cable length inside
// the shell [rInner, rOuter).
func (s *Sampler) cableLengthInShell(rInner, rOuter float64) float64 {
	var total float64
	s.forEachSegment(func(p1, p2 arbor.Point, _, _ float64) {
		// Both endpoints inside the inner sphere keeps the whole segment
		// inside it. No outer-side reject: a segment with both endpoints
		// beyond rOuter can still chord through the shell.
		if math.Max(p1.DistanceTo(s.center), p2.DistanceTo(s.center)) < rInner {
			return
		}
		total += geom.SegmentLengthInShell(p1, p2, s.center, rInner, rOuter)
	})
	return total
}

// cableLengthAtRadius approximates the length "at" a radius using a
// thin shell centered on it.
func (s *Sampler) cableLengthAtRadius(radius float64) float64 {
	t := s.shellThicknessAt(radius)
	return s.cableLengthInShell(radius-t/2, radius+t/2)
}

// shellThicknessAt returns the thin-shell width for continuous-mode
// sampling at the given radius: the fixed step when one is set, else
// max(1% of the radius, intrinsic node spacing), floored.
func (s *Sampler) shellThicknessAt(radius float64) float64 {
	if s.stepSize > 0 {
		return s.stepSize
	}
	scale := s.intrinsicScale()
	if scale <= 0 {
		scale = minShellThickness
	}
	return math.Max(radius*0.01, scale)
}

// cableVolumeInShell sums frustum volumes of the tapered sub-segments
// inside the shell.
func (s *Sampler) cableVolumeInShell(rInner, rOuter float64) float64 {
	var total float64
	s.forEachSegment(func(p1, p2 arbor.Point, nr1, nr2 float64) {
		total += geom.SegmentVolumeInShell(p1, p2, nr1, nr2, s.center, rInner, rOuter)
	})
	return total
}

// intrinsicScale returns the median distance between consecutive nodes
// across all paths, an image-calibration-independent spatial scale of
// the reconstruction. Cached after first use; 0 when no segments exist.
func (s *Sampler) intrinsicScale() float64 {
	if s.intrinsic >= 0 {
		return s.intrinsic
	}
	var lengthsSq []float64
	s.forEachSegment(func(p1, p2 arbor.Point, _, _ float64) {
		lengthsSq = append(lengthsSq, p1.DistanceSquaredTo(p2))
	})
	if len(lengthsSq) == 0 {
		s.intrinsic = 0
		return 0
	}
	sort.Float64s(lengthsSq)
	s.intrinsic = math.Sqrt(medianOfSorted(lengthsSq))
	return s.intrinsic
}

// medianOfSorted returns the midpoint-averaged median of a sorted slice.
func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}
