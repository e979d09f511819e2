// Package profile defines the radius-indexed result container produced
// by shell sampling. A Profile keeps its entries sorted by radius and
// owns the derived quantities (step size, start/end radius) consumed by
// downstream analysis.
package profile

import (
	"errors"
	"math"
	"sort"

	"shollgo/pkg/arbor"
)

// Source tags describing where a profile came from.
const (
	SourceTraces = "traces"
	SourceUnset  = "unset"
)

// Entry holds the measurements sampled at a single radius.
type Entry struct {
	// Radius is the sampling radius (continuous mode) or the inner
	// radius of the sampled shell (fixed-step mode), in physical units.
	Radius float64

	// Count is the number of intersections/crossings at this radius.
	// It may be fractional after centroid-weighted angular distribution.
	Count float64

	// Length is the cable length within the sampled shell, in the same
	// units as Radius.
	Length float64

	// Extra is an ad-hoc scalar measurement (e.g., cable volume).
	Extra float64

	// Points are the located intersections at this radius, one per
	// connected component. May be empty when locations are unknown.
	Points []arbor.Point
}

// Profile is a collection of entries sorted by radius, plus metadata
// describing the sampled structure.
type Profile struct {
	entries []Entry

	center    arbor.Point
	hasCenter bool

	identifier string
	dimensions int
	source     string

	// effectiveStep records the sampling scale: the fixed step size, or
	// the intrinsic median inter-node spacing for continuous profiles.
	effectiveStep float64

	// stepSize caches the mean radius delta; < 0 means stale.
	stepSize float64
}

// New returns an empty profile.
func New() *Profile {
	return &Profile{source: SourceUnset, stepSize: -1}
}

// FromSamples builds a profile from parallel radius and count slices.
// Only useful for imported/tabular data; parser-built profiles carry
// lengths and intersection locations as well.
func FromSamples(radii, counts []float64) (*Profile, error) {
	if len(radii) == 0 || len(radii) != len(counts) {
		return nil, errors.New("profile: radius and count slices must be non-empty and equal length")
	}
	p := New()
	for i := range radii {
		p.Add(Entry{Radius: radii[i], Count: counts[i]})
	}
	return p, nil
}

// Add appends an entry, keeping the collection sorted by radius.
// Entries with duplicate radii are retained, not merged.
func (p *Profile) Add(e Entry) {
	p.stepSize = -1
	if n := len(p.entries); n == 0 || p.entries[n-1].Radius <= e.Radius {
		p.entries = append(p.entries, e)
		return
	}
	i := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].Radius > e.Radius
	})
	p.entries = append(p.entries, Entry{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = e
}

// Entries returns the sorted entries. The returned slice is the
// profile's backing store; callers must not reorder it.
func (p *Profile) Entries() []Entry {
	return p.entries
}

// Size returns the number of entries.
func (p *Profile) Size() int {
	return len(p.entries)
}

// StartRadius returns the smallest sampled radius, or NaN when empty.
func (p *Profile) StartRadius() float64 {
	if len(p.entries) == 0 {
		return math.NaN()
	}
	return p.entries[0].Radius
}

// EndRadius returns the largest sampled radius, or NaN when empty.
func (p *Profile) EndRadius() float64 {
	if len(p.entries) == 0 {
		return math.NaN()
	}
	return p.entries[len(p.entries)-1].Radius
}

// StepSize returns the mean radius delta across consecutive entries.
// The value is memoized and invalidated on any mutation.
func (p *Profile) StepSize() float64 {
	if p.stepSize < 0 {
		p.stepSize = p.computeStepSize()
	}
	return p.stepSize
}

func (p *Profile) computeStepSize() float64 {
	if len(p.entries) == 0 {
		return 0
	}
	var sum float64
	for i := 1; i < len(p.entries); i++ {
		sum += p.entries[i].Radius - p.entries[i-1].Radius
	}
	return sum / float64(len(p.entries))
}

// Radii returns the sampled radii in ascending order.
func (p *Profile) Radii() []float64 {
	out := make([]float64, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Radius
	}
	return out
}

// Counts returns the per-radius intersection counts.
func (p *Profile) Counts() []float64 {
	out := make([]float64, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Count
	}
	return out
}

// CountAtRadius returns the count of the entry whose radius lies within
// one step of the queried radius, or NaN when no entry qualifies.
func (p *Profile) CountAtRadius(radius float64) float64 {
	step := p.StepSize()
	for _, e := range p.entries {
		if e.Radius < radius+step && e.Radius >= radius-step {
			return e.Count
		}
	}
	return math.NaN()
}

// MaxCount returns the largest count in the profile, or NaN when empty.
func (p *Profile) MaxCount() float64 {
	if len(p.entries) == 0 {
		return math.NaN()
	}
	maxC := p.entries[0].Count
	for _, e := range p.entries[1:] {
		if e.Count > maxC {
			maxC = e.Count
		}
	}
	return maxC
}

// ZeroCounts returns the number of entries with a zero count.
func (p *Profile) ZeroCounts() int {
	n := 0
	for _, e := range p.entries {
		if e.Count == 0 {
			n++
		}
	}
	return n
}

// TrimZeroCounts removes entries whose radius or count is zero.
func (p *Profile) TrimZeroCounts() {
	p.removeIf(func(e Entry) bool { return e.Radius == 0 || e.Count == 0 })
}

// TrimNaNCounts removes entries whose count is NaN.
func (p *Profile) TrimNaNCounts() {
	p.removeIf(func(e Entry) bool { return math.IsNaN(e.Count) })
}

func (p *Profile) removeIf(drop func(Entry) bool) {
	kept := p.entries[:0]
	for _, e := range p.entries {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	p.entries = kept
	p.stepSize = -1
}

// Empty reports whether the profile holds no usable data: no entries,
// or all-zero counts.
func (p *Profile) Empty() bool {
	return p == nil || len(p.entries) == p.ZeroCounts()
}

// HasPoints reports whether any entry carries located intersections.
func (p *Profile) HasPoints() bool {
	for _, e := range p.entries {
		if len(e.Points) > 0 {
			return true
		}
	}
	return false
}

// Center returns the profile center. ok is false when it was never set.
func (p *Profile) Center() (arbor.Point, bool) {
	return p.center, p.hasCenter
}

// SetCenter records the focal point the profile was sampled around.
func (p *Profile) SetCenter(c arbor.Point) {
	p.center = c
	p.hasCenter = true
}

// Identifier returns the profile's identifier (e.g., the tree label).
func (p *Profile) Identifier() string {
	return p.identifier
}

// SetIdentifier assigns the profile's identifier.
func (p *Profile) SetIdentifier(id string) {
	p.identifier = id
}

// Dimensions returns 2 or 3 for spatially tagged profiles, 0 otherwise.
func (p *Profile) Dimensions() int {
	return p.dimensions
}

// SetDimensions records the dimensionality of the sampled structure.
// Values other than 2 or 3 clear the tag.
func (p *Profile) SetDimensions(n int) {
	if n == 2 || n == 3 {
		p.dimensions = n
	} else {
		p.dimensions = 0
	}
}

// Source returns the source tag (SourceTraces for parser-built data).
func (p *Profile) Source() string {
	return p.source
}

// SetSource assigns the source tag.
func (p *Profile) SetSource(src string) {
	p.source = src
}

// EffectiveStepSize returns the sampling scale recorded by the parser:
// the fixed shell step, or for continuous profiles the intrinsic median
// inter-node spacing. Zero when unknown.
func (p *Profile) EffectiveStepSize() float64 {
	return p.effectiveStep
}

// SetEffectiveStepSize records the sampling scale.
func (p *Profile) SetEffectiveStepSize(v float64) {
	p.effectiveStep = v
}

// Duplicate returns a deep copy of the profile.
func (p *Profile) Duplicate() *Profile {
	dup := *p
	dup.entries = make([]Entry, len(p.entries))
	for i, e := range p.entries {
		dup.entries[i] = e
		if e.Points != nil {
			dup.entries[i].Points = append([]arbor.Point(nil), e.Points...)
		}
	}
	return &dup
}

// Scale rescales the profile in place by per-axis factors. Radii are
// multiplied by the isotropic scale (cube root of the factor product);
// center and intersection locations are scaled per axis.
func (p *Profile) Scale(sx, sy, sz float64) error {
	iso := math.Cbrt(sx * sy * sz)
	if math.IsNaN(iso) || iso <= 0 {
		return errors.New("profile: invalid scaling factors")
	}
	if p.hasCenter {
		p.center = p.center.Scale(sx, sy, sz)
	}
	for i := range p.entries {
		p.entries[i].Radius *= iso
		for j, pt := range p.entries[i].Points {
			p.entries[i].Points[j] = pt.Scale(sx, sy, sz)
		}
	}
	p.stepSize = -1
	return nil
}
