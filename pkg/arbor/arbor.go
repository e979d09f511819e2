// Package arbor defines the in-memory model of a traced neuronal arbor:
// an ordered collection of paths, each an ordered sequence of 3D points
// with optional per-node radii. The model is read-only as far as the
// analysis packages are concerned; they never mutate a Tree.
package arbor

import (
	"errors"
	"math"
)

// PathType tags a path with its morphological identity, following the
// SWC convention used by most reconstruction formats.
type PathType int

const (
	// TypeUndefined marks paths without a morphological tag.
	TypeUndefined PathType = iota

	// TypeSoma marks cell-body paths. A single-point primary soma path
	// is what the sampler's skip-somatic-segments option keys on.
	TypeSoma

	// TypeAxon marks axonal paths.
	TypeAxon

	// TypeDendrite marks (basal) dendritic paths.
	TypeDendrite

	// TypeApicalDendrite marks apical dendritic paths.
	TypeApicalDendrite

	// TypeCustom marks paths with user-defined tags.
	TypeCustom
)

// Point is a 3D coordinate in calibrated physical units. 2D data is the
// Z=0 special case.
type Point struct {
	X, Y, Z float64
}

// DistanceSquaredTo returns the squared Euclidean distance to q. Hot
// paths prefer this over DistanceTo to avoid the square root.
func (p Point) DistanceSquaredTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Sqrt(p.DistanceSquaredTo(q))
}

// Scale multiplies the point coordinates by per-axis factors.
func (p Point) Scale(sx, sy, sz float64) Point {
	return Point{X: p.X * sx, Y: p.Y * sy, Z: p.Z * sz}
}

// Average returns the centroid of the given points. The zero Point is
// returned for an empty slice.
func Average(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy, sz float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
		sz += p.Z
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n, Z: sz / n}
}

// Azimuth returns the azimuthal angle of p around center, in degrees
// normalized to [0, 360). The angle is measured in the XY plane, which
// is the projection used when binning intersection locations into
// angular sectors.
func Azimuth(center, p Point) float64 {
	deg := math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Path is an ordered sequence of connected points traced along a single
// neurite. Consecutive points define the line segments the analysis
// operates on.
type Path struct {
	// Points are the path nodes, in traced order.
	Points []Point

	// Radii holds the per-node radius in the same units as Points.
	// It is either nil (no radius information) or len(Points) long;
	// individual unknown radii are NaN.
	Radii []float64

	// Type is the morphological tag of the path.
	Type PathType

	// Primary marks paths that originate at the root rather than
	// branching off another path.
	Primary bool
}

// Size returns the number of nodes in the path.
func (p *Path) Size() int {
	return len(p.Points)
}

// Node returns the i-th node of the path.
func (p *Path) Node(i int) Point {
	return p.Points[i]
}

// NodeRadius returns the radius at node i, or NaN when unknown.
func (p *Path) NodeRadius(i int) float64 {
	if p.Radii == nil || i >= len(p.Radii) {
		return math.NaN()
	}
	return p.Radii[i]
}

// Tree is an ordered collection of paths forming a traced arbor.
type Tree struct {
	// Label identifies the reconstruction (e.g., the source filename).
	Label string

	// Paths are the traced paths, in file order.
	Paths []*Path
}

// Empty reports whether the tree holds no paths.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Paths) == 0
}

// Is3D reports whether any node has a nonzero Z coordinate.
func (t *Tree) Is3D() bool {
	if t == nil {
		return false
	}
	for _, p := range t.Paths {
		for _, pt := range p.Points {
			if pt.Z != 0 {
				return true
			}
		}
	}
	return false
}

// RootPath returns the first primary path, or nil when none exists.
func (t *Tree) RootPath() *Path {
	if t == nil {
		return nil
	}
	for _, p := range t.Paths {
		if p.Primary && p.Size() > 0 {
			return p
		}
	}
	return nil
}

// Root returns the designated root point of the tree (the first node of
// the first primary path). ok is false when the tree has no such path.
func (t *Tree) Root() (Point, bool) {
	rp := t.RootPath()
	if rp == nil {
		return Point{}, false
	}
	return rp.Node(0), true
}

// CenterStrategy selects how a profile center is derived from the tree
// when no explicit point is supplied.
type CenterStrategy int

const (
	// RootNodesAny averages the root nodes of all primary paths,
	// falling back to the first node of the first path when the tree
	// has no primary paths.
	RootNodesAny CenterStrategy = iota

	// RootNodesUndefined averages root nodes of untagged primary paths.
	RootNodesUndefined

	// RootNodesSoma averages root nodes of primary soma paths.
	RootNodesSoma

	// RootNodesSomaAny averages root nodes of all soma paths,
	// independently of connectivity.
	RootNodesSomaAny

	// RootNodesAxon averages root nodes of primary axon paths.
	RootNodesAxon

	// RootNodesDendrite averages root nodes of primary dendrite paths.
	RootNodesDendrite

	// RootNodesApicalDendrite averages root nodes of primary apical
	// dendrite paths.
	RootNodesApicalDendrite

	// RootNodesCustom averages root nodes of primary custom-tagged paths.
	RootNodesCustom
)

// ErrNoMatchingPaths is returned by CenterOf when no path in the tree
// matches the requested strategy.
var ErrNoMatchingPaths = errors.New("arbor: tree contains no paths matching center strategy")

// CenterOf computes a profile center as the average position of root
// nodes selected by the given strategy.
func (t *Tree) CenterOf(strategy CenterStrategy) (Point, error) {
	if t.Empty() {
		return Point{}, ErrNoMatchingPaths
	}
	var typeFilter PathType
	hasFilter := true
	primaryOnly := true
	switch strategy {
	case RootNodesAny:
		hasFilter = false
	case RootNodesUndefined:
		typeFilter = TypeUndefined
	case RootNodesSoma:
		typeFilter = TypeSoma
	case RootNodesSomaAny:
		typeFilter = TypeSoma
		primaryOnly = false
	case RootNodesAxon:
		typeFilter = TypeAxon
	case RootNodesDendrite:
		typeFilter = TypeDendrite
	case RootNodesApicalDendrite:
		typeFilter = TypeApicalDendrite
	case RootNodesCustom:
		typeFilter = TypeCustom
	default:
		return Point{}, errors.New("arbor: unrecognized center strategy")
	}

	var roots []Point
	for _, p := range t.Paths {
		if p.Size() == 0 {
			continue
		}
		if primaryOnly && !p.Primary {
			continue
		}
		if hasFilter && p.Type != typeFilter {
			continue
		}
		roots = append(roots, p.Node(0))
	}
	if len(roots) == 0 {
		if strategy == RootNodesAny {
			// No primary paths tagged; fall back to the first node of
			// the first non-empty path.
			for _, p := range t.Paths {
				if p.Size() > 0 {
					return p.Node(0), nil
				}
			}
		}
		return Point{}, ErrNoMatchingPaths
	}
	return Average(roots), nil
}
