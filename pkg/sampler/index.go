package sampler

import (
	"math"
	"sort"
)

// event marks one segment endpoint on the growing-sphere sweep. A
// segment contributes two events: its nearer endpoint (entering) and
// its farther endpoint (leaving). Distances are kept squared.
type event struct {
	distSq   float64
	entering bool
}

// CrossingIndex answers "how many segments cross the sphere of radius
// r" in O(log n). It is built once per parse from the sorted endpoint
// events: prefix-summing the entering/leaving signs yields, after each
// event, the number of segments whose far endpoint has not yet been
// passed, which is the crossing count for any radius up to the next event.
type CrossingIndex struct {
	distSq    []float64
	crossings []int
}

func buildCrossingIndex(events []event) *CrossingIndex {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].distSq < events[j].distSq
	})
	ix := &CrossingIndex{
		distSq:    make([]float64, len(events)),
		crossings: make([]int, len(events)),
	}
	current := 0
	for i, ev := range events {
		if ev.entering {
			current++
		} else {
			current--
		}
		ix.distSq[i] = ev.distSq
		ix.crossings[i] = current
	}
	return ix
}

// CrossingsAtSquared returns the crossing count for the radius whose
// square is d2. Queries outside the observed event range return 0.
func (ix *CrossingIndex) CrossingsAtSquared(d2 float64) int {
	n := len(ix.distSq)
	if n == 0 || d2 < ix.distSq[0] || d2 > ix.distSq[n-1] {
		return 0
	}
	// Last event with distSq <= d2.
	i := sort.Search(n, func(i int) bool { return ix.distSq[i] > d2 }) - 1
	if i < 0 {
		return 0
	}
	return ix.crossings[i]
}

// CrossingsAt returns the crossing count at the given radius.
func (ix *CrossingIndex) CrossingsAt(radius float64) int {
	return ix.CrossingsAtSquared(radius * radius)
}

// Len returns the number of indexed events.
func (ix *CrossingIndex) Len() int {
	return len(ix.distSq)
}

// MinDistance returns the smallest event distance, or NaN when empty.
func (ix *CrossingIndex) MinDistance() float64 {
	if len(ix.distSq) == 0 {
		return math.NaN()
	}
	return math.Sqrt(ix.distSq[0])
}

// MaxDistance returns the largest event distance, or NaN when empty.
func (ix *CrossingIndex) MaxDistance() float64 {
	if len(ix.distSq) == 0 {
		return math.NaN()
	}
	return math.Sqrt(ix.distSq[len(ix.distSq)-1])
}

// radiiSquared returns the sorted distinct event distances. Interior
// nodes contribute two events at the same distance; continuous sampling
// wants a single entry there.
func (ix *CrossingIndex) radiiSquared() []float64 {
	var out []float64
	for i, d2 := range ix.distSq {
		if i == 0 || d2 != out[len(out)-1] {
			out = append(out, d2)
		}
	}
	return out
}
