package sampler

import "shollgo/pkg/arbor"

// groupComponents groups intersection points into connected components
// under a "nearby" relation (squared distance <= thresholdSq) using an
// iterative flood fill, and returns one centroid per component. The
// O(n^2) scan is fine at typical per-shell intersection counts (tens).
func groupComponents(points []arbor.Point, thresholdSq float64) []arbor.Point {
	if len(points) == 0 {
		return nil
	}
	visited := make([]bool, len(points))
	var centroids []arbor.Point
	for i := range points {
		if visited[i] {
			continue
		}
		var member []arbor.Point
		stack := []int{i}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			member = append(member, points[cur])
			for j := range points {
				if !visited[j] && points[cur].DistanceSquaredTo(points[j]) <= thresholdSq {
					stack = append(stack, j)
				}
			}
		}
		centroids = append(centroids, arbor.Average(member))
	}
	return centroids
}

// dedupPoints removes exact coordinate duplicates, preserving first-seen
// order. Tangential crossings reported by both quadratic roots collapse
// to a single point here.
func dedupPoints(points []arbor.Point) []arbor.Point {
	if len(points) < 2 {
		return points
	}
	seen := make(map[arbor.Point]struct{}, len(points))
	out := points[:0]
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
