// Package swc reads SWC reconstruction files into the arbor model. The
// reader splits the sample graph into paths at branch points, mirroring
// how tracing tools segment a reconstruction: each path starts at the
// root or at a fork node and runs until the next fork or a terminal.
package swc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"shollgo/pkg/arbor"
)

type sample struct {
	id       int
	typeTag  int
	point    arbor.Point
	radius   float64
	parentID int
}

// ReadFile parses the SWC file at path and returns the reconstructed tree.
// The tree label is the file's base name without extension.
func ReadFile(path string) (*arbor.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("swc: opening %s: %w", path, err)
	}
	defer f.Close()

	tree, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("swc: parsing %s: %w", path, err)
	}
	base := filepath.Base(path)
	tree.Label = strings.TrimSuffix(base, filepath.Ext(base))
	return tree, nil
}

// Read parses SWC data from r. Lines starting with '#' and blank lines
// are skipped; every other line must carry the seven standard fields
// (id, type, x, y, z, radius, parent).
func Read(r io.Reader) (*arbor.Tree, error) {
	samples := make(map[int]sample)
	var order []int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, dup := samples[s.id]; dup {
			return nil, fmt.Errorf("line %d: duplicate sample id %d", lineNo, s.id)
		}
		samples[s.id] = s
		order = append(order, s.id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return &arbor.Tree{}, nil
	}

	return assemble(samples, order)
}

func parseLine(line string) (sample, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 {
		return sample{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return sample{}, fmt.Errorf("bad sample id %q", fields[0])
	}
	typeTag, err := strconv.Atoi(fields[1])
	if err != nil {
		return sample{}, fmt.Errorf("bad type tag %q", fields[1])
	}
	var coords [4]float64
	for i, raw := range fields[2:6] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sample{}, fmt.Errorf("bad numeric field %q", raw)
		}
		coords[i] = v
	}
	parentID, err := strconv.Atoi(fields[6])
	if err != nil {
		return sample{}, fmt.Errorf("bad parent id %q", fields[6])
	}
	return sample{
		id:       id,
		typeTag:  typeTag,
		point:    arbor.Point{X: coords[0], Y: coords[1], Z: coords[2]},
		radius:   coords[3],
		parentID: parentID,
	}, nil
}

// assemble splits the parsed sample graph into paths. Child paths begin
// at their fork node so consecutive path points always form traced
// segments.
func assemble(samples map[int]sample, order []int) (*arbor.Tree, error) {
	children := make(map[int][]int, len(samples))
	var roots []int
	for _, id := range order {
		s := samples[id]
		if s.parentID < 0 {
			roots = append(roots, id)
			continue
		}
		if _, ok := samples[s.parentID]; !ok {
			return nil, fmt.Errorf("sample %d references missing parent %d", id, s.parentID)
		}
		children[s.parentID] = append(children[s.parentID], id)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no root sample (parent -1)")
	}
	for _, kids := range children {
		sort.Ints(kids)
	}

	tree := &arbor.Tree{}
	for _, rootID := range roots {
		root := samples[rootID]
		kids := children[rootID]
		if len(kids) == 0 || pathTypeOf(root.typeTag) == arbor.TypeSoma {
			// A lone root, or a soma root: emit it as its own
			// single-point path so downstream soma handling can
			// recognize it.
			tree.Paths = append(tree.Paths, singleNodePath(root, true))
		}
		for _, kid := range kids {
			appendBranch(tree, samples, children, root, kid, true)
		}
	}
	return tree, nil
}

// appendBranch emits the path starting with the fork node from toward
// startID, then recurses into any forks found at the path's end.
func appendBranch(tree *arbor.Tree, samples map[int]sample, children map[int][]int, from sample, startID int, primary bool) {
	first := samples[startID]
	p := &arbor.Path{
		Points:  []arbor.Point{from.point, first.point},
		Radii:   []float64{radiusOf(from), radiusOf(first)},
		Type:    pathTypeOf(first.typeTag),
		Primary: primary,
	}
	cur := first
	for {
		kids := children[cur.id]
		if len(kids) != 1 {
			tree.Paths = append(tree.Paths, p)
			for _, kid := range kids {
				appendBranch(tree, samples, children, cur, kid, false)
			}
			return
		}
		cur = samples[kids[0]]
		p.Points = append(p.Points, cur.point)
		p.Radii = append(p.Radii, radiusOf(cur))
	}
}

func singleNodePath(s sample, primary bool) *arbor.Path {
	return &arbor.Path{
		Points:  []arbor.Point{s.point},
		Radii:   []float64{radiusOf(s)},
		Type:    pathTypeOf(s.typeTag),
		Primary: primary,
	}
}

func radiusOf(s sample) float64 {
	if s.radius < 0 {
		return math.NaN()
	}
	return s.radius
}

func pathTypeOf(tag int) arbor.PathType {
	switch tag {
	case 1:
		return arbor.TypeSoma
	case 2:
		return arbor.TypeAxon
	case 3:
		return arbor.TypeDendrite
	case 4:
		return arbor.TypeApicalDendrite
	case 0:
		return arbor.TypeUndefined
	default:
		return arbor.TypeCustom
	}
}
