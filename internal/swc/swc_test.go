package swc

import (
	"math"
	"strings"
	"testing"

	"shollgo/pkg/arbor"
)

// TestReadBranchedReconstruction verifies path splitting at a fork and
// the primary flags
func TestReadBranchedReconstruction(t *testing.T) {
	data := `# Comment line
1 1 0 0 0 2.0 -1
2 3 1 0 0 0.5 1
3 3 2 0 0 0.5 2
4 3 3 1 0 0.4 3
5 3 3 -1 0 0.4 3
`
	tree, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// One single-point soma path, one primary dendrite up to the fork,
	// and two branch paths leaving it
	if len(tree.Paths) != 4 {
		t.Fatalf("Expected 4 paths, got %d", len(tree.Paths))
	}

	soma := tree.Paths[0]
	if soma.Type != arbor.TypeSoma || soma.Size() != 1 || !soma.Primary {
		t.Errorf("Expected single-point primary soma path, got type=%v size=%d primary=%v",
			soma.Type, soma.Size(), soma.Primary)
	}

	trunk := tree.Paths[1]
	if !trunk.Primary || trunk.Type != arbor.TypeDendrite {
		t.Errorf("Expected primary dendrite trunk, got primary=%v type=%v", trunk.Primary, trunk.Type)
	}
	// Trunk runs soma -> (1,0,0) -> (2,0,0) and stops at the fork
	if trunk.Size() != 3 {
		t.Errorf("Expected trunk of 3 nodes, got %d", trunk.Size())
	}
	if trunk.Node(2) != (arbor.Point{X: 2}) {
		t.Errorf("Expected trunk to end at the fork (2,0,0), got %v", trunk.Node(2))
	}

	// Branch paths start at the fork node so segments stay contiguous
	for _, branch := range tree.Paths[2:] {
		if branch.Primary {
			t.Error("Expected branch paths to be non-primary")
		}
		if branch.Size() != 2 {
			t.Errorf("Expected 2-node branch, got %d nodes", branch.Size())
		}
		if branch.Node(0) != (arbor.Point{X: 2}) {
			t.Errorf("Expected branch to start at the fork, got %v", branch.Node(0))
		}
	}
}

// TestReadRadii verifies radius propagation and the negative-radius NaN
// convention
func TestReadRadii(t *testing.T) {
	data := `1 2 0 0 0 1.5 -1
2 2 1 0 0 -1 1
3 2 2 0 0 0.8 2
`
	tree, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(tree.Paths) != 1 {
		t.Fatalf("Expected 1 path, got %d", len(tree.Paths))
	}

	p := tree.Paths[0]
	if p.Type != arbor.TypeAxon {
		t.Errorf("Expected axon path, got %v", p.Type)
	}
	if p.NodeRadius(0) != 1.5 {
		t.Errorf("Expected radius 1.5 at root, got %f", p.NodeRadius(0))
	}
	if !math.IsNaN(p.NodeRadius(1)) {
		t.Errorf("Expected NaN for negative radius, got %f", p.NodeRadius(1))
	}
}

// TestReadErrors verifies the malformed-input failures
func TestReadErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"wrong field count", "1 1 0 0 0 1\n"},
		{"bad coordinate", "1 1 x 0 0 1 -1\n"},
		{"duplicate id", "1 1 0 0 0 1 -1\n1 1 1 0 0 1 -1\n"},
		{"missing parent", "1 1 0 0 0 1 -1\n3 3 1 0 0 1 2\n"},
		{"no root", "1 3 0 0 0 1 2\n2 3 1 0 0 1 1\n"},
	}
	for _, tc := range cases {
		if _, err := Read(strings.NewReader(tc.data)); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

// TestReadEmpty verifies that comment-only input yields an empty tree
func TestReadEmpty(t *testing.T) {
	tree, err := Read(strings.NewReader("# header only\n"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !tree.Empty() {
		t.Error("Expected an empty tree for comment-only input")
	}
}
