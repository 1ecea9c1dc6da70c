package mesh

import (
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"

	vox "github.com/flywave/go-vox-scene"
)

func TestRemoveDuplicateVerticesMergesExactDuplicates(t *testing.T) {
	c := vox.Color{R: 1, G: 2, B: 3, A: 255}
	n := vec3.T{0, 0, 1}
	a := vec3.T{0, 0, 0}
	b := vec3.T{1, 0, 0}

	m := &Mesh{
		Vertices: []Vertex{
			{Position: a, Normal: n, Color: c},
			{Position: b, Normal: n, Color: c},
			{Position: a, Normal: n, Color: c}, // duplicate of index 0
		},
		Indices: []uint32{0, 1, 2},
	}

	deduped := RemoveDuplicateVertices(m)
	if len(deduped.Vertices) != 2 {
		t.Fatalf("len(Vertices) = %d, want 2", len(deduped.Vertices))
	}
	if len(deduped.Indices) != 3 {
		t.Fatalf("len(Indices) = %d, want 3", len(deduped.Indices))
	}
	if deduped.Indices[0] != deduped.Indices[2] {
		t.Errorf("Indices[0] = %d, Indices[2] = %d, want equal (both referenced the duplicate)", deduped.Indices[0], deduped.Indices[2])
	}
}

func TestRemoveDuplicateVerticesKeepsDistinctColorsSeparate(t *testing.T) {
	pos := vec3.T{0, 0, 0}
	n := vec3.T{0, 0, 1}
	m := &Mesh{
		Vertices: []Vertex{
			{Position: pos, Normal: n, Color: vox.Color{R: 1, A: 255}},
			{Position: pos, Normal: n, Color: vox.Color{R: 2, A: 255}},
		},
		Indices: []uint32{0, 1},
	}
	deduped := RemoveDuplicateVertices(m)
	if len(deduped.Vertices) != 2 {
		t.Errorf("len(Vertices) = %d, want 2 (differing colors must not merge)", len(deduped.Vertices))
	}
}

func TestRemoveDuplicateVerticesEmptyMesh(t *testing.T) {
	m := &Mesh{}
	deduped := RemoveDuplicateVertices(m)
	if len(deduped.Vertices) != 0 || len(deduped.Indices) != 0 {
		t.Errorf("expected an empty result for an empty mesh")
	}
}
