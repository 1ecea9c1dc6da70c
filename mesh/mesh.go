package mesh

import (
	vec3 "github.com/flywave/go3d/float64/vec3"

	vox "github.com/flywave/go-vox-scene"
)

// Vertex is one mesh vertex: position and face normal in voxel-grid
// units, and the flat color carried over from the source palette.
type Vertex struct {
	Position vec3.T
	Normal   vec3.T
	Color    vox.Color
}

// Mesh is an indexed triangle list; every three consecutive entries in
// Indices name one triangle.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) addQuad(p0, p1, p2, p3 vec3.T, normal vec3.T, c vox.Color) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{Position: p0, Normal: normal, Color: c},
		Vertex{Position: p1, Normal: normal, Color: c},
		Vertex{Position: p2, Normal: normal, Color: c},
		Vertex{Position: p3, Normal: normal, Color: c},
	)
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
