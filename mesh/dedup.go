package mesh

// vertexKey identifies vertices that share position, normal, and color —
// the only fields RemoveDuplicateVertices considers when merging.
type vertexKey struct {
	px, py, pz float64
	nx, ny, nz float64
	color      uint32
}

func keyOf(v Vertex) vertexKey {
	return vertexKey{
		px: v.Position[0], py: v.Position[1], pz: v.Position[2],
		nx: v.Normal[0], ny: v.Normal[1], nz: v.Normal[2],
		color: uint32(v.Color.R)<<24 | uint32(v.Color.G)<<16 | uint32(v.Color.B)<<8 | uint32(v.Color.A),
	}
}

// RemoveDuplicateVertices collapses vertices that are exact duplicates in
// position, normal, and color, remapping Indices accordingly. Every
// meshifier in this package emits fresh vertices for each face (four per
// quad for simple and greedy, three per triangle for polygon), so corners
// shared by adjacent faces repeat until this pass merges them.
func RemoveDuplicateVertices(m *Mesh) *Mesh {
	seen := make(map[vertexKey]uint32, len(m.Vertices))
	newVerts := make([]Vertex, 0, len(m.Vertices))
	remap := make([]uint32, len(m.Vertices))

	for i, v := range m.Vertices {
		k := keyOf(v)
		if idx, ok := seen[k]; ok {
			remap[i] = idx
			continue
		}
		idx := uint32(len(newVerts))
		newVerts = append(newVerts, v)
		seen[k] = idx
		remap[i] = idx
	}

	newIndices := make([]uint32, len(m.Indices))
	for i, idx := range m.Indices {
		newIndices[i] = remap[idx]
	}

	return &Mesh{Vertices: newVerts, Indices: newIndices}
}
