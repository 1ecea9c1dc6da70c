package mesh

import (
	vec3 "github.com/flywave/go3d/float64/vec3"

	vox "github.com/flywave/go-vox-scene"
)

type faceDir struct {
	normal   [3]int
	corners  [4][3]int // offsets from the voxel's min corner, in face winding order
}

var faceDirs = [6]faceDir{
	{normal: [3]int{1, 0, 0}, corners: [4][3]int{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{normal: [3]int{-1, 0, 0}, corners: [4][3]int{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}}},
	{normal: [3]int{0, 1, 0}, corners: [4][3]int{{1, 1, 0}, {0, 1, 0}, {0, 1, 1}, {1, 1, 1}}},
	{normal: [3]int{0, -1, 0}, corners: [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{normal: [3]int{0, 0, 1}, corners: [4][3]int{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{normal: [3]int{0, 0, -1}, corners: [4][3]int{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}}},
}

// FromPalettedVoxelsSimple emits one quad per exposed voxel face (spec
// §4.6's "simple" algorithm): no merging, six faces checked per solid
// voxel against its immediate neighbor.
func FromPalettedVoxelsSimple(g *Grid, palette *vox.Palette) *Mesh {
	m := &Mesh{}
	for z := 0; z < g.SizeZ; z++ {
		for y := 0; y < g.SizeY; y++ {
			for x := 0; x < g.SizeX; x++ {
				v := g.at(x, y, z)
				if v == 0 {
					continue
				}
				c := colorOf(palette, v)
				for _, d := range faceDirs {
					if g.at(x+d.normal[0], y+d.normal[1], z+d.normal[2]) != 0 {
						continue
					}
					normal := vec3.T{float64(d.normal[0]), float64(d.normal[1]), float64(d.normal[2])}
					var p [4]vec3.T
					for i, off := range d.corners {
						p[i] = vec3.T{float64(x + off[0]), float64(y + off[1]), float64(z + off[2])}
					}
					m.addQuad(p[0], p[1], p[2], p[3], normal, c)
				}
			}
		}
	}
	return m
}
