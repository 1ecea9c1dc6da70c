// Package mesh turns paletted voxel grids into triangle meshes. It is
// deliberately independent of the vox scene codec: callers pull a Model's
// Voxels/dimensions out of a Scene themselves and hand them to a Grid, the
// same way the scene reader and the meshifier are described as two
// separate interfaces (spec §4.6).
package mesh

import vox "github.com/flywave/go-vox-scene"

// Grid is a dense paletted voxel grid, laid out identically to
// vox.Model.Voxels: index x + y*SizeX + z*SizeX*SizeY, 0 meaning empty.
type Grid struct {
	SizeX, SizeY, SizeZ int
	Voxels              []byte
}

// NewGrid returns a Grid backed by a copy of voxels.
func NewGrid(sizeX, sizeY, sizeZ int, voxels []byte) *Grid {
	cp := make([]byte, len(voxels))
	copy(cp, voxels)
	return &Grid{SizeX: sizeX, SizeY: sizeY, SizeZ: sizeZ, Voxels: cp}
}

func (g *Grid) at(x, y, z int) byte {
	if x < 0 || x >= g.SizeX || y < 0 || y >= g.SizeY || z < 0 || z >= g.SizeZ {
		return 0
	}
	return g.Voxels[x+y*g.SizeX+z*g.SizeX*g.SizeY]
}

func colorOf(p *vox.Palette, idx byte) vox.Color {
	return p[idx]
}
