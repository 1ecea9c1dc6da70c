package mesh

import (
	vec3 "github.com/flywave/go3d/float64/vec3"

	vox "github.com/flywave/go-vox-scene"
)

// greedyDir mirrors VoxelsPlace-VOPL's dirSpec: a face direction plus the
// two in-plane axes (u, v) and their 3D unit vectors, generalized here to
// an arbitrary grid size instead of a fixed Width/Height/Depth.
type greedyDir struct {
	normal [3]int
	u, v   int
	du, dv [3]int
}

var greedyDirs = [6]greedyDir{
	{normal: [3]int{1, 0, 0}, u: 1, v: 2, du: [3]int{0, 1, 0}, dv: [3]int{0, 0, 1}},
	{normal: [3]int{-1, 0, 0}, u: 1, v: 2, du: [3]int{0, 1, 0}, dv: [3]int{0, 0, 1}},
	{normal: [3]int{0, 1, 0}, u: 0, v: 2, du: [3]int{1, 0, 0}, dv: [3]int{0, 0, 1}},
	{normal: [3]int{0, -1, 0}, u: 0, v: 2, du: [3]int{1, 0, 0}, dv: [3]int{0, 0, 1}},
	{normal: [3]int{0, 0, 1}, u: 0, v: 1, du: [3]int{1, 0, 0}, dv: [3]int{0, 1, 0}},
	{normal: [3]int{0, 0, -1}, u: 0, v: 1, du: [3]int{1, 0, 0}, dv: [3]int{0, 1, 0}},
}

func dims3(g *Grid) [3]int { return [3]int{g.SizeX, g.SizeY, g.SizeZ} }

// FromPalettedVoxelsGreedy merges coplanar same-color exposed faces into
// maximal rectangles per direction/slab, following the mask-and-expand
// algorithm from VoxelsPlace-VOPL's greedy mesher generalized to
// arbitrary grid dimensions and to this package's Vertex/Mesh types.
func FromPalettedVoxelsGreedy(g *Grid, palette *vox.Palette) *Mesh {
	m := &Mesh{}
	dims := dims3(g)

	for _, dir := range greedyDirs {
		perp := 3 - dir.u - dir.v

		for p := 0; p < dims[perp]; p++ {
			mask := make([][]byte, dims[dir.u])
			visited := make([][]bool, dims[dir.u])
			for i := range mask {
				mask[i] = make([]byte, dims[dir.v])
				visited[i] = make([]bool, dims[dir.v])
			}

			for u := 0; u < dims[dir.u]; u++ {
				for v := 0; v < dims[dir.v]; v++ {
					pos := [3]int{}
					pos[dir.u] = u
					pos[dir.v] = v
					pos[perp] = p

					voxel := g.at(pos[0], pos[1], pos[2])
					if voxel == 0 {
						continue
					}

					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp] = p - 1
					} else {
						adj[perp] = p + 1
					}
					if g.at(adj[0], adj[1], adj[2]) == 0 {
						mask[u][v] = voxel
					}
				}
			}

			for u := 0; u < dims[dir.u]; u++ {
				for v := 0; v < dims[dir.v]; {
					if mask[u][v] == 0 || visited[u][v] {
						v++
						continue
					}
					color := mask[u][v]
					width := 1
					for w := v + 1; w < dims[dir.v] && mask[u][w] == color && !visited[u][w]; w++ {
						width++
					}
					height := 1
					stop := false
					for h := u + 1; h < dims[dir.u] && !stop; h++ {
						for w := v; w < v+width; w++ {
							if mask[h][w] != color || visited[h][w] {
								stop = true
								break
							}
						}
						if !stop {
							height++
						}
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[hu][hv] = true
						}
					}
					addGreedyQuad(m, dir, [3]int{p, u, v}, width, height, colorOf(palette, color))
					v += width
				}
			}
		}
	}
	return m
}

func addGreedyQuad(m *Mesh, dir greedyDir, start [3]int, width, height int, c vox.Color) {
	base := [3]float64{}
	perp := 3 - dir.u - dir.v
	base[perp] = float64(start[0])
	if dir.normal[perp] > 0 {
		base[perp] += 1
	}
	base[dir.u] = float64(start[1])
	base[dir.v] = float64(start[2])

	p0 := vec3.T{base[0], base[1], base[2]}
	p1 := vec3.T{base[0] + float64(dir.du[0]*height), base[1] + float64(dir.du[1]*height), base[2] + float64(dir.du[2]*height)}
	p2 := vec3.T{p1[0] + float64(dir.dv[0]*width), p1[1] + float64(dir.dv[1]*width), p1[2] + float64(dir.dv[2]*width)}
	p3 := vec3.T{base[0] + float64(dir.dv[0]*width), base[1] + float64(dir.dv[1]*width), base[2] + float64(dir.dv[2]*width)}

	normal := vec3.T{float64(dir.normal[0]), float64(dir.normal[1]), float64(dir.normal[2])}

	swap := (dir.normal[perp] < 0) != (perp == 1)
	if swap {
		p1, p3 = p3, p1
	}
	m.addQuad(p0, p1, p2, p3, normal, c)
}
