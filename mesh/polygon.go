package mesh

import (
	vec3 "github.com/flywave/go3d/float64/vec3"

	vox "github.com/flywave/go-vox-scene"
)

// point2 is an integer point in a direction's (u, v) plane.
type point2 struct{ u, v int }

// FromPalettedVoxelsPolygon merges exposed same-color faces per direction
// and slab into arbitrary-shaped flat regions (not just rectangles, as
// FromPalettedVoxelsGreedy does): flood fill groups connected faces,
// boundary tracing turns each group into a polygon (with holes when the
// group encloses unfilled cells), and ear clipping triangulates the
// result (spec §4.6's "polygon" algorithm). The per-direction/slab mask
// setup is shared in spirit with the greedy mesher's.
func FromPalettedVoxelsPolygon(g *Grid, palette *vox.Palette) *Mesh {
	m := &Mesh{}
	dims := dims3(g)

	for _, dir := range greedyDirs {
		perp := 3 - dir.u - dir.v

		for p := 0; p < dims[perp]; p++ {
			maskW, maskH := dims[dir.u], dims[dir.v]
			mask := make([][]byte, maskW)
			for i := range mask {
				mask[i] = make([]byte, maskH)
			}
			for u := 0; u < maskW; u++ {
				for v := 0; v < maskH; v++ {
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

			visited := make([][]bool, maskW)
			for i := range visited {
				visited[i] = make([]bool, maskH)
			}
			for u := 0; u < maskW; u++ {
				for v := 0; v < maskH; v++ {
					if mask[u][v] == 0 || visited[u][v] {
						continue
					}
					color := mask[u][v]
					cells := floodFill(mask, visited, u, v, color)
					emitPolygonRegion(m, dir, p, cells, colorOf(palette, color))
				}
			}
		}
	}
	return m
}

func floodFill(mask [][]byte, visited [][]bool, su, sv int, color byte) []point2 {
	w, h := len(mask), len(mask[0])
	stack := []point2{{su, sv}}
	visited[su][sv] = true
	var cells []point2
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cells = append(cells, c)
		neighbors := [4]point2{{c.u - 1, c.v}, {c.u + 1, c.v}, {c.u, c.v - 1}, {c.u, c.v + 1}}
		for _, n := range neighbors {
			if n.u < 0 || n.u >= w || n.v < 0 || n.v >= h {
				continue
			}
			if visited[n.u][n.v] || mask[n.u][n.v] != color {
				continue
			}
			visited[n.u][n.v] = true
			stack = append(stack, n)
		}
	}
	return cells
}

type edge struct{ from, to point2 }

// traceBoundary extracts the boundary loops of a set of unit grid cells.
// Walking each loop in the direction its edges point keeps filled area on
// the left, so the outer loop comes out counter-clockwise (positive
// shoelace area) and any loops around enclosed holes come out clockwise.
// Only corner vertices are kept: lattice points in the middle of a
// straight run of boundary edges are dropped.
func traceBoundary(cells []point2) [][]point2 {
	filled := make(map[point2]bool, len(cells))
	for _, c := range cells {
		filled[c] = true
	}

	var edges []edge
	for _, c := range cells {
		if !filled[point2{c.u, c.v - 1}] {
			edges = append(edges, edge{point2{c.u, c.v}, point2{c.u + 1, c.v}})
		}
		if !filled[point2{c.u, c.v + 1}] {
			edges = append(edges, edge{point2{c.u + 1, c.v + 1}, point2{c.u, c.v + 1}})
		}
		if !filled[point2{c.u - 1, c.v}] {
			edges = append(edges, edge{point2{c.u, c.v + 1}, point2{c.u, c.v}})
		}
		if !filled[point2{c.u + 1, c.v}] {
			edges = append(edges, edge{point2{c.u + 1, c.v}, point2{c.u + 1, c.v + 1}})
		}
	}

	byStart := make(map[point2]edge, len(edges))
	for _, e := range edges {
		byStart[e.from] = e
	}

	var loops [][]point2
	consumed := make(map[point2]bool, len(edges))
	for _, e0 := range edges {
		if consumed[e0.from] {
			continue
		}
		var loop []point2
		cur := e0
		for {
			consumed[cur.from] = true
			loop = append(loop, cur.from)
			next, ok := byStart[cur.to]
			if !ok {
				break
			}
			cur = next
			if cur.from == e0.from {
				break
			}
		}
		var corners []point2
		for i, pt := range loop {
			prev, next := loop[(i+len(loop)-1)%len(loop)], loop[(i+1)%len(loop)]
			if cross2(prev, pt, next) != 0 {
				corners = append(corners, pt)
			}
		}
		if len(corners) >= 3 {
			loops = append(loops, corners)
		}
	}
	return loops
}

func signedArea2(poly []point2) int {
	area := 0
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		area += a.u*b.v - b.u*a.v
	}
	return area
}

// mergeHoles splices clockwise hole loops into the counter-clockwise
// outer loop via a bridge to its nearest outer vertex, the standard way
// to reduce a polygon-with-holes to one simple polygon for ear clipping.
func mergeHoles(loops [][]point2) []point2 {
	var outer []point2
	var holes [][]point2
	for _, l := range loops {
		if signedArea2(l) > 0 {
			if len(outer) == 0 || abs(signedArea2(l)) > abs(signedArea2(outer)) {
				if len(outer) != 0 {
					holes = append(holes, outer)
				}
				outer = l
			} else {
				holes = append(holes, l)
			}
		} else {
			holes = append(holes, l)
		}
	}
	if len(outer) == 0 {
		return nil
	}

	for _, hole := range holes {
		bridgeFrom := 0
		bridgeHole := 0
		best := -1
		for hi, hp := range hole {
			for oi, op := range outer {
				d := distSq(hp, op)
				if best == -1 || d < best {
					best = d
					bridgeFrom = oi
					bridgeHole = hi
				}
			}
		}
		merged := make([]point2, 0, len(outer)+len(hole)+2)
		merged = append(merged, outer[:bridgeFrom+1]...)
		for i := 0; i <= len(hole); i++ {
			merged = append(merged, hole[(bridgeHole+i)%len(hole)])
		}
		merged = append(merged, outer[bridgeFrom:]...)
		outer = merged
	}
	return outer
}

func distSq(a, b point2) int {
	du, dv := a.u-b.u, a.v-b.v
	return du*du + dv*dv
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// earClip triangulates a simple polygon (possibly merged with holes via
// mergeHoles) by repeatedly clipping a convex vertex whose ear triangle
// contains no other polygon vertex.
func earClip(poly []point2) [][3]point2 {
	n := len(poly)
	if n < 3 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var tris [][3]point2
	guard := 0
	for len(idx) > 3 && guard < n*n+8 {
		guard++
		clipped := false
		for i := 0; i < len(idx); i++ {
			ip, ic, in := idx[(i-1+len(idx))%len(idx)], idx[i], idx[(i+1)%len(idx)]
			a, b, c := poly[ip], poly[ic], poly[in]
			if cross2(a, b, c) <= 0 {
				continue // reflex or degenerate, not an ear candidate
			}
			isEar := true
			for _, j := range idx {
				if j == ip || j == ic || j == in {
					continue
				}
				if pointInTriangle(poly[j], a, b, c) {
					isEar = false
					break
				}
			}
			if !isEar {
				continue
			}
			tris = append(tris, [3]point2{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break // degenerate input (self-intersecting bridge); stop rather than loop forever
		}
	}
	if len(idx) == 3 {
		tris = append(tris, [3]point2{poly[idx[0]], poly[idx[1]], poly[idx[2]]})
	}
	return tris
}

func cross2(a, b, c point2) int {
	return (b.u-a.u)*(c.v-a.v) - (b.v-a.v)*(c.u-a.u)
}

func pointInTriangle(p, a, b, c point2) bool {
	d1 := cross2(a, b, p)
	d2 := cross2(b, c, p)
	d3 := cross2(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func emitPolygonRegion(m *Mesh, dir greedyDir, p int, cells []point2, c vox.Color) {
	loops := traceBoundary(cells)
	poly := mergeHoles(loops)
	tris := earClip(poly)

	perp := 3 - dir.u - dir.v
	normal := vec3.T{float64(dir.normal[0]), float64(dir.normal[1]), float64(dir.normal[2])}
	perpCoord := float64(p)
	if dir.normal[perp] > 0 {
		perpCoord++
	}

	to3D := func(pt point2) vec3.T {
		var v [3]float64
		v[perp] = perpCoord
		v[dir.u] = float64(pt.u)
		v[dir.v] = float64(pt.v)
		return vec3.T{v[0], v[1], v[2]}
	}

	flip := (dir.normal[perp] < 0) != (perp == 1)
	for _, t := range tris {
		p0, p1, p2 := to3D(t[0]), to3D(t[1]), to3D(t[2])
		if flip {
			p1, p2 = p2, p1
		}
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			Vertex{Position: p0, Normal: normal, Color: c},
			Vertex{Position: p1, Normal: normal, Color: c},
			Vertex{Position: p2, Normal: normal, Color: c},
		)
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
}
