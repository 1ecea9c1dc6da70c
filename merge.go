package vox

// MergeScenes combines multiple scenes into one, resolving a shared
// palette and remapping each source's voxel indices into it (spec §4.5).
func MergeScenes(scenes []*Scene, opts MergeOptions) (*Scene, error) {
	if len(scenes) == 0 {
		return &Scene{Layers: []Layer{{}}}, nil
	}

	palette, perSceneRemap := resolveMergePalette(scenes, opts.Palette)

	out := &Scene{Palette: palette}
	out.Layers = append(out.Layers, Layer{})

	rootGroup := -1
	if opts.PreserveGroups {
		out.Groups = append(out.Groups, Group{ParentGroupIndex: NoParentGroup, Transform: Identity()})
		rootGroup = 0
	}

	for si, sc := range scenes {
		remap := perSceneRemap[si]

		modelBase := len(out.Models)
		for _, m := range sc.Models {
			out.Models = append(out.Models, remapModelColors(m, remap))
		}

		layerBase := len(out.Layers)
		for _, l := range sc.Layers {
			out.Layers = append(out.Layers, Layer{Name: out.addName(sc.Name(l.Name)), Hidden: l.Hidden})
		}

		groupBase := len(out.Groups)
		if opts.PreserveGroups {
			for _, g := range sc.Groups {
				parent := g.ParentGroupIndex
				if parent == NoParentGroup {
					parent = rootGroup
				} else {
					parent += groupBase
				}
				out.Groups = append(out.Groups, Group{
					Hidden:           g.Hidden,
					LayerIndex:       remapLayerIndex(g.LayerIndex, layerBase, len(out.Layers)),
					ParentGroupIndex: parent,
					Transform:        g.Transform,
				})
			}
		}

		for _, inst := range sc.Instances {
			newInst := Instance{
				ModelIndex: inst.ModelIndex + modelBase,
				Transform:  inst.Transform,
				LayerIndex: remapLayerIndex(inst.LayerIndex, layerBase, len(out.Layers)),
				Hidden:     inst.Hidden,
				Name:       out.addName(sc.Name(inst.Name)),
			}
			if opts.PreserveGroups && inst.GroupIndex >= 0 && inst.GroupIndex < len(sc.Groups) {
				newInst.GroupIndex = inst.GroupIndex + groupBase
			} else {
				newInst.GroupIndex = rootGroup
			}
			for _, kf := range inst.Keyframes {
				newInst.Keyframes = append(newInst.Keyframes, kf)
			}
			for _, kf := range inst.ModelKeyframes {
				newInst.ModelKeyframes = append(newInst.ModelKeyframes, ModelKeyframe{Frame: kf.Frame, ModelIndex: kf.ModelIndex + modelBase})
			}
			out.Instances = append(out.Instances, newInst)
		}
	}

	return out, nil
}

func remapLayerIndex(idx, base, limit int) int {
	v := idx + base
	if v < 0 || v >= limit {
		return 0
	}
	return v
}

func remapModelColors(m Model, remap *[256]byte) Model {
	if remap == nil {
		return m
	}
	voxels := make([]byte, len(m.Voxels))
	for i, v := range m.Voxels {
		if v == 0 {
			continue
		}
		voxels[i] = remap[v]
	}
	return Model{SizeX: m.SizeX, SizeY: m.SizeY, SizeZ: m.SizeZ, Voxels: voxels}
}

// resolveMergePalette builds the output palette and a per-scene byte remap
// table translating each source scene's voxel indices into it.
//
// With an explicit target palette, every source color is matched to its
// nearest entry. Without one, the union of source palettes is built by
// exact RGB match, admitting new colors until the 255-entry budget (index 0
// stays reserved) is exhausted, after which remaining colors silently fall
// back to a nearest-match against what's already there rather than erroring
// — spec §4.5 only says to stop admitting new colors once capacity is
// exhausted, not to fail the merge.
func resolveMergePalette(scenes []*Scene, target *Palette) (Palette, []*[256]byte) {
	var out Palette
	used := 1 // index 0 reserved

	if target != nil {
		out = *target
		out[0] = Color{}
		used = 256
	}

	remaps := make([]*[256]byte, len(scenes))
	for si, sc := range scenes {
		var remap [256]byte
		for i := 1; i < 256; i++ {
			c := sc.Palette[i]
			if c.A == 0 && c.R == 0 && c.G == 0 && c.B == 0 {
				continue // unused slot, no voxel should reference it
			}
			remap[i] = findOrAdmit(&out, &used, c, target != nil)
		}
		remaps[si] = &remap
	}
	return out, remaps
}

func findOrAdmit(out *Palette, used *int, c Color, fixedTarget bool) byte {
	for i := 1; i < *used && i < 256; i++ {
		if colorsEqualRGB(out[i], c) {
			return byte(i)
		}
	}
	if fixedTarget {
		return byte(nearestColorIndex(out, c))
	}
	if *used < 256 {
		out[*used] = c
		idx := *used
		*used++
		return byte(idx)
	}
	return byte(nearestColorIndex(out, c))
}
