package vox

import "hash/fnv"

// NoParentGroup is the sentinel Group.ParentGroupIndex value meaning "this
// group has no parent" — only the root group uses it.
const NoParentGroup = -1

// NameRef is an offset/length pair into a Scene's owned string arena. A
// zero-value NameRef (Len == 0) means "no name".
type NameRef struct {
	Off int32
	Len int32
}

// Model is a dense paletted voxel grid. Voxels[x + y*SizeX + z*SizeX*SizeY]
// holds the color index at (x, y, z); 0 means empty.
type Model struct {
	SizeX, SizeY, SizeZ int
	Voxels              []byte
	hash                uint64
	hashed              bool
}

func (m *Model) computeHash() uint64 {
	if m.hashed {
		return m.hash
	}
	h := fnv.New64a()
	var dims [12]byte
	putU32(dims[0:4], uint32(m.SizeX))
	putU32(dims[4:8], uint32(m.SizeY))
	putU32(dims[8:12], uint32(m.SizeZ))
	h.Write(dims[:])
	h.Write(m.Voxels)
	m.hash = h.Sum64()
	m.hashed = true
	return m.hash
}

func putU32(b []byte, v uint32) {
	byteOrder.PutUint32(b, v)
}

// IsEmpty reports whether the model has no solid voxels.
func (m *Model) IsEmpty() bool {
	for _, v := range m.Voxels {
		if v != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two models have identical dimensions and voxel
// data.
func (m *Model) Equal(o *Model) bool {
	if m.SizeX != o.SizeX || m.SizeY != o.SizeY || m.SizeZ != o.SizeZ {
		return false
	}
	if m.computeHash() != o.computeHash() {
		return false
	}
	if len(m.Voxels) != len(o.Voxels) {
		return false
	}
	for i := range m.Voxels {
		if m.Voxels[i] != o.Voxels[i] {
			return false
		}
	}
	return true
}

// Instance places one Model under a world transform, a layer, and a
// group, with an optional name and hidden flag.
type Instance struct {
	ModelIndex int
	Transform  Transform
	LayerIndex int
	GroupIndex int
	Name       NameRef
	Hidden     bool

	// Keyframes holds per-frame (world transform, frame index) pairs when
	// a transform node on the instance's path carried more than one frame
	// and ReadFlagKeyframes was set. Empty for static instances.
	Keyframes []TransformKeyframe

	// ModelKeyframes holds per-frame (model index, frame index) pairs
	// when the source nSHP referenced more than one model keyframe and
	// ReadFlagKeyframes was set. Empty for static instances.
	ModelKeyframes []ModelKeyframe
}

// TransformKeyframe is one frame of an animated transform: a node-local
// transform while the reader parses nTRN frames, and the composed world
// transform once stored in Instance.Keyframes.
type TransformKeyframe struct {
	Frame     int
	Transform Transform
}

// ModelKeyframe is one frame of an animated instance's model swap, as
// stored on an nSHP node.
type ModelKeyframe struct {
	Frame      int
	ModelIndex int
}

// Layer is an artist-facing grouping carrying an optional name and a
// hidden flag.
type Layer struct {
	Name   NameRef
	Hidden bool
}

// Group is a scene-graph grouping node: a hidden flag, a layer index, a
// parent group index (NoParentGroup for the root), and a transform. For
// groups built by ReadScene, Transform is the world transform accumulated
// at the group (every enclosing transform node composed), not the local
// transform of the group's own parent node.
type Group struct {
	Hidden           bool
	LayerIndex       int
	ParentGroupIndex int
	Transform        Transform
}

// Scene is the fully-flattened, read-only result of ReadScene (or a
// caller-constructed value passed to WriteScene/MergeScenes).
type Scene struct {
	Palette   Palette
	Models    []Model
	Instances []Instance
	Layers    []Layer
	Groups    []Group

	strings []byte
}

// Name resolves a NameRef against the scene's owned string arena. It
// returns "" for the zero NameRef.
func (s *Scene) Name(ref NameRef) string {
	if ref.Len == 0 {
		return ""
	}
	return string(s.strings[ref.Off : ref.Off+ref.Len])
}

// addName appends s to the scene's string arena and returns a NameRef
// into it. Empty strings map to the zero NameRef without allocating.
func (sc *Scene) addName(s string) NameRef {
	if s == "" {
		return NameRef{}
	}
	off := len(sc.strings)
	sc.strings = append(sc.strings, s...)
	return NameRef{Off: int32(off), Len: int32(len(s))}
}

// ReadFlags controls ReadScene's post-processing. Core parsing behavior
// is invariant; these flags only change what the reader does with the
// parsed result.
type ReadFlags uint32

const (
	// ReadFlagKeepEmptyModelsInstances preserves empty models and
	// instances that reference them instead of stripping them.
	ReadFlagKeepEmptyModelsInstances ReadFlags = 1 << iota
	// ReadFlagKeepDuplicateModels disables model deduplication.
	ReadFlagKeepDuplicateModels
	// ReadFlagGroups preserves the group hierarchy as first-class
	// Groups instead of flattening group hidden-flags into instances.
	ReadFlagGroups
	// ReadFlagKeyframes preserves per-frame transforms and model swaps
	// instead of collapsing to the first frame.
	ReadFlagKeyframes
)

func (f ReadFlags) has(bit ReadFlags) bool { return f&bit != 0 }

// MergeOptions configures MergeScenes.
type MergeOptions struct {
	// Palette, if non-nil, is used verbatim as the output palette instead
	// of the union of the source palettes: all of slots 1..255 are taken
	// as given, zero-valued slots included, and none is filled with
	// defaults. Index 0 always stays the empty slot.
	Palette *Palette

	// PreserveGroups introduces a synthetic root group under which
	// each source scene's root becomes a child, carrying over each
	// source's group hierarchy. When false (the default), groups are
	// flattened and only layers are preserved.
	PreserveGroups bool
}
