package vox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flywave/go-vox-scene/internal/voxlog"
)

const (
	magicVox       = "VOX "
	versionCurrent = 150
	versionLegacy  = 200
)

type nodeKind uint8

const (
	nodeTransform nodeKind = iota
	nodeGroup
	nodeShape
)

// sceneNode is one entry of the reader's sparse, forward-reference-
// tolerant node table (spec §9 "node graph with forward references").
type sceneNode struct {
	kind nodeKind

	// transform
	childID int32
	layerID int32
	name    string
	hidden  bool
	frames  []TransformKeyframe // local transforms, one per file frame

	// group
	children []int32

	// shape
	models []shapeModelRef
}

type shapeModelRef struct {
	modelID int32
	frame   int
}

// readState accumulates everything the chunk dispatch loop parses before
// it is flattened into a Scene by build().
type readState struct {
	flags ReadFlags

	curSize [3]int
	models  []Model

	palette     Palette
	havePalette bool

	nodes map[int32]*sceneNode

	layers        map[int32]Layer
	layerNamesMap map[int32]string
	maxLayer      int32

	imap *[256]byte
}

// ReadScene parses a complete .vox file and returns the flattened Scene,
// or an error for any of the fatal conditions in spec §4.3/§7.
func ReadScene(data []byte, flags ReadFlags) (*Scene, error) {
	r := newChunkReader(data)
	magic, err := r.str(4)
	if err != nil {
		return nil, fmt.Errorf("vox: reading magic: %w", err)
	}
	if magic != magicVox {
		return nil, fmt.Errorf("vox: not a .vox file (bad magic %q)", magic)
	}
	version, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("vox: reading version: %w", err)
	}
	if version != versionCurrent && version != versionLegacy {
		return nil, fmt.Errorf("vox: unsupported version %d", version)
	}

	id, content, children, err := readChunkHeader(r)
	if err != nil {
		return nil, fmt.Errorf("vox: reading MAIN chunk: %w", err)
	}
	if id != "MAIN" {
		return nil, fmt.Errorf("vox: expected MAIN chunk, got %q", id)
	}
	if len(content) != 0 {
		return nil, fmt.Errorf("vox: MAIN chunk must carry no content")
	}

	st := &readState{
		flags:  flags,
		nodes:  make(map[int32]*sceneNode),
		layers: make(map[int32]Layer),
	}

	cr := newChunkReader(children)
	for !cr.eof() {
		cid, ccontent, _, err := readChunkHeader(cr)
		if err != nil {
			return nil, fmt.Errorf("vox: reading chunk: %w", err)
		}
		if err := st.dispatch(cid, ccontent); err != nil {
			return nil, err
		}
	}

	return st.build()
}

func readChunkHeader(r *chunkReader) (id string, content, children []byte, err error) {
	id, err = r.str(4)
	if err != nil {
		return "", nil, nil, err
	}
	n, err := r.u32()
	if err != nil {
		return "", nil, nil, err
	}
	m, err := r.u32()
	if err != nil {
		return "", nil, nil, err
	}
	content, err = r.bytesN(int(n))
	if err != nil {
		return "", nil, nil, err
	}
	children, err = r.bytesN(int(m))
	if err != nil {
		return "", nil, nil, err
	}
	return id, content, children, nil
}

func (st *readState) dispatch(id string, content []byte) error {
	switch id {
	case "SIZE":
		return st.readSize(content)
	case "XYZI":
		return st.readXYZI(content)
	case "RGBA":
		return st.readRGBA(content)
	case "nTRN":
		return st.readNTRN(content)
	case "nGRP":
		return st.readNGRP(content)
	case "nSHP":
		return st.readNSHP(content)
	case "IMAP":
		return st.readIMAP(content)
	case "LAYR":
		return st.readLAYR(content)
	case "MATL", "MATT":
		return nil
	default:
		return nil
	}
}

func (st *readState) readSize(content []byte) error {
	r := newChunkReader(content)
	x, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: SIZE: %w", err)
	}
	y, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: SIZE: %w", err)
	}
	z, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: SIZE: %w", err)
	}
	st.curSize = [3]int{int(x), int(y), int(z)}
	return nil
}

func (st *readState) readXYZI(content []byte) error {
	r := newChunkReader(content)
	n, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: XYZI: %w", err)
	}
	sx, sy, sz := st.curSize[0], st.curSize[1], st.curSize[2]
	grid := allocBytes(sx * sy * sz)
	for i := uint32(0); i < n; i++ {
		x, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: XYZI voxel %d: %w", i, err)
		}
		y, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: XYZI voxel %d: %w", i, err)
		}
		z, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: XYZI voxel %d: %w", i, err)
		}
		ci, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: XYZI voxel %d: %w", i, err)
		}
		if int(x) >= sx || int(y) >= sy || int(z) >= sz {
			return fmt.Errorf("vox: XYZI voxel %d coordinate (%d,%d,%d) out of %dx%dx%d bounds", i, x, y, z, sx, sy, sz)
		}
		grid[int(x)+int(y)*sx+int(z)*sx*sy] = ci
	}
	st.models = append(st.models, Model{SizeX: sx, SizeY: sy, SizeZ: sz, Voxels: grid})
	return nil
}

func (st *readState) readRGBA(content []byte) error {
	r := newChunkReader(content)
	var p Palette
	for i := 0; i < 256; i++ {
		cr, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: RGBA: %w", err)
		}
		cg, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: RGBA: %w", err)
		}
		cb, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: RGBA: %w", err)
		}
		ca, err := r.u8()
		if err != nil {
			return fmt.Errorf("vox: RGBA: %w", err)
		}
		p[i] = Color{R: cr, G: cg, B: cb, A: ca}
	}
	st.palette = p
	st.havePalette = true
	return nil
}

func parseFrameTransform(d *dict) Transform {
	rows := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if rs, ok := d.get("_r"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rs))
		if err == nil {
			if decoded, err := UnpackRotation(byte(n)); err == nil {
				rows = decoded
			} else {
				voxlog.Warnw("nTRN frame has invalid packed rotation byte", "value", rs, "error", err)
			}
		} else {
			voxlog.Warnw("nTRN frame _r is not an integer", "value", rs)
		}
	}
	var t [3]int32
	if ts, ok := d.get("_t"); ok {
		parts := strings.Fields(ts)
		if len(parts) == 3 {
			for i, p := range parts {
				v, err := strconv.Atoi(p)
				if err != nil {
					voxlog.Warnw("nTRN frame _t component is not an integer", "value", ts)
					v = 0
				}
				t[i] = int32(v)
			}
		} else {
			voxlog.Warnw("nTRN frame _t does not have 3 components", "value", ts)
		}
	}
	return FromRotationTranslation(rows, t)
}

func (st *readState) readNTRN(content []byte) error {
	r := newChunkReader(content)
	id, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nTRN: %w", err)
	}
	attr, err := r.readDict()
	if err != nil {
		return fmt.Errorf("vox: nTRN attributes: %w", err)
	}
	childID, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nTRN: %w", err)
	}
	reserved, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nTRN: %w", err)
	}
	if reserved != -1 {
		voxlog.Warnw("nTRN reserved field is not -1, proceeding anyway", "node", id, "value", reserved)
	}
	layerID, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nTRN: %w", err)
	}
	numFrames, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: nTRN: %w", err)
	}
	frames := make([]TransformKeyframe, 0, numFrames)
	for f := uint32(0); f < numFrames; f++ {
		fd, err := r.readDict()
		if err != nil {
			return fmt.Errorf("vox: nTRN frame %d: %w", f, err)
		}
		frameIdx := int(f)
		if fs, ok := fd.get("_f"); ok {
			if v, err := strconv.Atoi(fs); err == nil {
				frameIdx = v
			}
		}
		frames = append(frames, TransformKeyframe{Frame: frameIdx, Transform: parseFrameTransform(fd)})
	}
	if len(frames) == 0 {
		frames = append(frames, TransformKeyframe{Transform: Identity()})
	}

	if _, exists := st.nodes[id]; exists {
		voxlog.Warnw("node id appears twice, overwriting", "node", id)
	}
	st.nodes[id] = &sceneNode{
		kind:    nodeTransform,
		childID: childID,
		layerID: layerID,
		name:    attrName(attr),
		hidden:  attr.getBool("_hidden", false),
		frames:  frames,
	}
	return nil
}

func attrName(d *dict) string {
	s, _ := d.get("_name")
	return s
}

func (st *readState) readNGRP(content []byte) error {
	r := newChunkReader(content)
	id, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nGRP: %w", err)
	}
	attr, err := r.readDict()
	if err != nil {
		return fmt.Errorf("vox: nGRP attributes: %w", err)
	}
	n, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: nGRP: %w", err)
	}
	children := make([]int32, 0, n)
	for i := uint32(0); i < n; i++ {
		c, err := r.i32()
		if err != nil {
			return fmt.Errorf("vox: nGRP child %d: %w", i, err)
		}
		children = append(children, c)
	}
	if _, exists := st.nodes[id]; exists {
		voxlog.Warnw("node id appears twice, overwriting", "node", id)
	}
	st.nodes[id] = &sceneNode{
		kind:     nodeGroup,
		children: children,
		name:     attrName(attr),
		hidden:   attr.getBool("_hidden", false),
	}
	return nil
}

func (st *readState) readNSHP(content []byte) error {
	r := newChunkReader(content)
	id, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: nSHP: %w", err)
	}
	attr, err := r.readDict()
	if err != nil {
		return fmt.Errorf("vox: nSHP attributes: %w", err)
	}
	n, err := r.u32()
	if err != nil {
		return fmt.Errorf("vox: nSHP: %w", err)
	}
	refs := make([]shapeModelRef, 0, n)
	for i := uint32(0); i < n; i++ {
		modelID, err := r.i32()
		if err != nil {
			return fmt.Errorf("vox: nSHP model %d: %w", i, err)
		}
		md, err := r.readDict()
		if err != nil {
			return fmt.Errorf("vox: nSHP model %d dict: %w", i, err)
		}
		frame := int(i)
		if fs, ok := md.get("_f"); ok {
			if v, err := strconv.Atoi(fs); err == nil {
				frame = v
			}
		}
		refs = append(refs, shapeModelRef{modelID: modelID, frame: frame})
	}
	if _, exists := st.nodes[id]; exists {
		voxlog.Warnw("node id appears twice, overwriting", "node", id)
	}
	st.nodes[id] = &sceneNode{
		kind:   nodeShape,
		name:   attrName(attr),
		hidden: attr.getBool("_hidden", false),
		models: refs,
	}
	return nil
}

func (st *readState) readIMAP(content []byte) error {
	if len(content) != 256 {
		return fmt.Errorf("vox: IMAP must be 256 bytes, got %d", len(content))
	}
	var imap [256]byte
	copy(imap[:], content)
	st.imap = &imap
	return nil
}

func (st *readState) readLAYR(content []byte) error {
	r := newChunkReader(content)
	id, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: LAYR: %w", err)
	}
	attr, err := r.readDict()
	if err != nil {
		return fmt.Errorf("vox: LAYR attributes: %w", err)
	}
	reserved, err := r.i32()
	if err != nil {
		return fmt.Errorf("vox: LAYR: %w", err)
	}
	if reserved != -1 {
		voxlog.Warnw("LAYR reserved field is not -1, proceeding anyway", "layer", id, "value", reserved)
	}
	if id > st.maxLayer {
		st.maxLayer = id
	}
	st.layers[id] = Layer{Hidden: attr.getBool("_hidden", false)}
	// _name is stashed as a raw string and turned into a NameRef during
	// build(), once we have a Scene to own the string arena.
	if name, ok := attr.get("_name"); ok {
		st.layerNames()[id] = name
	}
	return nil
}

// layerNames lazily allocates the id->name side table used by readLAYR,
// kept off the hot-path readState struct since it's rarely populated.
func (st *readState) layerNames() map[int32]string {
	if st.layerNamesMap == nil {
		st.layerNamesMap = make(map[int32]string)
	}
	return st.layerNamesMap
}

// readInstance mirrors Instance but carries a plain Go string for the name
// until build() has a Scene string arena to intern it into.
type readInstance struct {
	modelIndex     int
	transform      Transform
	layerIndex     int
	groupIndex     int
	name           string
	hidden         bool
	keyframes      []TransformKeyframe
	modelKeyframes []ModelKeyframe
}

// walkFrame is one entry of the explicit work stack used to flatten the
// node graph depth-first without recursion (spec §9).
type walkFrame struct {
	nodeID       int32
	world        Transform
	layerID      int32
	hidden       bool
	name         string
	groupIndex   int
	pendingAnim  []TransformKeyframe // per-frame world transforms composed along this path so far
}

func (st *readState) build() (*Scene, error) {
	palette := st.resolvePalette()

	var instances []readInstance
	var groups []Group

	if len(st.nodes) == 0 {
		if len(st.models) == 1 {
			instances = append(instances, readInstance{modelIndex: 0, transform: Identity()})
		}
	} else {
		stack := []walkFrame{{nodeID: 0, world: Identity(), groupIndex: NoParentGroup}}
		// A DAG can legitimately visit the same node through more than one
		// path (shared subtrees), so cycles can't be caught with a simple
		// visited set. Bound total work instead: real scenes produce at
		// most a handful of frames per node.
		budget := 64*len(st.nodes) + 1024
		steps := 0
		for len(stack) > 0 {
			steps++
			if steps > budget {
				voxlog.Warnw("scene graph traversal exceeded its step budget, likely a cycle; truncating", "budget", budget)
				break
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			node, ok := st.nodes[f.nodeID]
			if !ok {
				voxlog.Warnw("scene graph references unknown node id", "node", f.nodeID)
				continue
			}

			switch node.kind {
			case nodeTransform:
				local := node.frames[0].Transform
				newWorld := Multiply(local, f.world)
				newHidden := f.hidden || node.hidden
				newName := f.name
				if node.name != "" {
					newName = node.name
				}
				pending := f.pendingAnim
				if st.flags.has(ReadFlagKeyframes) && (len(node.frames) > 1 || len(f.pendingAnim) > 0) {
					frames := f.pendingAnim
					if len(node.frames) > 1 {
						frames = append(append([]TransformKeyframe{}, frames...), node.frames...)
					}
					frameSet := make(map[int]bool)
					for _, kf := range frames {
						frameSet[kf.Frame] = true
					}
					pending = make([]TransformKeyframe, 0, len(frameSet))
					for fr := range frameSet {
						parent := f.world
						if len(f.pendingAnim) > 0 {
							parent = nearestKeyframe(f.pendingAnim, fr).Transform
						}
						pending = append(pending, TransformKeyframe{Frame: fr, Transform: Multiply(nearestKeyframe(node.frames, fr).Transform, parent)})
					}
					sort.Slice(pending, func(i, j int) bool { return pending[i].Frame < pending[j].Frame })
				}
				stack = append(stack, walkFrame{
					nodeID:      node.childID,
					world:       newWorld,
					layerID:     node.layerID,
					hidden:      newHidden,
					name:        newName,
					groupIndex:  f.groupIndex,
					pendingAnim: pending,
				})

			case nodeGroup:
				newHidden := f.hidden
				newGroupIndex := f.groupIndex
				if st.flags.has(ReadFlagGroups) {
					groups = append(groups, Group{
						Hidden:           f.hidden || node.hidden,
						LayerIndex:       int(f.layerID),
						ParentGroupIndex: f.groupIndex,
						Transform:        f.world,
					})
					newGroupIndex = len(groups) - 1
				} else {
					newHidden = f.hidden || node.hidden
				}
				// push children in reverse so traversal order matches
				// document order despite the stack being LIFO.
				for i := len(node.children) - 1; i >= 0; i-- {
					stack = append(stack, walkFrame{
						nodeID:      node.children[i],
						world:       f.world,
						layerID:     f.layerID,
						hidden:      newHidden,
						name:        f.name,
						groupIndex:  newGroupIndex,
						pendingAnim: f.pendingAnim,
					})
				}

			case nodeShape:
				if len(node.models) == 0 {
					voxlog.Warnw("nSHP node has no model references", "node", f.nodeID)
					continue
				}
				primary := node.models[0]
				if int(primary.modelID) < 0 || int(primary.modelID) >= len(st.models) {
					voxlog.Warnw("nSHP references out-of-range model index, skipping instance", "node", f.nodeID, "model", primary.modelID)
					continue
				}
				inst := readInstance{
					modelIndex: int(primary.modelID),
					transform:  f.world,
					layerIndex: int(f.layerID),
					groupIndex: f.groupIndex,
					name:       f.name,
					hidden:     f.hidden,
					keyframes:  f.pendingAnim,
				}
				if st.flags.has(ReadFlagKeyframes) && len(node.models) > 1 {
					mk := make([]ModelKeyframe, 0, len(node.models))
					for _, ref := range node.models {
						if int(ref.modelID) < 0 || int(ref.modelID) >= len(st.models) {
							voxlog.Warnw("nSHP model keyframe references out-of-range model index, skipping frame", "node", f.nodeID, "model", ref.modelID)
							continue
						}
						mk = append(mk, ModelKeyframe{Frame: ref.frame, ModelIndex: int(ref.modelID)})
					}
					inst.modelKeyframes = mk
				}
				instances = append(instances, inst)
			}
		}
	}

	numLayers := int(st.maxLayer) + 1
	for _, inst := range instances {
		if inst.layerIndex+1 > numLayers {
			numLayers = inst.layerIndex + 1
		}
	}
	for _, g := range groups {
		if g.LayerIndex+1 > numLayers {
			numLayers = g.LayerIndex + 1
		}
	}
	if numLayers < 1 {
		numLayers = 1
	}
	sceneLayers := make([]Layer, numLayers)
	for id, l := range st.layers {
		if id >= 0 {
			sceneLayers[id] = l
		}
	}

	models := st.models
	if !st.flags.has(ReadFlagKeepDuplicateModels) {
		models, instances = dedupeModels(models, instances)
	}
	models, instances = compactModels(models, instances, st.flags.has(ReadFlagKeepEmptyModelsInstances))

	sort.SliceStable(instances, func(i, j int) bool { return instances[i].modelIndex < instances[j].modelIndex })

	sc := &Scene{Palette: palette, Models: models, Layers: sceneLayers, Groups: groups}
	for id, name := range st.layerNamesMap {
		if id >= 0 && int(id) < len(sc.Layers) {
			sc.Layers[id].Name = sc.addName(name)
		}
	}
	sc.Instances = make([]Instance, 0, len(instances))
	for _, ri := range instances {
		sc.Instances = append(sc.Instances, Instance{
			ModelIndex:     ri.modelIndex,
			Transform:      ri.transform,
			LayerIndex:     ri.layerIndex,
			GroupIndex:     ri.groupIndex,
			Name:           sc.addName(ri.name),
			Hidden:         ri.hidden,
			Keyframes:      ri.keyframes,
			ModelKeyframes: ri.modelKeyframes,
		})
	}
	return sc, nil
}

// resolvePalette applies the IMAP index-map fix-up (spec §4.3) and the
// file/runtime palette rotation, uniformly whether or not an RGBA chunk
// was present.
func (st *readState) resolvePalette() Palette {
	var raw Palette
	if st.havePalette {
		raw = st.palette
	} else {
		raw = rotatePaletteOut(DefaultPalette())
	}

	if st.imap != nil {
		var inv [256]byte
		for display := 0; display < 256; display++ {
			actual := st.imap[display]
			inv[actual] = byte(display)
		}
		var remapped Palette
		for display := 0; display < 256; display++ {
			actual := st.imap[display]
			srcIdx := (int(actual) + 255) % 256
			remapped[display] = raw[srcIdx]
		}
		raw = remapped
		for mi := range st.models {
			voxels := st.models[mi].Voxels
			for i, v := range voxels {
				if v != 0 {
					voxels[i] = inv[v] + 1
				}
			}
		}
	}

	return rotatePaletteIn(raw)
}

func dedupeModels(models []Model, instances []readInstance) ([]Model, []readInstance) {
	remap := make([]int, len(models))
	removed := make([]bool, len(models))
	for i := range models {
		remap[i] = i
	}
	for i := range models {
		if removed[i] {
			continue
		}
		for j := i + 1; j < len(models); j++ {
			if removed[j] {
				continue
			}
			if models[i].Equal(&models[j]) {
				removed[j] = true
				remap[j] = i
			}
		}
	}
	kept := make([]Model, 0, len(models))
	keptRemap := make([]int, len(models))
	for i, m := range models {
		if removed[i] {
			continue
		}
		keptRemap[i] = len(kept)
		kept = append(kept, m)
	}
	for i := range instances {
		instances[i].modelIndex = keptRemap[remap[instances[i].modelIndex]]
		for k := range instances[i].modelKeyframes {
			instances[i].modelKeyframes[k].ModelIndex = keptRemap[remap[instances[i].modelKeyframes[k].ModelIndex]]
		}
	}
	return kept, instances
}

func compactModels(models []Model, instances []readInstance, keepEmpty bool) ([]Model, []readInstance) {
	if keepEmpty {
		return models, instances
	}
	remap := make([]int, len(models))
	kept := make([]Model, 0, len(models))
	for i, m := range models {
		if m.IsEmpty() {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, m)
	}
	outInstances := make([]readInstance, 0, len(instances))
	for _, inst := range instances {
		if remap[inst.modelIndex] == -1 {
			continue
		}
		inst.modelIndex = remap[inst.modelIndex]
		filteredKF := inst.modelKeyframes[:0]
		for _, kf := range inst.modelKeyframes {
			if remap[kf.ModelIndex] == -1 {
				continue
			}
			kf.ModelIndex = remap[kf.ModelIndex]
			filteredKF = append(filteredKF, kf)
		}
		inst.modelKeyframes = filteredKF
		outInstances = append(outInstances, inst)
	}
	return kept, outInstances
}
