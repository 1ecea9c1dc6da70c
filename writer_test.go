package vox

import (
	"bytes"
	"testing"
)

func oneModelScene() *Scene {
	sc := &Scene{
		Palette: DefaultPalette(),
		Models: []Model{
			{SizeX: 2, SizeY: 1, SizeZ: 1, Voxels: []byte{1, 2}},
		},
		Layers: []Layer{{}},
	}
	sc.Instances = []Instance{
		{ModelIndex: 0, Transform: Identity().WithTranslation(3, 4, 5)},
	}
	return sc
}

func TestWriteSceneRoundTrips(t *testing.T) {
	sc := oneModelScene()
	data, err := WriteScene(sc)
	if err != nil {
		t.Fatalf("WriteScene: %v", err)
	}

	got, err := ReadScene(data, 0)
	if err != nil {
		t.Fatalf("ReadScene(WriteScene(sc)): %v", err)
	}
	if len(got.Models) != 1 {
		t.Fatalf("len(Models) = %d, want 1", len(got.Models))
	}
	m := got.Models[0]
	if m.SizeX != 2 || m.SizeY != 1 || m.SizeZ != 1 {
		t.Errorf("model dims = %dx%dx%d, want 2x1x1", m.SizeX, m.SizeY, m.SizeZ)
	}
	if m.Voxels[0] != 1 || m.Voxels[1] != 2 {
		t.Errorf("voxels = %v, want [1 2]", m.Voxels)
	}
	if len(got.Instances) != 1 {
		t.Fatalf("len(Instances) = %d, want 1", len(got.Instances))
	}
	if tr := got.Instances[0].Transform.Translation(); tr != [3]int32{3, 4, 5} {
		t.Errorf("round-tripped translation = %v, want (3,4,5)", tr)
	}
}

func TestWriteSceneMainChunkChildrenSizeIsPatched(t *testing.T) {
	sc := oneModelScene()
	data, err := WriteScene(sc)
	if err != nil {
		t.Fatalf("WriteScene: %v", err)
	}

	r := newChunkReader(data)
	if _, err := r.str(4); err != nil { // magic
		t.Fatalf("reading magic: %v", err)
	}
	if _, err := r.u32(); err != nil { // version
		t.Fatalf("reading version: %v", err)
	}
	id, err := r.str(4)
	if err != nil || id != "MAIN" {
		t.Fatalf("id = %q, %v, want MAIN", id, err)
	}
	contentSize, err := r.u32()
	if err != nil || contentSize != 0 {
		t.Fatalf("MAIN content size = %d, %v, want 0", contentSize, err)
	}
	childrenSize, err := r.u32()
	if err != nil {
		t.Fatalf("reading MAIN children size: %v", err)
	}
	if int(childrenSize) != r.remaining() {
		t.Errorf("MAIN children size = %d, want %d (remaining bytes)", childrenSize, r.remaining())
	}
}

func TestWriteSceneRejectsOversizedModel(t *testing.T) {
	sc := &Scene{
		Palette: DefaultPalette(),
		Models:  []Model{{SizeX: 127, SizeY: 1, SizeZ: 1, Voxels: make([]byte, 127)}},
		Layers:  []Layer{{}},
	}
	if _, err := WriteScene(sc); err == nil {
		t.Error("expected an error for a model exceeding 126 voxels on an axis")
	}
}

func TestWriteSceneRejectsUnpackableRotation(t *testing.T) {
	sc := oneModelScene()
	bad := sc.Instances[0].Transform
	bad[idx(0, 0)] = 0.5
	bad[idx(1, 0)] = 0.5
	sc.Instances[0].Transform = bad
	if _, err := WriteScene(sc); err == nil {
		t.Error("expected an error for a non-axis-aligned instance rotation")
	}
}

func TestWriteSceneIdentityFrameOmitsRAndT(t *testing.T) {
	sc := &Scene{
		Palette:   DefaultPalette(),
		Models:    []Model{{SizeX: 1, SizeY: 1, SizeZ: 1, Voxels: []byte{1}}},
		Layers:    []Layer{{}},
		Instances: []Instance{{ModelIndex: 0, Transform: Identity()}},
	}
	data, err := WriteScene(sc)
	if err != nil {
		t.Fatalf("WriteScene: %v", err)
	}
	if bytes.Contains(data, []byte("_r")) || bytes.Contains(data, []byte("_t")) {
		t.Error("identity instance frame dictionary should carry neither _r nor _t")
	}
	got, err := ReadScene(data, 0)
	if err != nil {
		t.Fatalf("ReadScene: %v", err)
	}
	if got.Instances[0].Transform != Identity() {
		t.Errorf("round-tripped identity instance = %v, want Identity()", got.Instances[0].Transform)
	}
}

func TestWriteSceneMultipleInstancesAndModels(t *testing.T) {
	sc := &Scene{
		Palette: DefaultPalette(),
		Models: []Model{
			{SizeX: 1, SizeY: 1, SizeZ: 1, Voxels: []byte{1}},
			{SizeX: 1, SizeY: 1, SizeZ: 1, Voxels: []byte{2}},
		},
		Layers: []Layer{{}, {Hidden: true}},
		Instances: []Instance{
			{ModelIndex: 0, Transform: Identity()},
			{ModelIndex: 1, Transform: Identity().WithTranslation(1, 0, 0), LayerIndex: 1},
		},
	}
	data, err := WriteScene(sc)
	if err != nil {
		t.Fatalf("WriteScene: %v", err)
	}
	got, err := ReadScene(data, 0)
	if err != nil {
		t.Fatalf("ReadScene: %v", err)
	}
	if len(got.Models) != 2 || len(got.Instances) != 2 {
		t.Fatalf("got %d models, %d instances; want 2, 2", len(got.Models), len(got.Instances))
	}
	if len(got.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(got.Layers))
	}
	if !got.Layers[1].Hidden {
		t.Error("layer 1 should round-trip as hidden")
	}
}
