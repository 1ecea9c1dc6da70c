package vox

import "testing"

func TestSampleInstanceTransformLocalStaticIgnoresFrame(t *testing.T) {
	inst := &Instance{Transform: Identity().WithTranslation(1, 2, 3)}
	for _, frame := range []int{0, 5, -3} {
		if got := SampleInstanceTransformLocal(inst, frame); got != inst.Transform {
			t.Errorf("frame %d: got %v, want the static transform %v", frame, got, inst.Transform)
		}
	}
}

func TestSampleInstanceTransformLocalClampsToNearestFrame(t *testing.T) {
	inst := &Instance{
		Keyframes: []TransformKeyframe{
			{Frame: 0, Transform: Identity().WithTranslation(0, 0, 0)},
			{Frame: 10, Transform: Identity().WithTranslation(10, 0, 0)},
		},
	}
	cases := []struct {
		frame int
		want  [3]int32
	}{
		{-5, [3]int32{0, 0, 0}},
		{4, [3]int32{0, 0, 0}},
		{6, [3]int32{10, 0, 0}},
		{100, [3]int32{10, 0, 0}},
	}
	for _, c := range cases {
		got := SampleInstanceTransformLocal(inst, c.frame).Translation()
		if got != c.want {
			t.Errorf("frame %d: got %v, want %v", c.frame, got, c.want)
		}
	}
}

func TestSampleInstanceTransformGlobalAgreesWithLocal(t *testing.T) {
	inst := &Instance{
		Keyframes: []TransformKeyframe{
			{Frame: 0, Transform: Identity()},
			{Frame: 1, Transform: Identity().WithTranslation(7, 0, 0)},
		},
	}
	for _, frame := range []int{0, 1, 2} {
		local := SampleInstanceTransformLocal(inst, frame)
		global := SampleInstanceTransformGlobal(inst, frame)
		if local != global {
			t.Errorf("frame %d: local %v != global %v", frame, local, global)
		}
	}
}

func TestSampleInstanceModelStaticIgnoresFrame(t *testing.T) {
	inst := &Instance{ModelIndex: 2}
	if got := SampleInstanceModel(inst, 50); got != 2 {
		t.Errorf("SampleInstanceModel = %d, want 2", got)
	}
}

func TestSampleInstanceModelClampsToNearestKeyframe(t *testing.T) {
	inst := &Instance{
		ModelKeyframes: []ModelKeyframe{
			{Frame: 0, ModelIndex: 0},
			{Frame: 10, ModelIndex: 1},
		},
	}
	if got := SampleInstanceModel(inst, 3); got != 0 {
		t.Errorf("SampleInstanceModel(3) = %d, want 0", got)
	}
	if got := SampleInstanceModel(inst, 9); got != 1 {
		t.Errorf("SampleInstanceModel(9) = %d, want 1", got)
	}
}
