package vox

// SampleInstanceTransformLocal returns the instance's transform at the
// given frame. Instance transforms and keyframes hold composed world
// transforms, so this returns the same value as
// SampleInstanceTransformGlobal; the instance node's own local transform
// is not kept on Instance. Static instances (no Keyframes) ignore frame
// and always return their single Transform. Animated instances clamp
// frame to the nearest available keyframe (spec §9).
func SampleInstanceTransformLocal(inst *Instance, frame int) Transform {
	if len(inst.Keyframes) == 0 {
		return inst.Transform
	}
	return nearestKeyframe(inst.Keyframes, frame).Transform
}

// SampleInstanceTransformGlobal returns the instance's world transform at
// the given frame. The reader precomposes each keyframe's world transform
// at parse time, so this returns the same value as
// SampleInstanceTransformLocal.
func SampleInstanceTransformGlobal(inst *Instance, frame int) Transform {
	return SampleInstanceTransformLocal(inst, frame)
}

// SampleInstanceModel returns the model index the instance shows at the
// given frame.
func SampleInstanceModel(inst *Instance, frame int) int {
	if len(inst.ModelKeyframes) == 0 {
		return inst.ModelIndex
	}
	best := inst.ModelKeyframes[0]
	bestDist := abs(best.Frame - frame)
	for _, kf := range inst.ModelKeyframes[1:] {
		d := abs(kf.Frame - frame)
		if d < bestDist {
			best = kf
			bestDist = d
		}
	}
	return best.ModelIndex
}

func nearestKeyframe(frames []TransformKeyframe, frame int) TransformKeyframe {
	best := frames[0]
	bestDist := abs(best.Frame - frame)
	for _, kf := range frames[1:] {
		d := abs(kf.Frame - frame)
		if d < bestDist {
			best = kf
			bestDist = d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
