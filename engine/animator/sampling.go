package animator

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// keySpan finds the keyframes around t. It returns the index of the last key at
// or before t and the blend factor toward the next one. Times before the first
// key clamp to the first key and times after the last clamp to the last.
func keySpan(n int, time func(i int) float32, t float32) (int, float32) {
	if n == 0 {
		return -1, 0
	}
	if t <= time(0) {
		return 0, 0
	}
	if t >= time(n-1) {
		return n - 1, 0
	}
	next := sort.Search(n, func(i int) bool { return time(i) > t })
	i := next - 1
	span := time(next) - time(i)
	if span <= 0 {
		return i, 0
	}
	return i, (t - time(i)) / span
}

func sampleVector(keys []model.VectorKeyframe, interp model.Interpolation, t float32) (mgl32.Vec3, bool) {
	i, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if i < 0 {
		return mgl32.Vec3{}, false
	}
	if f == 0 || interp == model.InterpolationStep {
		return keys[i].Value, true
	}
	return lerpVec3(keys[i].Value, keys[i+1].Value, f), true
}

func sampleRotation(keys []model.QuaternionKeyframe, interp model.Interpolation, t float32) (mgl32.Quat, bool) {
	i, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if i < 0 {
		return mgl32.QuatIdent(), false
	}
	if f == 0 || interp == model.InterpolationStep {
		return keys[i].Value, true
	}
	return slerp(keys[i].Value, keys[i+1].Value, f), true
}

func lerpVec3(a, b mgl32.Vec3, f float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// slerp interpolates along the shorter arc.
func slerp(a, b mgl32.Quat, f float32) mgl32.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, f).Normalize()
}
