package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPitch is the largest look angle above or below the horizon, in radians (89°).
// Keeping it strictly inside ±90° prevents the view from flipping over the pole.
const MaxPitch float32 = 89.0 * math32.Pi / 180.0

// Atan2 is the float32 arctangent of y/x.
func Atan2(y, x float32) float32 { return math32.Atan2(y, x) }

// Asin is the float32 arcsine.
func Asin(x float32) float32 { return math32.Asin(x) }

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

// IsFiniteVec3 reports whether every component of v is finite.
func IsFiniteVec3(v mgl32.Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// IsFiniteQuat reports whether every component of q is finite.
func IsFiniteQuat(q mgl32.Quat) bool {
	return IsFinite(q.W) && IsFiniteVec3(q.V)
}

// ClampPitch clamps a pitch angle to [-MaxPitch, MaxPitch]. Non-finite input yields 0.
//
// Parameters:
//   - pitch: angle in radians
//
// Returns:
//   - float32: the clamped angle
func ClampPitch(pitch float32) float32 {
	if !IsFinite(pitch) {
		return 0
	}
	return mgl32.Clamp(pitch, -MaxPitch, MaxPitch)
}

// QuatFromYawPitch composes a roll-free orientation: a rotation of yaw about world +Y
// followed by a rotation of pitch about the resulting local +X axis.
//
// Parameters:
//   - yaw: rotation about world Y in radians (positive turns left)
//   - pitch: rotation about local X in radians (positive looks up)
//
// Returns:
//   - mgl32.Quat: the composed orientation
func QuatFromYawPitch(yaw, pitch float32) mgl32.Quat {
	return mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0}))
}

// YawPitchFromQuat decomposes an orientation into the yaw and pitch used by
// QuatFromYawPitch, discarding roll. Looking straight up or down the yaw is
// recovered from the up axis instead of the degenerate forward axis.
//
// Parameters:
//   - q: the orientation to decompose
//
// Returns:
//   - yaw: rotation about world Y in radians
//   - pitch: rotation about local X in radians
func YawPitchFromQuat(q mgl32.Quat) (yaw, pitch float32) {
	if q.Len() < 1e-8 {
		return 0, 0
	}
	q = q.Normalize()
	f := q.Rotate(mgl32.Vec3{0, 0, -1})

	if math32.Abs(f.Y()) < 0.9999 {
		pitch = math32.Asin(mgl32.Clamp(f.Y(), -1, 1))
		yaw = math32.Atan2(-f.X(), -f.Z())
		return yaw, pitch
	}

	// Looking along ±Y: forward carries no heading, the up axis does.
	s := float32(1)
	if f.Y() < 0 {
		s = -1
	}
	u := q.Rotate(mgl32.Vec3{0, 1, 0})
	return math32.Atan2(s*u.X(), s*u.Z()), s * math32.Pi / 2
}

// QuatFromEulerZYX builds a rotation from intrinsic Z, then Y, then X angles
// (q = Rz(z) * Ry(y) * Rx(x)).
//
// Parameters:
//   - z, y, x: angles in radians
//
// Returns:
//   - mgl32.Quat: the composed rotation
func QuatFromEulerZYX(z, y, x float32) mgl32.Quat {
	return mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1}).
		Mul(mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})).
		Mul(mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0}))
}

// DampingFactor returns the frame-rate independent interpolation weight
// 1 - exp(-rate*dt). A non-positive or non-finite rate or dt yields 0 (no change);
// the result is always within [0, 1].
//
// Parameters:
//   - rate: exponential damping rate per second
//   - dt: elapsed time in seconds
//
// Returns:
//   - float32: interpolation weight in [0, 1]
func DampingFactor(rate, dt float32) float32 {
	if !IsFinite(rate) || !IsFinite(dt) || rate <= 0 || dt <= 0 {
		return 0
	}
	return mgl32.Clamp(1-math32.Exp(-rate*dt), 0, 1)
}

// PerspectiveZO creates a right-handed perspective projection with clip-space depth
// in [0, 1], matching the WebGPU convention (mgl32.Perspective targets OpenGL's [-1, 1]).
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// OrthoZO returns a right-handed orthographic projection matrix with a [0, 1]
// depth range, matching WebGPU clip space.
//
// Parameters:
//   - left, right, bottom, top: the view volume bounds in view space
//   - near: near plane distance
//   - far: far plane distance (must differ from near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func OrthoZO(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	var out mgl32.Mat4
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = -1 / (far - near)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = -near / (far - near)
	out[15] = 1
	return out
}
