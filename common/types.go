// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the placement of an entity in world space: a translation, an
// orientation quaternion and a per-axis scale. It is a plain value type; systems
// read it, compute a new one and write it back.
type Transform struct {
	// Position is the world-space translation.
	Position mgl32.Vec3

	// Rotation is the world-space orientation.
	Rotation mgl32.Quat

	// Scale is the per-axis scale factor.
	Scale mgl32.Vec3
}

// NewTransform returns a transform at the given position with identity rotation and unit scale.
//
// Parameters:
//   - x, y, z: world-space position
//
// Returns:
//   - Transform: the new transform
func NewTransform(x, y, z float32) Transform {
	return Transform{
		Position: mgl32.Vec3{x, y, z},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// LookingAt returns a copy of the transform rotated so that its forward axis (-Z)
// points at target, with world +Y as up and no roll. If target coincides with the
// position the transform is returned unchanged.
//
// Parameters:
//   - target: world-space point to look at
//
// Returns:
//   - Transform: the rotated transform
func (t Transform) LookingAt(target mgl32.Vec3) Transform {
	dir := target.Sub(t.Position)
	if dir.Len() < 1e-8 {
		return t
	}
	dir = dir.Normalize()
	yaw := Atan2(-dir.X(), -dir.Z())
	pitch := Asin(mgl32.Clamp(dir.Y(), -1, 1))
	t.Rotation = QuatFromYawPitch(yaw, pitch)
	return t
}

// Forward returns the transform's local -Z axis in world space.
func (t Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

// Right returns the transform's local +X axis in world space.
func (t Transform) Right() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

// Up returns the transform's local +Y axis in world space.
func (t Transform) Up() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

// Matrix composes translation * rotation * scale into a column-major model matrix.
//
// Returns:
//   - mgl32.Mat4: the model matrix
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// IsFinite reports whether every component of the transform is a finite number.
//
// Returns:
//   - bool: false if any component is NaN or infinite
func (t Transform) IsFinite() bool {
	return IsFiniteVec3(t.Position) && IsFiniteQuat(t.Rotation) && IsFiniteVec3(t.Scale)
}

// ImportedMaterial represents material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32
}
