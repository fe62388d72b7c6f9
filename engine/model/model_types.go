package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Geometry Types ---

// Vertex is a single mesh vertex as stored on the CPU, including skinning data.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2

	// Joints are indices into the owning skin's joint list.
	Joints [4]uint16

	// Weights are the blend weights for Joints. They sum to 1 for skinned vertices.
	Weights [4]float32
}

// Primitive is one drawable piece of a mesh with a single material.
type Primitive struct {
	// Vertices are the primitive's vertices in bind pose.
	Vertices []Vertex

	// Indices are the triangle list indices.
	Indices []uint32

	// MaterialIndex references Model.Materials, or -1 for the default material.
	MaterialIndex int

	// Skinned is true when the vertices carry joint influences.
	Skinned bool

	// BoundsMin and BoundsMax are the axis-aligned bounds of the bind pose.
	BoundsMin mgl32.Vec3
	BoundsMax mgl32.Vec3
}

// Mesh is a named group of primitives referenced by nodes.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// --- Scene Graph Types ---

// Node is an element of the model's node hierarchy.
type Node struct {
	// Name is the node identifier (for debugging and animation targeting).
	Name string

	// Parent is the index of the parent node, or -1 for roots.
	Parent int

	// Children are the indices of the child nodes.
	Children []int

	// Local is the node's rest transform relative to its parent.
	Local common.Transform

	// Mesh is the index into Model.Meshes, or -1 if the node has no geometry.
	Mesh int

	// Skin is the index into Model.Skins, or -1 if the mesh is not skinned.
	Skin int
}

// Skin binds mesh vertices to a set of joint nodes.
type Skin struct {
	Name string

	// Joints are node indices. Vertex joint indices refer to positions in this list.
	Joints []int

	// InverseBindMatrices transform from model space to joint space at bind pose,
	// one per joint.
	InverseBindMatrices []mgl32.Mat4
}

// SceneRoots is one of the scenes stored in a model file: a named list of root nodes.
type SceneRoots struct {
	Name  string
	Roots []int
}

// --- Animation Types ---

// Interpolation selects how keyframes are blended.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	// InterpolationCubicSpline channels keep only their value keys and are sampled linearly.
	InterpolationCubicSpline
)

// AnimationClip represents a single animation (walk, run, attack, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Channels contains animation data for each animated node.
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single node.
type AnimationChannel struct {
	// NodeIndex is the index of the node this channel animates.
	NodeIndex int

	// Interpolation applies to all key tracks of the channel.
	Interpolation Interpolation

	// PositionKeys are keyframes for translation.
	PositionKeys []VectorKeyframe

	// RotationKeys are keyframes for rotation.
	RotationKeys []QuaternionKeyframe

	// ScaleKeys are keyframes for scale.
	ScaleKeys []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value mgl32.Vec3
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the rotation at this keyframe.
	Value mgl32.Quat
}
