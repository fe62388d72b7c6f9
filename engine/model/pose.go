package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a mutable set of node transforms for one instance of a Model. Each entity
// showing an animated model owns its own Pose, so a shared Model is never mutated.
// A Pose is not safe for concurrent use.
type Pose struct {
	model   Model
	order   []int
	locals  []common.Transform
	globals []mgl32.Mat4
	dirty   bool
}

// NewPose creates a pose at the model's rest transforms.
//
// Parameters:
//   - m: the model the pose belongs to
//
// Returns:
//   - *Pose: the new pose
func NewPose(m Model) *Pose {
	nodes := m.Nodes()
	p := &Pose{
		model:   m,
		locals:  make([]common.Transform, len(nodes)),
		globals: make([]mgl32.Mat4, len(nodes)),
	}

	// parents first, so a single pass fills the globals
	for i, n := range nodes {
		if n.Parent == -1 {
			p.order = append(p.order, i)
		}
	}
	for i := 0; i < len(p.order); i++ {
		p.order = append(p.order, nodes[p.order[i]].Children...)
	}

	p.Reset()
	return p
}

// Model returns the model this pose animates.
func (p *Pose) Model() Model {
	return p.model
}

// Reset restores every node to its rest transform.
func (p *Pose) Reset() {
	for i, n := range p.model.Nodes() {
		p.locals[i] = n.Local
	}
	p.dirty = true
}

// Local returns a node's current local transform.
func (p *Pose) Local(node int) common.Transform {
	return p.locals[node]
}

// SetTranslation overrides a node's local translation.
func (p *Pose) SetTranslation(node int, v mgl32.Vec3) {
	p.locals[node].Position = v
	p.dirty = true
}

// SetRotation overrides a node's local rotation.
func (p *Pose) SetRotation(node int, q mgl32.Quat) {
	p.locals[node].Rotation = q
	p.dirty = true
}

// SetScale overrides a node's local scale.
func (p *Pose) SetScale(node int, v mgl32.Vec3) {
	p.locals[node].Scale = v
	p.dirty = true
}

// Global returns a node's transform relative to the model root.
//
// Parameters:
//   - node: the node index
//
// Returns:
//   - mgl32.Mat4: the model-space node matrix
func (p *Pose) Global(node int) mgl32.Mat4 {
	p.update()
	return p.globals[node]
}

// update recomputes the global matrices if any local changed.
func (p *Pose) update() {
	if !p.dirty {
		return
	}
	nodes := p.model.Nodes()
	for _, i := range p.order {
		local := p.locals[i].Matrix()
		if parent := nodes[i].Parent; parent >= 0 {
			p.globals[i] = p.globals[parent].Mul4(local)
		} else {
			p.globals[i] = local
		}
	}
	p.dirty = false
}

// JointMatrices computes the model-space skinning matrix of every joint in a skin:
// the joint's global transform times its inverse bind matrix.
//
// Parameters:
//   - skin: the skin index
//   - dst: optional buffer to reuse
//
// Returns:
//   - []mgl32.Mat4: one matrix per joint
func (p *Pose) JointMatrices(skin int, dst []mgl32.Mat4) []mgl32.Mat4 {
	p.update()
	s := p.model.Skins()[skin]
	dst = dst[:0]
	for j, node := range s.Joints {
		ibm := mgl32.Ident4()
		if j < len(s.InverseBindMatrices) {
			ibm = s.InverseBindMatrices[j]
		}
		dst = append(dst, p.globals[node].Mul4(ibm))
	}
	return dst
}

// SkinPrimitive deforms a skinned primitive into model space using linear blend
// skinning. Joint indices outside the skin are ignored.
//
// Parameters:
//   - joints: the skin's joint matrices from JointMatrices
//   - prim: the primitive to deform
//   - dst: optional buffer to reuse
//
// Returns:
//   - []GPUVertex: the deformed vertices
func SkinPrimitive(joints []mgl32.Mat4, prim *Primitive, dst []GPUVertex) []GPUVertex {
	if cap(dst) < len(prim.Vertices) {
		dst = make([]GPUVertex, len(prim.Vertices))
	}
	dst = dst[:len(prim.Vertices)]

	for i := range prim.Vertices {
		v := &prim.Vertices[i]
		var m mgl32.Mat4
		var total float32
		for k := 0; k < 4; k++ {
			w := v.Weights[k]
			if w == 0 || int(v.Joints[k]) >= len(joints) {
				continue
			}
			jm := joints[v.Joints[k]]
			for e := range m {
				m[e] += jm[e] * w
			}
			total += w
		}
		if total == 0 {
			m = mgl32.Ident4()
		}

		pos := m.Mul4x1(v.Position.Vec4(1)).Vec3()
		n := m.Mul4x1(v.Normal.Vec4(0)).Vec3()
		if n.Len() > 0 {
			n = n.Normalize()
		}
		dst[i] = GPUVertex{Position: pos, Normal: n, UV: v.UV}
	}
	return dst
}

// TransformPrimitive places a static primitive's vertices into model space with
// the owning node's global matrix.
//
// Parameters:
//   - node: the node matrix from Pose.Global
//   - prim: the primitive
//   - dst: optional buffer to reuse
//
// Returns:
//   - []GPUVertex: the transformed vertices
func TransformPrimitive(node mgl32.Mat4, prim *Primitive, dst []GPUVertex) []GPUVertex {
	if cap(dst) < len(prim.Vertices) {
		dst = make([]GPUVertex, len(prim.Vertices))
	}
	dst = dst[:len(prim.Vertices)]
	normal := node.Mat3().Inv().Transpose()
	for i := range prim.Vertices {
		v := &prim.Vertices[i]
		n := normal.Mul3x1(v.Normal)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		dst[i] = GPUVertex{
			Position: node.Mul4x1(v.Position.Vec4(1)).Vec3(),
			Normal:   n,
			UV:       v.UV,
		}
	}
	return dst
}

// BoundingSphere returns a sphere enclosing the given vertices, centred on their
// axis-aligned bounds.
//
// Parameters:
//   - verts: the vertices
//
// Returns:
//   - mgl32.Vec3: the centre
//   - float32: the radius, 0 for an empty slice
func BoundingSphere(verts []GPUVertex) (mgl32.Vec3, float32) {
	if len(verts) == 0 {
		return mgl32.Vec3{}, 0
	}
	lo, hi := mgl32.Vec3(verts[0].Position), mgl32.Vec3(verts[0].Position)
	for _, v := range verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	center := lo.Add(hi).Mul(0.5)
	return center, hi.Sub(center).Len()
}

// Bounds computes the axis-aligned bounds of a vertex list.
//
// Parameters:
//   - verts: the vertices
//
// Returns:
//   - mgl32.Vec3: the minimum corner
//   - mgl32.Vec3: the maximum corner
func Bounds(verts []Vertex) (mgl32.Vec3, mgl32.Vec3) {
	if len(verts) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := verts[0].Position, verts[0].Position
	for _, v := range verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	return lo, hi
}
