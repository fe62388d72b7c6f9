package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// NewPlane builds a single-node model holding a square on the XZ plane, centred on
// the origin and facing +Y.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//   - color: the RGBA base color
//
// Returns:
//   - Model: the plane model
func NewPlane(name string, size float32, color [4]float32) Model {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	verts := []Vertex{
		{Position: mgl32.Vec3{-h, 0, -h}, Normal: up, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{-h, 0, h}, Normal: up, UV: mgl32.Vec2{0, 1}},
		{Position: mgl32.Vec3{h, 0, h}, Normal: up, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{h, 0, -h}, Normal: up, UV: mgl32.Vec2{1, 0}},
	}
	lo, hi := Bounds(verts)

	return NewModel(
		WithName(name),
		WithNodes([]Node{{
			Name:  name,
			Local: common.NewTransform(0, 0, 0),
			Mesh:  0,
			Skin:  -1,
		}}),
		WithMeshes([]Mesh{{
			Name: name,
			Primitives: []Primitive{{
				Vertices:      verts,
				Indices:       []uint32{0, 1, 2, 0, 2, 3},
				MaterialIndex: 0,
				BoundsMin:     lo,
				BoundsMax:     hi,
			}},
		}}),
		WithMaterials([]common.ImportedMaterial{{
			Name:      name,
			BaseColor: color,
			Roughness: 1,
		}}),
	)
}
