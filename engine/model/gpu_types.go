package model

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// GPUVertex is the vertex layout uploaded to the vertex buffer. Skinning happens
// on the CPU, so joint data never reaches the GPU.
type GPUVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// GPUVertexSize is the byte stride of one GPUVertex.
const GPUVertexSize = uint64(unsafe.Sizeof(GPUVertex{}))

// ToGPU converts a CPU vertex to its GPU layout.
func (v Vertex) ToGPU() GPUVertex {
	return GPUVertex{
		Position: v.Position,
		Normal:   v.Normal,
		UV:       v.UV,
	}
}

// BindPoseVertices converts a primitive's vertices to the GPU layout, untransformed.
//
// Parameters:
//   - prim: the source primitive
//
// Returns:
//   - []GPUVertex: one GPU vertex per source vertex
func BindPoseVertices(prim *Primitive) []GPUVertex {
	out := make([]GPUVertex, len(prim.Vertices))
	for i := range prim.Vertices {
		out[i] = prim.Vertices[i].ToGPU()
	}
	return out
}

// MarshalVertices reinterprets a vertex slice as raw bytes for upload.
func MarshalVertices(verts []GPUVertex) []byte {
	return common.SliceToBytes(verts)
}
