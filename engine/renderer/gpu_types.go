package renderer

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/lit.wgsl
var litShaderSource string

//go:embed assets/shadow.wgsl
var shadowShaderSource string

// MeshHandle identifies a mesh uploaded through Renderer.UploadMesh. The zero
// value is never issued.
type MeshHandle uint64

// GPUObjectUniform is the per-draw uniform: model transform, normal transform and
// the material factors. Matches the WGSL Object struct in lit.wgsl.
// Size: 160 bytes (WGSL aligned).
type GPUObjectUniform struct {
	Model     mgl32.Mat4 // offset   0: model matrix (mat4x4<f32>)
	Normal    mgl32.Mat4 // offset  64: inverse-transpose of the model matrix
	BaseColor [4]float32 // offset 128: RGBA base color factor
	Metallic  float32    // offset 144
	Roughness float32    // offset 148
	_pad      [2]float32 // offset 152: padding to 160 bytes
}

// NewObjectUniform builds the per-draw uniform for a mesh drawn with the given
// model matrix and material.
//
// Parameters:
//   - modelMatrix: the mesh's model-to-world matrix
//   - mat: the surface material
//
// Returns:
//   - GPUObjectUniform: the filled uniform
func NewObjectUniform(modelMatrix mgl32.Mat4, mat common.ImportedMaterial) GPUObjectUniform {
	normal := modelMatrix.Inv().Transpose()
	if modelMatrix.Det() == 0 {
		normal = mgl32.Ident4()
	}
	return GPUObjectUniform{
		Model:     modelMatrix,
		Normal:    normal,
		BaseColor: mat.BaseColor,
		Metallic:  mat.Metallic,
		Roughness: mat.Roughness,
	}
}

// Size returns the size of the GPUObjectUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (g *GPUObjectUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns the struct's bytes for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUObjectUniform) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(g)...)
}

// FrameStats summarizes the last completed frame.
type FrameStats struct {
	Frames        uint64
	Draws         int
	Triangles     int
	ShadowCasters int
	ShadowPasses  int
}
