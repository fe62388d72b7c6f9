package renderer

import "github.com/Carmen-Shannon/oxy-viewer/engine/light"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// gpuMesh is a backend-owned vertex/index buffer pair plus its per-draw uniform.
type gpuMesh interface {
	Label() string
	VertexCount() int
	IndexCount() int
	Release()
}

// RendererBackend is the GPU API behind the Renderer. Frame state validation and
// mesh bookkeeping live in the Renderer; the backend only encodes.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain, MSAA and depth targets for a
	// new surface size.
	ConfigureSurface(width, height int)

	// SetPresentMode selects vsync or uncapped presentation. It takes effect on
	// the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// CreateMesh uploads vertex and index data and allocates the mesh's object
	// uniform.
	//
	// Parameters:
	//   - label: debug label for the GPU objects
	//   - vertexData: raw vertex bytes
	//   - vertexCount: number of vertices in vertexData
	//   - indexData: raw uint32 index bytes
	//   - indexCount: number of indices in indexData
	//
	// Returns:
	//   - gpuMesh: the created mesh
	//   - error: an error if buffer creation fails
	CreateMesh(label string, vertexData []byte, vertexCount int, indexData []byte, indexCount int) (gpuMesh, error)

	// WriteVertices overwrites a mesh's vertex buffer from offset 0.
	WriteVertices(mesh gpuMesh, vertexData []byte)

	// BeginFrame acquires the swapchain texture and writes the frame uniforms.
	// Draws are recorded until EndFrame.
	//
	// Parameters:
	//   - cameraData: the marshalled camera uniform
	//   - lightData: the marshalled light uniform
	//   - shadowPasses: depth renders to run before the main pass
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(cameraData, lightData []byte, shadowPasses []light.ShadowPass) error

	// Draw writes the mesh's object uniform and records it for the shadow
	// passes and the main pass.
	Draw(mesh gpuMesh, objectData []byte)

	// DrawShadowCaster writes the mesh's object uniform and records it for the
	// shadow passes only.
	DrawShadowCaster(mesh gpuMesh, objectData []byte)

	// EndFrame encodes the shadow passes and the main pass, submits the command
	// buffer and presents.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Release frees every GPU object owned by the backend.
	Release()
}
