package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUnknownMesh is returned for a MeshHandle that was never issued or was released.
	ErrUnknownMesh = errors.New("unknown mesh handle")

	// ErrNoFrame is returned by Draw and EndFrame outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrFrameInProgress is returned by BeginFrame when the previous frame was not ended.
	ErrFrameInProgress = errors.New("frame already in progress")

	// ErrSurfaceMinimized is returned by BeginFrame while the surface has a zero size.
	// Callers should skip the frame.
	ErrSurfaceMinimized = errors.New("surface is minimized")

	// ErrVertexCountMismatch is returned when UpdateMeshVertices changes the vertex count.
	ErrVertexCountMismatch = errors.New("vertex count does not match the uploaded mesh")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	meshes     map[MeshHandle]gpuMesh
	nextHandle MeshHandle

	width, height int
	inFrame       bool
	current       FrameStats
	last          FrameStats

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer is a forward renderer with a single lit pipeline. Meshes are uploaded
// once and referenced by handle; each frame is BeginFrame, any number of Draw
// calls, then EndFrame. Every mesh owns its per-draw uniform, so a mesh is drawn
// at most once per frame.
type Renderer interface {
	// Resize reconfigures the surface for a new size. A zero dimension marks the
	// surface as minimized until the next non-zero resize.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets how frames are delivered to the display and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// UploadMesh creates GPU buffers for a triangle list.
	//
	// Parameters:
	//   - label: debug label for the GPU objects
	//   - vertices: the vertex data
	//   - indices: triangle list indices into vertices
	//
	// Returns:
	//   - MeshHandle: the handle used by Draw and UpdateMeshVertices
	//   - error: an error if the data is empty or buffer creation fails
	UploadMesh(label string, vertices []model.GPUVertex, indices []uint32) (MeshHandle, error)

	// UpdateMeshVertices overwrites the vertex buffer of an uploaded mesh. The
	// vertex count must not change.
	//
	// Parameters:
	//   - h: the mesh handle
	//   - vertices: the new vertex data
	//
	// Returns:
	//   - error: ErrUnknownMesh or ErrVertexCountMismatch
	UpdateMeshVertices(h MeshHandle, vertices []model.GPUVertex) error

	// ReleaseMesh frees a mesh's GPU buffers. Unknown handles are ignored.
	ReleaseMesh(h MeshHandle)

	// MeshCount returns the number of live meshes.
	MeshCount() int

	// BeginFrame starts a frame with the given camera and light uniforms.
	//
	// Returns:
	//   - error: ErrFrameInProgress, ErrSurfaceMinimized or a backend error
	BeginFrame(cam camera.GPUCameraUniform, lights light.GPULightBuffer) error

	// Draw encodes one draw of an uploaded mesh. The mesh also casts into the
	// frame's shadow maps.
	//
	// Parameters:
	//   - h: the mesh handle
	//   - object: the per-draw transform and material
	//
	// Returns:
	//   - error: ErrNoFrame or ErrUnknownMesh
	Draw(h MeshHandle, object GPUObjectUniform) error

	// DrawShadowCaster renders a mesh into the frame's shadow maps without
	// drawing it to the screen. Used for meshes outside the camera frustum.
	//
	// Returns:
	//   - error: ErrNoFrame or ErrUnknownMesh
	DrawShadowCaster(h MeshHandle, object GPUObjectUniform) error

	// EndFrame submits and presents the frame.
	//
	// Returns:
	//   - error: ErrNoFrame or a backend error
	EndFrame() error

	// Stats returns the counters of the last completed frame.
	Stats() FrameStats

	// Release frees every mesh and the backend's GPU objects.
	Release()
}

var _ Renderer = &renderer{}

// Surface is the part of a window the renderer draws into.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// NewRenderer creates a new Renderer for the window's surface. It panics if no
// GPU adapter or device can be acquired.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		meshes:      make(map[MeshHandle]gpuMesh),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		msaa := MSAA4x
		if r.pendingMSAA != nil {
			msaa = *r.pendingMSAA
		}
		switch backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
		}
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.Resize(win.Width(), win.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	if r.minimized() {
		slog.Debug("surface minimized", slog.Int("width", width), slog.Int("height", height))
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.SetPresentMode(mode)
	if !r.minimized() {
		r.backend.ConfigureSurface(r.width, r.height)
	}
}

// minimized reports whether the surface has a zero dimension.
// Caller must hold the mutex.
func (r *renderer) minimized() bool {
	return r.width <= 0 || r.height <= 0
}

func (r *renderer) UploadMesh(label string, vertices []model.GPUVertex, indices []uint32) (MeshHandle, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return 0, fmt.Errorf("upload mesh %q: empty vertex or index data", label)
	}
	if len(indices)%3 != 0 {
		return 0, fmt.Errorf("upload mesh %q: index count %d is not a multiple of 3", label, len(indices))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mesh, err := r.backend.CreateMesh(label, model.MarshalVertices(vertices), len(vertices), common.SliceToBytes(indices), len(indices))
	if err != nil {
		return 0, fmt.Errorf("upload mesh %q: %w", label, err)
	}
	r.nextHandle++
	r.meshes[r.nextHandle] = mesh
	return r.nextHandle, nil
}

func (r *renderer) UpdateMeshVertices(h MeshHandle, vertices []model.GPUVertex) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mesh, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("update mesh %d: %w", h, ErrUnknownMesh)
	}
	if len(vertices) != mesh.VertexCount() {
		return fmt.Errorf("update mesh %q: got %d vertices, want %d: %w",
			mesh.Label(), len(vertices), mesh.VertexCount(), ErrVertexCountMismatch)
	}
	r.backend.WriteVertices(mesh, model.MarshalVertices(vertices))
	return nil
}

func (r *renderer) ReleaseMesh(h MeshHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mesh, ok := r.meshes[h]; ok {
		mesh.Release()
		delete(r.meshes, h)
	}
}

func (r *renderer) MeshCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meshes)
}

func (r *renderer) BeginFrame(cam camera.GPUCameraUniform, lights light.GPULightBuffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFrame {
		return ErrFrameInProgress
	}
	if r.minimized() {
		return ErrSurfaceMinimized
	}
	passes := lights.ShadowPasses()
	if err := r.backend.BeginFrame(cam.Marshal(), lights.Marshal(), passes); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	r.inFrame = true
	r.current = FrameStats{Frames: r.last.Frames, ShadowPasses: len(passes)}
	return nil
}

func (r *renderer) Draw(h MeshHandle, object GPUObjectUniform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	mesh, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("draw mesh %d: %w", h, ErrUnknownMesh)
	}
	r.backend.Draw(mesh, object.Marshal())
	r.current.Draws++
	r.current.Triangles += mesh.IndexCount() / 3
	return nil
}

func (r *renderer) DrawShadowCaster(h MeshHandle, object GPUObjectUniform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	mesh, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("draw shadow caster %d: %w", h, ErrUnknownMesh)
	}
	r.backend.DrawShadowCaster(mesh, object.Marshal())
	r.current.ShadowCasters++
	return nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	r.current.Frames++
	r.last = r.current
	return nil
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h, mesh := range r.meshes {
		mesh.Release()
		delete(r.meshes, h)
	}
	r.backend.Release()
}
