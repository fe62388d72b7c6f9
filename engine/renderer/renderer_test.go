package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct{ w, h int }

func (s fakeSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (s fakeSurface) Width() int                                 { return s.w }
func (s fakeSurface) Height() int                                { return s.h }

type fakeMesh struct {
	label                   string
	vertexCount, indexCount int
	released                bool
	vertexData              []byte
}

func (m *fakeMesh) Label() string    { return m.label }
func (m *fakeMesh) VertexCount() int { return m.vertexCount }
func (m *fakeMesh) IndexCount() int  { return m.indexCount }
func (m *fakeMesh) Release()         { m.released = true }

type fakeBackend struct {
	configured  [][2]int
	presentMode PresentMode
	meshes      []*fakeMesh
	draws       []*fakeMesh
	casters     []*fakeMesh
	passes      []light.ShadowPass
	cameraData  []byte
	lightData   []byte
	beginErr    error
	frames      int
	released    bool
}

func (b *fakeBackend) ConfigureSurface(width, height int) {
	b.configured = append(b.configured, [2]int{width, height})
}

func (b *fakeBackend) SetPresentMode(mode PresentMode) { b.presentMode = mode }

func (b *fakeBackend) CreateMesh(label string, vertexData []byte, vertexCount int, indexData []byte, indexCount int) (gpuMesh, error) {
	m := &fakeMesh{label: label, vertexCount: vertexCount, indexCount: indexCount, vertexData: vertexData}
	b.meshes = append(b.meshes, m)
	return m, nil
}

func (b *fakeBackend) WriteVertices(mesh gpuMesh, vertexData []byte) {
	mesh.(*fakeMesh).vertexData = vertexData
}

func (b *fakeBackend) BeginFrame(cameraData, lightData []byte, shadowPasses []light.ShadowPass) error {
	b.cameraData, b.lightData, b.passes = cameraData, lightData, shadowPasses
	return b.beginErr
}

func (b *fakeBackend) Draw(mesh gpuMesh, objectData []byte) {
	b.draws = append(b.draws, mesh.(*fakeMesh))
}

func (b *fakeBackend) DrawShadowCaster(mesh gpuMesh, objectData []byte) {
	b.casters = append(b.casters, mesh.(*fakeMesh))
}

func (b *fakeBackend) EndFrame() error {
	b.frames++
	return nil
}

func (b *fakeBackend) Release() { b.released = true }

func newTestRenderer(t *testing.T, w, h int) (Renderer, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{}
	r := NewRenderer(BackendTypeWGPU, fakeSurface{w, h}, WithBackend(b), WithPresentMode(PresentModeUncapped))
	return r, b
}

func triangle() ([]model.GPUVertex, []uint32) {
	return []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2}
}

func TestNewRendererConfiguresSurface(t *testing.T) {
	_, b := newTestRenderer(t, 800, 600)
	assert.Equal(t, [][2]int{{800, 600}}, b.configured)
	assert.Equal(t, PresentModeUncapped, b.presentMode)
}

func TestUploadAndDrawMesh(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)
	verts, idx := triangle()

	h, err := r.UploadMesh("tri", verts, idx)
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, 1, r.MeshCount())
	require.Len(t, b.meshes, 1)
	assert.Len(t, b.meshes[0].vertexData, 3*int(model.GPUVertexSize))

	require.NoError(t, r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{}))
	obj := NewObjectUniform(mgl32.Translate3D(1, 0, 0), common.ImportedMaterial{BaseColor: [4]float32{1, 0, 0, 1}})
	require.NoError(t, r.Draw(h, obj))
	require.NoError(t, r.EndFrame())

	assert.Len(t, b.cameraData, 80)
	assert.Len(t, b.draws, 1)
	assert.Equal(t, FrameStats{Frames: 1, Draws: 1, Triangles: 1}, r.Stats())
}

func TestShadowPassesAndCasters(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)
	verts, idx := triangle()
	h, err := r.UploadMesh("tri", verts, idx)
	require.NoError(t, err)

	var lights light.GPULightBuffer
	lights.Shadow.CascadeCount = 2
	lights.Shadow.PointFar = 10

	require.NoError(t, r.BeginFrame(camera.GPUCameraUniform{}, lights))
	require.NoError(t, r.Draw(h, GPUObjectUniform{}))
	require.NoError(t, r.DrawShadowCaster(h, GPUObjectUniform{}))
	require.NoError(t, r.EndFrame())

	require.Len(t, b.passes, 2+6)
	assert.Equal(t, light.ShadowMapSun, b.passes[1].Map)
	assert.Equal(t, light.ShadowMapPoint, b.passes[2].Map)
	assert.Len(t, b.lightData, lights.Size())
	assert.Len(t, b.draws, 1)
	assert.Len(t, b.casters, 1)
	assert.Equal(t, FrameStats{Frames: 1, Draws: 1, Triangles: 1, ShadowCasters: 1, ShadowPasses: 8}, r.Stats())
}

func TestUploadMeshRejectsBadData(t *testing.T) {
	r, _ := newTestRenderer(t, 800, 600)
	verts, _ := triangle()

	_, err := r.UploadMesh("empty", nil, nil)
	assert.Error(t, err)
	_, err = r.UploadMesh("partial", verts, []uint32{0, 1})
	assert.Error(t, err)
	assert.Zero(t, r.MeshCount())
}

func TestUpdateMeshVertices(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)
	verts, idx := triangle()
	h, err := r.UploadMesh("tri", verts, idx)
	require.NoError(t, err)

	verts[0].Position = [3]float32{5, 5, 5}
	require.NoError(t, r.UpdateMeshVertices(h, verts))
	assert.Equal(t, model.MarshalVertices(verts), b.meshes[0].vertexData)

	err = r.UpdateMeshVertices(h, verts[:2])
	assert.ErrorIs(t, err, ErrVertexCountMismatch)

	err = r.UpdateMeshVertices(h+1, verts)
	assert.ErrorIs(t, err, ErrUnknownMesh)
}

func TestFrameStateErrors(t *testing.T) {
	r, _ := newTestRenderer(t, 800, 600)
	verts, idx := triangle()
	h, err := r.UploadMesh("tri", verts, idx)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Draw(h, GPUObjectUniform{}), ErrNoFrame)
	assert.ErrorIs(t, r.DrawShadowCaster(h, GPUObjectUniform{}), ErrNoFrame)
	assert.ErrorIs(t, r.EndFrame(), ErrNoFrame)

	require.NoError(t, r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{}))
	assert.ErrorIs(t, r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{}), ErrFrameInProgress)
	assert.ErrorIs(t, r.Draw(MeshHandle(99), GPUObjectUniform{}), ErrUnknownMesh)
	assert.ErrorIs(t, r.DrawShadowCaster(MeshHandle(99), GPUObjectUniform{}), ErrUnknownMesh)
	require.NoError(t, r.EndFrame())
}

func TestBeginFrameBackendErrorLeavesNoFrame(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)
	b.beginErr = errors.New("surface lost")

	err := r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{})
	assert.ErrorIs(t, err, b.beginErr)
	assert.ErrorIs(t, r.EndFrame(), ErrNoFrame)
}

func TestMinimizedSurfaceSkipsFrames(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)

	r.Resize(0, 600)
	assert.Len(t, b.configured, 1, "a zero size must not reconfigure the surface")
	assert.ErrorIs(t, r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{}), ErrSurfaceMinimized)

	r.Resize(1024, 768)
	assert.Equal(t, [2]int{1024, 768}, b.configured[len(b.configured)-1])
	require.NoError(t, r.BeginFrame(camera.GPUCameraUniform{}, light.GPULightBuffer{}))
	require.NoError(t, r.EndFrame())
}

func TestReleaseMeshAndRenderer(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600)
	verts, idx := triangle()
	h1, err := r.UploadMesh("a", verts, idx)
	require.NoError(t, err)
	_, err = r.UploadMesh("b", verts, idx)
	require.NoError(t, err)

	r.ReleaseMesh(h1)
	r.ReleaseMesh(h1)
	assert.True(t, b.meshes[0].released)
	assert.Equal(t, 1, r.MeshCount())

	r.Release()
	assert.True(t, b.meshes[1].released)
	assert.True(t, b.released)
	assert.Zero(t, r.MeshCount())
}

func TestNewObjectUniform(t *testing.T) {
	m := mgl32.Scale3D(2, 2, 2)
	obj := NewObjectUniform(m, common.ImportedMaterial{BaseColor: [4]float32{1, 1, 1, 1}, Metallic: 0.5, Roughness: 0.25})

	assert.Equal(t, 160, obj.Size())
	assert.Len(t, obj.Marshal(), 160)
	assert.InDelta(t, 0.5, obj.Normal.At(0, 0), 1e-6)
	assert.Equal(t, float32(0.25), obj.Roughness)

	singular := NewObjectUniform(mgl32.Mat4{}, common.ImportedMaterial{})
	assert.Equal(t, mgl32.Ident4(), singular.Normal)
}
