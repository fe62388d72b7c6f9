package viewer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	onKeyDown     func(common.Key)
	onKeyUp       func(common.Key)
	onMouseButton func(common.MouseButton, bool)
	onMouseMove   func(x, y float64)
	onScroll      func(float32)
	grabs         []bool
	closed        int
}

func (w *fakeWindow) SetResizeCallback(func(width, height int))                {}
func (w *fakeWindow) SetFocusCallback(func(bool))                              {}
func (w *fakeWindow) SetScrollCallback(cb func(float32))                       { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(common.Key))                   { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(common.Key))                     { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseButtonCallback(cb func(common.MouseButton, bool)) { w.onMouseButton = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y float64))               { w.onMouseMove = cb }
func (w *fakeWindow) SetCursorGrabbed(g bool)                                  { w.grabs = append(w.grabs, g) }
func (w *fakeWindow) CursorGrabbed() bool                                      { return len(w.grabs) > 0 && w.grabs[len(w.grabs)-1] }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor               { return nil }
func (w *fakeWindow) IsRunning() bool                                          { return w.closed == 0 }
func (w *fakeWindow) RequestClose()                                            {}
func (w *fakeWindow) PollEvents() bool                                         { return false }
func (w *fakeWindow) Width() int                                               { return 800 }
func (w *fakeWindow) Height() int                                              { return 400 }

func (w *fakeWindow) Close() error {
	w.closed++
	return nil
}

type fakeRenderer struct {
	next     renderer.MeshHandle
	meshes   map[renderer.MeshHandle]bool
	draws    int
	released bool
}

func (f *fakeRenderer) Resize(int, int)                     {}
func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}
func (f *fakeRenderer) UploadMesh(string, []model.GPUVertex, []uint32) (renderer.MeshHandle, error) {
	f.next++
	f.meshes[f.next] = true
	return f.next, nil
}
func (f *fakeRenderer) UpdateMeshVertices(renderer.MeshHandle, []model.GPUVertex) error { return nil }
func (f *fakeRenderer) ReleaseMesh(h renderer.MeshHandle)                               { delete(f.meshes, h) }
func (f *fakeRenderer) MeshCount() int                                                  { return len(f.meshes) }
func (f *fakeRenderer) BeginFrame(camera.GPUCameraUniform, light.GPULightBuffer) error  { return nil }
func (f *fakeRenderer) Draw(renderer.MeshHandle, renderer.GPUObjectUniform) error {
	f.draws++
	return nil
}
func (f *fakeRenderer) DrawShadowCaster(renderer.MeshHandle, renderer.GPUObjectUniform) error {
	return nil
}
func (f *fakeRenderer) EndFrame() error            { return nil }
func (f *fakeRenderer) Stats() renderer.FrameStats { return renderer.FrameStats{} }
func (f *fakeRenderer) Release()                   { f.released = true }

// bobbingModel is a single triangle on a node that rises one unit over a second.
func bobbingModel() model.Model {
	n := mgl32.Vec3{0, 0, 1}
	return model.NewModel(
		model.WithName("bob"),
		model.WithNodes([]model.Node{{Name: "bob", Local: common.NewTransform(0, 0, 0), Mesh: 0, Skin: -1}}),
		model.WithMeshes([]model.Mesh{{
			Name: "bob",
			Primitives: []model.Primitive{{
				Vertices: []model.Vertex{
					{Position: mgl32.Vec3{0, 0, 0}, Normal: n},
					{Position: mgl32.Vec3{1, 0, 0}, Normal: n},
					{Position: mgl32.Vec3{0, 1, 0}, Normal: n},
				},
				Indices: []uint32{0, 1, 2},
			}},
		}}),
		model.WithAnimations([]*model.AnimationClip{
			{Name: "idle", Duration: 1},
			{
				Name:     "bob",
				Duration: 1,
				Channels: []model.AnimationChannel{{
					NodeIndex: 0,
					PositionKeys: []model.VectorKeyframe{
						{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
						{Time: 1, Value: mgl32.Vec3{0, 1, 0}},
					},
				}},
			},
		}),
	)
}

type harness struct {
	v   *Viewer
	win *fakeWindow
	r   *fakeRenderer
}

func newHarness(t *testing.T, cfg config.Config, opts ...ViewerOption) harness {
	t.Helper()
	win := &fakeWindow{}
	r := &fakeRenderer{meshes: make(map[renderer.MeshHandle]bool)}
	ld := loader.NewLoader(loader.BackendTypeGLTF, loader.WithModel("bob.glb", bobbingModel()))

	cfg.Model.Scene = "bob.glb#Scene0"
	cfg.Model.Animation = "bob.glb#Animation1"
	v, err := New(cfg, append([]ViewerOption{WithWindow(win), WithRenderer(r), WithLoader(ld)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return harness{v: v, win: win, r: r}
}

func (h harness) modelEntity(t *testing.T) game_object.GameObject {
	t.Helper()
	for _, obj := range h.v.Scene().Entities() {
		if obj.Name() == "bob" {
			return obj
		}
	}
	t.Fatal("model entity not spawned")
	return nil
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Camera.Fov = 0
	_, err := New(cfg, WithWindow(&fakeWindow{}))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoadModelRejectsMalformedReferences(t *testing.T) {
	h := newHarness(t, config.Default())

	h.v.cfg.Model.Scene = "bob.glb#Sceneless"
	assert.ErrorContains(t, h.v.loadModel(), "model.scene")

	h.v.cfg.Model.Scene = "bob.glb#Scene0"
	h.v.cfg.Model.Animation = "#Animation0"
	assert.ErrorContains(t, h.v.loadModel(), "model.animation")

	h.v.cfg.Model.Animation = "bob.glb#Animation0"
	require.NoError(t, h.v.loadModel())
	assert.Zero(t, h.v.clip)
}

func TestSceneSetup(t *testing.T) {
	h := newHarness(t, config.Default())
	sc := h.v.Scene()

	assert.Equal(t, 2, sc.Count(), "camera and ground before the model loads")
	assert.Len(t, sc.Lights(), 2)
	assert.Equal(t, float32(2000), sc.AmbientLight().Brightness)
	assert.InDelta(t, 2, h.v.Camera().Aspect(), 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 5, 10}, h.v.Camera().Transform().Position)
}

func TestModelSpawnsAndPlaysConfiguredClip(t *testing.T) {
	h := newHarness(t, config.Default())
	h.v.Engine().Step(0.016)

	obj := h.modelEntity(t)
	p := obj.AnimationPlayer()
	require.NotNil(t, p)

	h.v.Engine().Step(0.016)
	assert.Equal(t, 1, p.Clip())
	assert.True(t, p.Playing())
	assert.Equal(t, animator.RepeatForever, p.Repeat())
	assert.Equal(t, 3, h.v.Scene().Count())
}

func TestOutOfRangeClipFallsBackToFirst(t *testing.T) {
	win := &fakeWindow{}
	r := &fakeRenderer{meshes: make(map[renderer.MeshHandle]bool)}
	cfg := config.Default()
	cfg.Model.Scene = "bob.glb"
	cfg.Model.Animation = "bob.glb#Animation9"
	v, err := New(cfg, WithWindow(win), WithRenderer(r),
		WithLoader(loader.NewLoader(loader.BackendTypeGLTF, loader.WithModel("bob.glb", bobbingModel()))))
	require.NoError(t, err)
	defer v.Close()

	v.Engine().Step(0.016)
	v.Engine().Step(0.016)
	for _, obj := range v.Scene().Entities() {
		if p := obj.AnimationPlayer(); p != nil {
			assert.Equal(t, 0, p.Clip())
			return
		}
	}
	t.Fatal("no animated entity")
}

func TestGrabAndLook(t *testing.T) {
	h := newHarness(t, config.Default())
	before := h.v.Camera().Transform().Rotation

	h.win.onMouseButton(common.MouseButtonLeft, true)
	h.v.Engine().Step(0.016)
	assert.Equal(t, []bool{true}, h.win.grabs)

	h.win.onMouseMove(100, 100)
	h.win.onMouseMove(150, 100)
	h.v.Engine().Step(0.016)
	assert.False(t, before.ApproxEqual(h.v.Camera().Transform().Rotation), "mouse motion turns the camera")

	h.win.onMouseButton(common.MouseButtonLeft, false)
	h.v.Engine().Step(0.016)
	assert.Equal(t, []bool{true, false}, h.win.grabs)
}

func TestMovementKeysMoveCamera(t *testing.T) {
	h := newHarness(t, config.Default())
	start := h.v.Camera().Transform().Position

	h.win.onKeyDown(common.KeyW)
	for range 10 {
		h.v.Engine().Step(0.05)
	}
	h.win.onKeyUp(common.KeyW)

	moved := h.v.Camera().Transform().Position.Sub(start)
	assert.Less(t, moved.Z(), float32(-0.5), "forward is toward the origin")
	assert.Equal(t, h.v.Camera().Transform(), h.v.Scene().Entity(1).Transform(), "camera entity follows the camera")
}

func TestSunTurnsOverTime(t *testing.T) {
	h := newHarness(t, config.Default())
	var sun light.Light
	for _, l := range h.v.Scene().Lights() {
		if l.Type() == light.LightTypeDirectional {
			sun = l
		}
	}
	require.NotNil(t, sun)
	before := sun.Rotation()
	h.v.Engine().Step(0.2)
	assert.False(t, before.ApproxEqual(sun.Rotation()))
}

func TestHotReloadAppliesControllerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("controller:\n  walk_speed: 5\n"), 0o644))

	h := newHarness(t, config.Default(), WithConfigWatch(path))
	require.NoError(t, os.WriteFile(path, []byte("controller:\n  walk_speed: 42\n"), 0o644))

	assert.Eventually(t, func() bool {
		h.v.Engine().Step(0.016)
		return h.v.Camera().Controller().Config().WalkSpeed == 42
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCloseReleasesOnce(t *testing.T) {
	h := newHarness(t, config.Default())
	h.v.Engine().Step(0.016)
	require.NotZero(t, h.r.MeshCount())

	require.NoError(t, h.v.Close())
	require.NoError(t, h.v.Close())
	assert.Equal(t, 1, h.win.closed)
	assert.True(t, h.r.released)
	assert.Zero(t, h.r.MeshCount())
}

func TestRunReturnsWhenWindowCloses(t *testing.T) {
	h := newHarness(t, config.Default())
	assert.NoError(t, h.v.Run())
	assert.Equal(t, 1, h.win.closed)
}

func TestSunCascades(t *testing.T) {
	c := sunCascades(config.SunConfig{Cascades: 3, MaxDistance: 8})
	assert.NoError(t, c.Validate())
	assert.Equal(t, float32(2), c.FirstCascadeFarBound)
}
