package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	onResize func(width, height int)
	polls    int
	maxPolls int
}

func (w *fakeWindow) SetResizeCallback(cb func(width, height int))          { w.onResize = cb }
func (w *fakeWindow) SetFocusCallback(func(bool))                           {}
func (w *fakeWindow) SetScrollCallback(func(float32))                       {}
func (w *fakeWindow) SetKeyDownCallback(func(common.Key))                   {}
func (w *fakeWindow) SetKeyUpCallback(func(common.Key))                     {}
func (w *fakeWindow) SetMouseButtonCallback(func(common.MouseButton, bool)) {}
func (w *fakeWindow) SetMouseMoveCallback(func(x, y float64))               {}
func (w *fakeWindow) SetCursorGrabbed(bool)                                 {}
func (w *fakeWindow) CursorGrabbed() bool                                   { return false }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor            { return nil }
func (w *fakeWindow) IsRunning() bool                                       { return w.polls < w.maxPolls }
func (w *fakeWindow) RequestClose()                                         { w.maxPolls = w.polls }
func (w *fakeWindow) Close() error                                          { return nil }
func (w *fakeWindow) Width() int                                            { return 800 }
func (w *fakeWindow) Height() int                                           { return 600 }

func (w *fakeWindow) PollEvents() bool {
	if w.polls >= w.maxPolls {
		return false
	}
	w.polls++
	return true
}

type resizeRenderer struct {
	renderer.Renderer
	sizes [][2]int
}

func (r *resizeRenderer) Resize(width, height int) {
	r.sizes = append(r.sizes, [2]int{width, height})
}

// fakeScene records the frame calls the engine makes.
type fakeScene struct {
	scene.Scene
	name   string
	active bool
	calls  *[]string
	cam    camera.Camera
	r      *resizeRenderer
}

func newFakeScene(name string, active bool, calls *[]string) *fakeScene {
	return &fakeScene{name: name, active: active, calls: calls, cam: camera.NewCamera(), r: &resizeRenderer{}}
}

func (s *fakeScene) Name() string                { return s.name }
func (s *fakeScene) Active() bool                { return s.active }
func (s *fakeScene) Camera() camera.Camera       { return s.cam }
func (s *fakeScene) Renderer() renderer.Renderer { return s.r }

func (s *fakeScene) Update(float32) error {
	*s.calls = append(*s.calls, s.name+".update")
	return nil
}

func (s *fakeScene) Draw() error {
	*s.calls = append(*s.calls, s.name+".draw")
	return nil
}

func TestNewEngineRequiresWindow(t *testing.T) {
	assert.Panics(t, func() { NewEngine() })
}

func TestStepOrder(t *testing.T) {
	var calls []string
	e := NewEngine(
		WithWindow(&fakeWindow{}),
		WithScene(2, newFakeScene("hud", true, &calls)),
		WithScene(1, newFakeScene("world", true, &calls)),
		WithScene(3, newFakeScene("hidden", false, &calls)),
	)
	e.SetTickCallback(func(float32) { calls = append(calls, "tick") })
	e.SetRenderCallback(func(float32) { calls = append(calls, "render") })

	e.Step(0.016)
	assert.Equal(t, []string{"tick", "world.update", "world.draw", "hud.update", "hud.draw", "render"}, calls)
}

func TestStepClampsDelta(t *testing.T) {
	e := NewEngine(WithWindow(&fakeWindow{}), WithMaxDelta(0.1))
	var got []float32
	e.SetTickCallback(func(dt float32) { got = append(got, dt) })

	e.Step(5)
	e.Step(-1)
	e.Step(0.05)
	assert.Equal(t, []float32{0.1, 0, 0.05}, got)
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	w := &fakeWindow{maxPolls: 3}
	e := NewEngine(WithWindow(w))
	ticks := 0
	e.SetTickCallback(func(float32) { ticks++ })

	e.Run()
	assert.Equal(t, 3, ticks)
	assert.False(t, e.Running())
}

func TestQuitIsIdempotentAndStopsRun(t *testing.T) {
	w := &fakeWindow{maxPolls: 100}
	e := NewEngine(WithWindow(w))
	ticks := 0
	e.SetTickCallback(func(float32) {
		ticks++
		if ticks == 2 {
			e.Quit()
			e.Quit()
		}
	})

	e.Run()
	assert.Equal(t, 2, ticks)
}

func TestResizeReachesScenes(t *testing.T) {
	var calls []string
	s := newFakeScene("world", true, &calls)
	w := &fakeWindow{}
	NewEngine(WithWindow(w), WithScene(0, s))
	require.NotNil(t, w.onResize)

	w.onResize(1000, 500)
	assert.Equal(t, [][2]int{{1000, 500}}, s.r.sizes)
	assert.InDelta(t, 2, s.cam.Aspect(), 1e-6)

	w.onResize(0, 0)
	assert.InDelta(t, 2, s.cam.Aspect(), 1e-6, "a minimized window keeps the aspect")
}

func TestSceneRegistry(t *testing.T) {
	var calls []string
	e := NewEngine(WithWindow(&fakeWindow{}))
	s := newFakeScene("world", true, &calls)
	e.AddScene(4, s)
	assert.Same(t, s, e.Scene(4))
	assert.Len(t, e.Scenes(), 1)
	e.RemoveScene(4)
	assert.Nil(t, e.Scene(4))
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, frameDuration(0))
	assert.Equal(t, int64(16666666), int64(frameDuration(60)))
}
