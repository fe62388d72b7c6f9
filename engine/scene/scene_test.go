package scene

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	meshes   map[renderer.MeshHandle][]model.GPUVertex
	next     renderer.MeshHandle
	uploads  int
	updates  int
	draws    []renderer.MeshHandle
	casters  []renderer.MeshHandle
	lights   light.GPULightBuffer
	beginErr error
	frames   int
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{meshes: make(map[renderer.MeshHandle][]model.GPUVertex)}
}

func (f *fakeRenderer) Resize(int, int)                     {}
func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

func (f *fakeRenderer) UploadMesh(_ string, v []model.GPUVertex, _ []uint32) (renderer.MeshHandle, error) {
	f.next++
	f.uploads++
	f.meshes[f.next] = append([]model.GPUVertex(nil), v...)
	return f.next, nil
}

func (f *fakeRenderer) UpdateMeshVertices(h renderer.MeshHandle, v []model.GPUVertex) error {
	if _, ok := f.meshes[h]; !ok {
		return renderer.ErrUnknownMesh
	}
	f.updates++
	f.meshes[h] = append([]model.GPUVertex(nil), v...)
	return nil
}

func (f *fakeRenderer) ReleaseMesh(h renderer.MeshHandle) { delete(f.meshes, h) }
func (f *fakeRenderer) MeshCount() int                    { return len(f.meshes) }

func (f *fakeRenderer) BeginFrame(_ camera.GPUCameraUniform, l light.GPULightBuffer) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.lights = l
	f.draws = f.draws[:0]
	f.casters = f.casters[:0]
	return nil
}

func (f *fakeRenderer) Draw(h renderer.MeshHandle, _ renderer.GPUObjectUniform) error {
	f.draws = append(f.draws, h)
	return nil
}

func (f *fakeRenderer) DrawShadowCaster(h renderer.MeshHandle, _ renderer.GPUObjectUniform) error {
	f.casters = append(f.casters, h)
	return nil
}

func (f *fakeRenderer) EndFrame() error {
	f.frames++
	return nil
}

func (f *fakeRenderer) Stats() renderer.FrameStats { return renderer.FrameStats{} }
func (f *fakeRenderer) Release()                   {}

// skinnedModel has one triangle bound to a single bone that slides 10 units
// along X over one second.
func skinnedModel() model.Model {
	w := [4]float32{1, 0, 0, 0}
	verts := []model.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Weights: w},
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Weights: w},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Weights: w},
	}
	return model.NewModel(
		model.WithName("rig"),
		model.WithNodes([]model.Node{
			{Name: "body", Local: common.NewTransform(0, 0, 0), Mesh: 0, Skin: 0},
			{Name: "bone", Local: common.NewTransform(0, 0, 0), Mesh: -1, Skin: -1},
		}),
		model.WithMeshes([]model.Mesh{{
			Name: "body",
			Primitives: []model.Primitive{{
				Vertices: verts,
				Indices:  []uint32{0, 1, 2},
				Skinned:  true,
			}},
		}}),
		model.WithSkins([]model.Skin{{
			Name:                "rig",
			Joints:              []int{1},
			InverseBindMatrices: []mgl32.Mat4{mgl32.Ident4()},
		}}),
		model.WithAnimations([]*model.AnimationClip{{
			Name:     "slide",
			Duration: 1,
			Channels: []model.AnimationChannel{{
				NodeIndex: 1,
				PositionKeys: []model.VectorKeyframe{
					{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
					{Time: 1, Value: mgl32.Vec3{10, 0, 0}},
				},
			}},
		}}),
	)
}

func newTestScene(t *testing.T, opts ...SceneBuilderOption) (Scene, *fakeRenderer) {
	t.Helper()
	r := newFakeRenderer()
	cam := camera.NewCamera(camera.WithLookAt(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}))
	s := NewScene("test", cam, r, append([]SceneBuilderOption{WithComputeWorkers(2)}, opts...)...)
	t.Cleanup(s.Close)
	return s, r
}

func TestNewScenePanicsWithoutDependencies(t *testing.T) {
	cam := camera.NewCamera()
	assert.Panics(t, func() { NewScene("x", nil, newFakeRenderer()) })
	assert.Panics(t, func() { NewScene("x", cam, nil) })
}

func TestSpawnAssignsIDsInOrder(t *testing.T) {
	a := game_object.NewGameObject(game_object.WithName("a"))
	s, _ := newTestScene(t, WithObjects(a))
	b := game_object.NewGameObject(game_object.WithName("b"))
	id := s.Spawn(b)

	assert.Equal(t, uint64(1), a.ID())
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []game_object.GameObject{a, b}, s.Entities())
	assert.Same(t, b, s.Entity(id))
	assert.Nil(t, s.Entity(99))
}

func TestStaticModelUploadsOnce(t *testing.T) {
	s, r := newTestScene(t)
	obj := game_object.NewGameObject(game_object.WithModel(model.NewPlane("ground", 2, [4]float32{0, 1, 0, 1})))
	s.Spawn(obj)

	require.NoError(t, s.Update(0.016))
	require.NoError(t, s.Update(0.016))
	assert.Equal(t, 1, r.uploads)
	assert.Zero(t, r.updates)

	require.NoError(t, s.Draw())
	assert.Len(t, r.draws, 1)
	assert.Equal(t, Stats{Entities: 1, Visible: 1}, s.Stats())
}

func TestAnimationPlayerAddedFiresOnceAndSkins(t *testing.T) {
	s, r := newTestScene(t)
	mdl := skinnedModel()
	obj := game_object.NewGameObject(game_object.WithModel(mdl))
	s.Spawn(obj)

	var fired int
	s.OnAnimationPlayerAdded(func(o game_object.GameObject) {
		fired++
		p := o.AnimationPlayer()
		require.NoError(t, p.Play(0, 0))
		p.SetRepeat(animator.RepeatForever)
	})

	obj.SetAnimationPlayer(animator.NewAnimationPlayer(mdl))
	require.NoError(t, s.Update(0.5))
	require.NoError(t, s.Update(0))
	assert.Equal(t, 1, fired)

	require.Len(t, r.meshes, 1)
	for _, verts := range r.meshes {
		assert.InDelta(t, 5, verts[0].Position[0], 1e-4)
		assert.InDelta(t, 6, verts[1].Position[0], 1e-4)
	}
	assert.Equal(t, 1, r.updates, "animated entities are re-skinned every update")
}

func TestPlayerForAnotherModelIsIgnored(t *testing.T) {
	s, r := newTestScene(t)
	obj := game_object.NewGameObject(
		game_object.WithModel(skinnedModel()),
		game_object.WithAnimationPlayer(animator.NewAnimationPlayer(skinnedModel())),
	)
	s.Spawn(obj)

	require.NoError(t, s.Update(0.1))
	require.NoError(t, s.Update(0.1))
	assert.Equal(t, 1, r.uploads)
	assert.Zero(t, r.updates)
}

func TestFrustumCulling(t *testing.T) {
	s, r := newTestScene(t)
	plane := model.NewPlane("tile", 1, [4]float32{1, 1, 1, 1})
	s.Spawn(game_object.NewGameObject(game_object.WithModel(plane), game_object.WithPosition(0, 0, -5)))
	s.Spawn(game_object.NewGameObject(game_object.WithModel(plane), game_object.WithPosition(0, 0, 500)))

	require.NoError(t, s.Update(0.016))
	assert.Equal(t, Stats{Entities: 2, Visible: 1, Culled: 1}, s.Stats())

	s.SetCullingDisabled(true)
	require.NoError(t, s.Update(0.016))
	require.NoError(t, s.Draw())
	assert.Len(t, r.draws, 2)
}

func TestCulledEntitiesStillCastShadows(t *testing.T) {
	sun := light.NewLight(light.LightTypeDirectional, light.WithCastsShadows(true))
	s, r := newTestScene(t, WithLights(sun))
	plane := model.NewPlane("tile", 1, [4]float32{1, 1, 1, 1})
	s.Spawn(game_object.NewGameObject(game_object.WithModel(plane), game_object.WithPosition(0, 0, -5)))
	s.Spawn(game_object.NewGameObject(game_object.WithModel(plane), game_object.WithPosition(0, 0, 500)))

	require.NoError(t, s.Update(0.016))
	require.NoError(t, s.Draw())
	assert.Equal(t, Stats{Entities: 2, Visible: 1, Culled: 1}, s.Stats())
	assert.Len(t, r.draws, 1)
	assert.Len(t, r.casters, 1)
	assert.NotZero(t, r.lights.Shadow.CascadeCount)
	assert.Equal(t, uint32(1), r.lights.Lights[0].Shadows)

	sun.SetCastsShadows(false)
	require.NoError(t, s.Draw())
	assert.Len(t, r.draws, 1)
	assert.Empty(t, r.casters, "culled entities are skipped when nothing casts shadows")
	assert.Zero(t, r.lights.Shadow.CascadeCount)
}

func TestDisabledEntityIsSkipped(t *testing.T) {
	s, r := newTestScene(t)
	obj := game_object.NewGameObject(game_object.WithModel(model.NewPlane("p", 1, [4]float32{1, 1, 1, 1})))
	s.Spawn(obj)
	obj.SetEnabled(false)

	require.NoError(t, s.Update(0.016))
	require.NoError(t, s.Draw())
	assert.Empty(t, r.draws)
	assert.Zero(t, r.uploads)
}

func TestDespawnReleasesMeshes(t *testing.T) {
	s, r := newTestScene(t)
	id := s.Spawn(game_object.NewGameObject(game_object.WithModel(model.NewPlane("p", 1, [4]float32{1, 1, 1, 1}))))
	require.NoError(t, s.Update(0.016))
	require.Len(t, r.meshes, 1)

	assert.True(t, s.Despawn(id))
	assert.False(t, s.Despawn(id))
	assert.Empty(t, r.meshes)
	assert.Zero(t, s.Count())
}

func TestModelSwapRebuildsMeshes(t *testing.T) {
	s, r := newTestScene(t)
	obj := game_object.NewGameObject(game_object.WithModel(model.NewPlane("a", 1, [4]float32{1, 1, 1, 1})))
	s.Spawn(obj)
	require.NoError(t, s.Update(0.016))

	obj.SetModel(model.NewPlane("b", 2, [4]float32{1, 1, 1, 1}))
	require.NoError(t, s.Update(0.016))
	assert.Equal(t, 2, r.uploads)
	assert.Len(t, r.meshes, 1)

	obj.SetModel(nil)
	require.NoError(t, s.Update(0.016))
	assert.Empty(t, r.meshes)
}

func TestAttachedLightFollowsEntity(t *testing.T) {
	l := light.NewLight(light.LightTypePoint)
	s, r := newTestScene(t, WithLights(l))
	s.Spawn(game_object.NewGameObject(game_object.WithLight(l), game_object.WithPosition(1, 2, 3)))

	require.NoError(t, s.Update(0))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, l.Position())

	require.NoError(t, s.Draw())
	assert.Equal(t, uint32(1), r.lights.Header.LightCount)
}

func TestLights(t *testing.T) {
	s, _ := newTestScene(t)
	l := light.NewLight(light.LightTypeDirectional)
	s.AddLight(l)
	s.AddLight(l)
	assert.Len(t, s.Lights(), 1)
	s.RemoveLight(l)
	assert.Empty(t, s.Lights())

	a := light.AmbientLight{Color: [3]float32{1, 0, 0}, Brightness: 10}
	s.SetAmbientLight(a)
	assert.Equal(t, a, s.AmbientLight())
}

func TestDrawSkipsMinimizedSurface(t *testing.T) {
	s, r := newTestScene(t)
	r.beginErr = renderer.ErrSurfaceMinimized
	assert.NoError(t, s.Draw())

	r.beginErr = errors.New("device lost")
	assert.ErrorIs(t, s.Draw(), r.beginErr)
	assert.Zero(t, r.frames)
}

func TestUpdateAfterCloseIsNoop(t *testing.T) {
	s, r := newTestScene(t)
	s.Spawn(game_object.NewGameObject(game_object.WithModel(model.NewPlane("p", 1, [4]float32{1, 1, 1, 1}))))
	s.Close()
	s.Close()

	done := make(chan struct{})
	go func() {
		_ = s.Update(0.016)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Update blocked after Close")
	}
	assert.Zero(t, r.uploads)
}
