package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// AnimationPlayerAddedFunc is called on the frame thread, during Update, the first
// time an entity in the scene carries an animation player.
type AnimationPlayerAddedFunc func(obj game_object.GameObject)

// Stats counts the primitives considered by the last Update.
type Stats struct {
	Entities int
	Visible  int
	Culled   int
}

// Scene defines the interface for a renderable world: a camera, lights and a set
// of entities. Update advances animation and prepares the frame on a worker pool;
// Draw submits the prepared frame to the renderer.
type Scene interface {
	// Name returns the scene's name.
	Name() string

	// Active reports whether the engine should update and draw this scene.
	Active() bool

	// SetActive sets whether the engine updates and draws this scene.
	//
	// Parameters:
	//   - active: true to activate
	SetActive(active bool)

	// ZOrder returns the draw order; lower values draw first.
	ZOrder() int

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Renderer returns the renderer the scene draws with.
	Renderer() renderer.Renderer

	// CullingDisabled reports whether frustum culling is skipped.
	CullingDisabled() bool

	// SetCullingDisabled turns frustum culling off or on.
	//
	// Parameters:
	//   - disabled: true to draw every primitive
	SetCullingDisabled(disabled bool)

	// AddLight adds a light to the scene. Adding the same light twice is a no-op.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's light list.
	Lights() []light.Light

	// AmbientLight returns the ambient light.
	AmbientLight() light.AmbientLight

	// SetAmbientLight replaces the ambient light.
	SetAmbientLight(a light.AmbientLight)

	// Spawn adds an entity to the scene and assigns its ID.
	//
	// Parameters:
	//   - obj: the entity to add
	//
	// Returns:
	//   - uint64: the assigned ID
	Spawn(obj game_object.GameObject) uint64

	// Despawn removes an entity and releases its GPU meshes.
	//
	// Parameters:
	//   - id: the entity ID
	//
	// Returns:
	//   - bool: false if no entity had that ID
	Despawn(id uint64) bool

	// Entity returns the entity with the given ID, or nil.
	Entity(id uint64) game_object.GameObject

	// Entities returns every entity in spawn order.
	Entities() []game_object.GameObject

	// Count returns the number of entities.
	Count() int

	// OnAnimationPlayerAdded registers a callback fired once per entity when it
	// first carries an animation player.
	//
	// Parameters:
	//   - fn: the callback
	OnAnimationPlayerAdded(fn AnimationPlayerAddedFunc)

	// Update advances animation players by dt seconds, poses and skins every
	// model, uploads changed meshes and culls against the camera frustum.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - error: joined upload errors, the frame is still prepared
	Update(dt float32) error

	// Draw renders the frame prepared by the last Update. A minimized surface
	// skips the frame without error.
	//
	// Returns:
	//   - error: an error if the renderer rejected the frame
	Draw() error

	// Stats returns the counters of the last Update.
	Stats() Stats

	// Close stops the worker pool and releases every mesh the scene uploaded.
	Close()
}

// drawItem is one primitive of the prepared frame. Primitives outside the
// camera frustum are kept as shadow casters only.
type drawItem struct {
	handle     renderer.MeshHandle
	object     renderer.GPUObjectUniform
	shadowOnly bool
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	zOrder int

	cam camera.Camera
	r   renderer.Renderer

	cullingDisabled bool

	lights  []light.Light
	ambient light.AmbientLight

	entities map[uint64]*entityState
	order    []uint64
	nextID   uint64
	initial  []game_object.GameObject

	// pendingPlayers holds entity IDs that received a player since the last
	// Update. It has its own lock because component listeners may fire while
	// the scene lock is held.
	pendingMu      *sync.Mutex
	pendingPlayers []uint64
	playerAdded    []AnimationPlayerAddedFunc

	frame []drawItem
	stats Stats

	// computePool runs the per-entity pose and skinning work. Workers persist
	// across frames; a WaitGroup is the per-frame barrier.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
	closed         bool
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene drawn with the given camera and renderer. Both are
// required and NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         true,
		cam:            cam,
		r:              r,
		ambient:        light.DefaultAmbientLight(),
		entities:       make(map[uint64]*entityState),
		nextID:         1,
		pendingMu:      &sync.Mutex{},
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 64, time.Second)

	for _, obj := range s.initial {
		s.Spawn(obj)
	}
	s.initial = nil
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) ZOrder() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zOrder
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil || slices.Contains(s.lights, l) {
		return
	}
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.lights, l); i >= 0 {
		s.lights = slices.Delete(s.lights, i, i+1)
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AmbientLight() light.AmbientLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *scene) SetAmbientLight(a light.AmbientLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = a
}

func (s *scene) Spawn(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	obj.SetID(id)
	s.entities[id] = &entityState{obj: obj}
	s.order = append(s.order, id)
	s.mu.Unlock()

	// Registering reports components that are already attached, so this must
	// run without the scene lock.
	obj.SetComponentListener(func(o game_object.GameObject, c game_object.Component) {
		if c == game_object.ComponentAnimationPlayer {
			s.pendingMu.Lock()
			s.pendingPlayers = append(s.pendingPlayers, o.ID())
			s.pendingMu.Unlock()
		}
	})
	slog.Debug("entity spawned", slog.String("scene", s.name), slog.Uint64("id", id), slog.String("name", obj.Name()))
	return id
}

func (s *scene) Despawn(id uint64) bool {
	s.mu.Lock()
	st, ok := s.entities[id]
	if ok {
		st.release(s.r)
		delete(s.entities, id)
		s.order = slices.DeleteFunc(s.order, func(v uint64) bool { return v == id })
	}
	s.mu.Unlock()

	if ok {
		st.obj.SetComponentListener(nil)
	}
	return ok
}

func (s *scene) Entity(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.entities[id]; ok {
		return st.obj
	}
	return nil
}

func (s *scene) Entities() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].obj)
	}
	return out
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func (s *scene) OnAnimationPlayerAdded(fn AnimationPlayerAddedFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerAdded = append(s.playerAdded, fn)
}

// dispatchPlayerAdded fires the player-added callbacks for entities that got a
// player since the last Update. Runs without the scene lock so callbacks may
// use the scene.
func (s *scene) dispatchPlayerAdded() {
	s.pendingMu.Lock()
	pending := s.pendingPlayers
	s.pendingPlayers = nil
	s.pendingMu.Unlock()
	if len(pending) == 0 {
		return
	}

	s.mu.Lock()
	var fire []game_object.GameObject
	for _, id := range pending {
		st, ok := s.entities[id]
		if !ok || st.playerNotified || st.obj.AnimationPlayer() == nil {
			continue
		}
		st.playerNotified = true
		fire = append(fire, st.obj)
	}
	callbacks := slices.Clone(s.playerAdded)
	s.mu.Unlock()

	for _, obj := range fire {
		for _, fn := range callbacks {
			fn(obj)
		}
	}
}

func (s *scene) Update(dt float32) error {
	if !common.IsFinite(dt) || dt < 0 {
		dt = 0
	}
	s.dispatchPlayerAdded()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	// Sync attached lights: copy each entity's world position to its light.
	for _, id := range s.order {
		obj := s.entities[id].obj
		if l := obj.Light(); l != nil && obj.Enabled() {
			l.SetPosition(obj.Transform().Position)
		}
	}

	// Phase 1 (serial): bind models and collect the entities needing CPU work.
	var work []*entityState
	for _, id := range s.order {
		st := s.entities[id]
		if !st.obj.Enabled() {
			continue
		}
		if st.bind(s.r) && st.needsPose() {
			work = append(work, st)
		}
	}

	// Phase 2 (parallel): advance players, pose and skin on the compute pool.
	var wg sync.WaitGroup
	for i, st := range work {
		wg.Add(1)
		s.computePool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				st.pose(dt)
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 3 (serial): upload changed vertices, then cull.
	var errs []error
	for _, st := range work {
		if err := st.upload(s.r); err != nil {
			errs = append(errs, err)
		}
	}
	s.buildFrame()

	return errors.Join(errs...)
}

// buildFrame culls every uploaded primitive against the camera frustum and
// stores the next frame's draw list. Culled primitives stay in the list as
// shadow casters.
// Caller must hold the mutex.
func (s *scene) buildFrame() {
	frustum := s.cam.Frustum()
	s.frame = s.frame[:0]
	stats := Stats{Entities: len(s.entities)}

	for _, id := range s.order {
		st := s.entities[id]
		if !st.obj.Enabled() || st.mdl == nil {
			continue
		}
		t := st.obj.Transform()
		world := t.Matrix()
		maxScale := max(abs(t.Scale.X()), abs(t.Scale.Y()), abs(t.Scale.Z()))

		for i := range st.prims {
			p := &st.prims[i]
			if p.handle == 0 {
				continue
			}
			item := drawItem{
				handle: p.handle,
				object: renderer.NewObjectUniform(world, st.mdl.Material(p.material)),
			}
			if !s.cullingDisabled {
				center := world.Mul4x1(p.center.Vec4(1)).Vec3()
				item.shadowOnly = !frustum.IntersectsSphere(center, p.radius*maxScale)
			}
			s.frame = append(s.frame, item)
			if item.shadowOnly {
				stats.Culled++
			} else {
				stats.Visible++
			}
		}
	}
	s.stats = stats
}

func (s *scene) Draw() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}
	view := light.ShadowView{
		ViewProj: s.cam.ViewProjectionMatrix(),
		Forward:  s.cam.Transform().Forward(),
		Near:     s.cam.Near(),
		Far:      s.cam.Far(),
	}
	lights := light.BuildLightBuffer(s.ambient, s.lights, view)
	shadows := lights.HasShadows()
	if err := s.r.BeginFrame(s.cam.Uniform(), lights); err != nil {
		if errors.Is(err, renderer.ErrSurfaceMinimized) {
			return nil
		}
		return fmt.Errorf("scene %q: %w", s.name, err)
	}

	var drawErr error
	for _, item := range s.frame {
		var err error
		switch {
		case !item.shadowOnly:
			err = s.r.Draw(item.handle, item.object)
		case shadows:
			err = s.r.DrawShadowCaster(item.handle, item.object)
		}
		if err != nil {
			drawErr = errors.Join(drawErr, err)
		}
	}
	if err := s.r.EndFrame(); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, errors.Join(drawErr, err))
	}
	if drawErr != nil {
		return fmt.Errorf("scene %q: %w", s.name, drawErr)
	}
	return nil
}

func (s *scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.computePool.Stop()
	for _, st := range s.entities {
		st.release(s.r)
	}
	s.frame = nil
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
