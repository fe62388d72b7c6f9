package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
)

// Component identifies an optional part of a GameObject.
type Component int

const (
	ComponentModel Component = iota
	ComponentAnimationPlayer
	ComponentCameraController
	ComponentLight
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentModel:
		return "model"
	case ComponentAnimationPlayer:
		return "animation_player"
	case ComponentCameraController:
		return "camera_controller"
	case ComponentLight:
		return "light"
	default:
		return "unknown"
	}
}

// ComponentListener is told when a component is attached to an object. It is
// called after the object's lock is released, so it may read the object.
type ComponentListener func(obj GameObject, c Component)

type gameObject struct {
	mu *sync.RWMutex

	id      uint64
	name    string
	enabled atomic.Bool

	transform  common.Transform
	mdl        model.Model
	player     animator.AnimationPlayer
	controller camera.CameraController

	// attachedLight follows the object's position every scene update.
	attachedLight light.Light

	listener ComponentListener
}

// GameObject is a scene entity: a transform plus optional model, animation
// player, camera controller and light. Setting a component to a non-nil value
// notifies the registered ComponentListener.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID, 0 until the object is spawned into a scene
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the object's display name.
	Name() string

	// Enabled returns whether this object is updated and drawn.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object is updated and drawn.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Transform returns the object's world transform.
	//
	// Returns:
	//   - common.Transform: position, rotation and scale
	Transform() common.Transform

	// SetTransform replaces the object's world transform.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t common.Transform)

	// Model returns the Model drawn for this object, or nil.
	Model() model.Model

	// SetModel assigns the Model drawn for this object.
	//
	// Parameters:
	//   - m: the model, or nil to detach
	SetModel(m model.Model)

	// AnimationPlayer returns the player driving the model's pose, or nil.
	AnimationPlayer() animator.AnimationPlayer

	// SetAnimationPlayer attaches the player driving the model's pose.
	//
	// Parameters:
	//   - p: the player, or nil to detach
	SetAnimationPlayer(p animator.AnimationPlayer)

	// CameraController returns the controller attached to this object, or nil.
	CameraController() camera.CameraController

	// SetCameraController attaches a camera controller.
	//
	// Parameters:
	//   - cc: the controller, or nil to detach
	SetCameraController(cc camera.CameraController)

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. The scene moves the light to the
	// object's position every update. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)

	// SetComponentListener registers the callback told about component
	// additions. Components already attached are reported immediately.
	//
	// Parameters:
	//   - fn: the listener, or nil to stop notifications
	SetComponentListener(fn ComponentListener)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject at the origin.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:        &sync.RWMutex{},
		transform: common.NewTransform(0, 0, 0),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) Name() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Transform() common.Transform {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transform
}

func (g *gameObject) SetTransform(t common.Transform) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transform = t
}

func (g *gameObject) Model() model.Model {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mdl
}

func (g *gameObject) SetModel(m model.Model) {
	g.mu.Lock()
	g.mdl = m
	g.mu.Unlock()
	if m != nil {
		g.notify(ComponentModel)
	}
}

func (g *gameObject) AnimationPlayer() animator.AnimationPlayer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.player
}

func (g *gameObject) SetAnimationPlayer(p animator.AnimationPlayer) {
	g.mu.Lock()
	g.player = p
	g.mu.Unlock()
	if p != nil {
		g.notify(ComponentAnimationPlayer)
	}
}

func (g *gameObject) CameraController() camera.CameraController {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.controller
}

func (g *gameObject) SetCameraController(cc camera.CameraController) {
	g.mu.Lock()
	g.controller = cc
	g.mu.Unlock()
	if cc != nil {
		g.notify(ComponentCameraController)
	}
}

func (g *gameObject) Light() light.Light {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	g.attachedLight = l
	g.mu.Unlock()
	if l != nil {
		g.notify(ComponentLight)
	}
}

func (g *gameObject) SetComponentListener(fn ComponentListener) {
	g.mu.Lock()
	g.listener = fn
	var attached []Component
	if g.mdl != nil {
		attached = append(attached, ComponentModel)
	}
	if g.player != nil {
		attached = append(attached, ComponentAnimationPlayer)
	}
	if g.controller != nil {
		attached = append(attached, ComponentCameraController)
	}
	if g.attachedLight != nil {
		attached = append(attached, ComponentLight)
	}
	g.mu.Unlock()

	if fn == nil {
		return
	}
	for _, c := range attached {
		fn(g, c)
	}
}

// notify reports a component addition to the listener, if any.
// Caller must not hold the mutex.
func (g *gameObject) notify(c Component) {
	g.mu.RLock()
	fn := g.listener
	g.mu.RUnlock()
	if fn != nil {
		fn(g, c)
	}
}
