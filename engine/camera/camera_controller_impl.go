package camera

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/input"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	cfg   CameraControllerConfig
	state ControllerState

	// Look angles in radians
	yaw   float32
	pitch float32

	velocity   mgl32.Vec3
	speedScale float32

	// grabbed mirrors what was last reported to the window layer.
	grabbed bool
	toggled bool
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a free-fly controller with the default configuration.
// The controller starts uninitialized and seeds its look angles from the first
// transform passed to Update.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:         &sync.Mutex{},
		cfg:        DefaultCameraControllerConfig(),
		state:      StateUninitialized,
		speedScale: 1,
	}

	for _, option := range options {
		option(cc)
	}

	cc.cfg = cc.cfg.Sanitized()
	return cc
}

func (cc *cameraControllerImpl) Update(dt float32, snap input.Snapshot, transform common.Transform) (common.Transform, CursorCommand) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if !cc.cfg.Enabled {
		return transform, CursorNone
	}

	if cc.state == StateUninitialized {
		cc.yaw, cc.pitch = common.YawPitchFromQuat(transform.Rotation)
		if !common.IsFinite(cc.yaw) {
			cc.yaw = 0
		}
		cc.pitch = common.ClampPitch(cc.pitch)
		cc.state = StateActive
	}

	if !common.IsFinite(dt) || dt < 0 {
		dt = 0
	}

	prevYaw, prevPitch, prevScale := cc.yaw, cc.pitch, cc.speedScale

	if snap.Scroll != 0 && common.IsFinite(snap.Scroll) {
		cc.speedScale = mgl32.Clamp(cc.speedScale*(1+snap.Scroll*cc.cfg.ScrollFactor), MinSpeedScale, MaxSpeedScale)
	}

	target := cc.targetVelocity(snap.Held)
	cc.integrateVelocity(target, dt)

	out := transform
	out.Position = transform.Position.Add(cc.velocity.Mul(dt))

	cmd := cc.updateGrab(snap)
	if cc.grabbed {
		cc.look(snap.MouseDelta)
	}
	out.Rotation = common.QuatFromYawPitch(cc.yaw, cc.pitch)

	if !out.IsFinite() || !common.IsFiniteVec3(cc.velocity) {
		cc.reportNonFinite(out)
		cc.yaw, cc.pitch, cc.speedScale = prevYaw, prevPitch, prevScale
		cc.velocity = mgl32.Vec3{}
		return transform, cmd
	}
	return out, cmd
}

// movementAxis returns the camera-local movement direction from the held keys:
// X is right, Y is world up and Z is backward, so forward is -Z. Each component
// is -1, 0 or +1 and opposing keys cancel.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) movementAxis(held input.KeySet) mgl32.Vec3 {
	axis := func(pos, neg common.Key) float32 {
		var v float32
		if held.Has(pos) {
			v++
		}
		if held.Has(neg) {
			v--
		}
		return v
	}
	return mgl32.Vec3{
		axis(cc.cfg.KeyRight, cc.cfg.KeyLeft),
		axis(cc.cfg.KeyUp, cc.cfg.KeyDown),
		axis(cc.cfg.KeyBack, cc.cfg.KeyForward),
	}
}

// targetVelocity maps the held movement keys to a world-space velocity. Forward
// follows the full look direction, right follows yaw only and up/down stays on
// world Y regardless of pitch.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) targetVelocity(held input.KeySet) mgl32.Vec3 {
	axis := cc.movementAxis(held)
	if axis.Len() == 0 {
		return mgl32.Vec3{}
	}
	axis = axis.Normalize()

	speed := cc.cfg.WalkSpeed
	if held.Has(cc.cfg.KeyRun) {
		speed = cc.cfg.RunSpeed
	}
	speed *= cc.speedScale

	backward := common.QuatFromYawPitch(cc.yaw, cc.pitch).Rotate(mgl32.Vec3{0, 0, 1})
	right := mgl32.QuatRotate(cc.yaw, worldUp).Rotate(mgl32.Vec3{1, 0, 0})

	dir := right.Mul(axis.X()).
		Add(worldUp.Mul(axis.Y())).
		Add(backward.Mul(axis.Z()))
	return dir.Mul(speed)
}

// integrateVelocity moves the velocity toward target with frame-rate independent
// exponential damping. A zero dt leaves the velocity untouched.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) integrateVelocity(target mgl32.Vec3, dt float32) {
	if dt == 0 {
		return
	}
	if cc.cfg.Friction == 0 {
		cc.velocity = target
		return
	}
	alpha := common.DampingFactor(cc.cfg.Friction, dt)
	cc.velocity = cc.velocity.Add(target.Sub(cc.velocity).Mul(alpha))
}

// updateGrab resolves this frame's grab state and returns the command for the
// window layer when it changed.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updateGrab(snap input.Snapshot) CursorCommand {
	if snap.JustPressed.Has(cc.cfg.KeyToggleCursorGrab) {
		cc.toggled = !cc.toggled
	}
	grabbed := cc.toggled || snap.Buttons.Has(cc.cfg.MouseKeyCursorGrab)
	if grabbed == cc.grabbed {
		return CursorNone
	}
	cc.grabbed = grabbed
	if grabbed {
		return CursorGrab
	}
	return CursorRelease
}

// look applies a mouse delta to the look angles. Yaw is kept within [-π, π].
// Caller must hold the mutex.
func (cc *cameraControllerImpl) look(delta mgl32.Vec2) {
	dx, dy := delta.X(), delta.Y()
	if !common.IsFinite(dx) || !common.IsFinite(dy) {
		return
	}
	cc.yaw -= dx * cc.cfg.Sensitivity
	if cc.yaw > math32.Pi || cc.yaw < -math32.Pi {
		cc.yaw = math32.Remainder(cc.yaw, 2*math32.Pi)
	}
	cc.pitch = common.ClampPitch(cc.pitch - dy*cc.cfg.Sensitivity)
}

// reportNonFinite handles a step that produced NaN or infinite values. It is a
// programming error: debug builds panic, others log and drop the step.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) reportNonFinite(out common.Transform) {
	msg := fmt.Sprintf("camera controller produced a non-finite transform: position=%v rotation=%v velocity=%v",
		out.Position, out.Rotation, cc.velocity)
	if common.DebugBuild {
		panic(msg)
	}
	slog.Error(msg, slog.Float64("yaw", float64(cc.yaw)), slog.Float64("pitch", float64(cc.pitch)))
}

func (cc *cameraControllerImpl) Config() CameraControllerConfig {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.cfg
}

func (cc *cameraControllerImpl) SetConfig(cfg CameraControllerConfig) CursorCommand {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cfg = cfg.Sanitized()
	if !cc.cfg.Enabled {
		return cc.disable()
	}
	return CursorNone
}

func (cc *cameraControllerImpl) Enabled() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.cfg.Enabled
}

func (cc *cameraControllerImpl) SetEnabled(enabled bool) CursorCommand {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cfg.Enabled = enabled
	if !enabled {
		return cc.disable()
	}
	return CursorNone
}

// disable drops the grab and any residual motion.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) disable() CursorCommand {
	cc.velocity = mgl32.Vec3{}
	cc.toggled = false
	if !cc.grabbed {
		return CursorNone
	}
	cc.grabbed = false
	return CursorRelease
}

func (cc *cameraControllerImpl) State() ControllerState {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.state
}

func (cc *cameraControllerImpl) Reset() CursorCommand {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.state = StateUninitialized
	cc.yaw, cc.pitch = 0, 0
	cc.speedScale = 1
	return cc.disable()
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) Velocity() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.velocity
}

func (cc *cameraControllerImpl) SpeedScale() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speedScale
}

func (cc *cameraControllerImpl) Grabbed() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.grabbed
}
