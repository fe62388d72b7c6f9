package camera

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithConfig replaces the whole configuration. Options applied after it still
// override individual fields.
//
// Parameters:
//   - cfg: the configuration to start from
//
// Returns:
//   - CameraControllerOption: functional option to set the configuration
func WithConfig(cfg CameraControllerConfig) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg = cfg
	}
}

// WithEnabled sets the initial master switch.
//
// Parameters:
//   - enabled: whether the controller reacts to input
//
// Returns:
//   - CameraControllerOption: functional option to set the switch
func WithEnabled(enabled bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.Enabled = enabled
	}
}

// WithSensitivity sets the mouse look sensitivity.
//
// Parameters:
//   - sensitivity: radians per unit of mouse delta
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.Sensitivity = sensitivity
	}
}

// WithMovementKeys sets the six axis bindings.
//
// Parameters:
//   - forward, back, left, right: horizontal movement keys
//   - up, down: world-vertical movement keys
//
// Returns:
//   - CameraControllerOption: functional option to set the bindings
func WithMovementKeys(forward, back, left, right, up, down common.Key) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.KeyForward = forward
		cc.cfg.KeyBack = back
		cc.cfg.KeyLeft = left
		cc.cfg.KeyRight = right
		cc.cfg.KeyUp = up
		cc.cfg.KeyDown = down
	}
}

// WithRunKey sets the run modifier key.
//
// Parameters:
//   - key: key that switches to run speed while held
//
// Returns:
//   - CameraControllerOption: functional option to set the run key
func WithRunKey(key common.Key) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.KeyRun = key
	}
}

// WithToggleGrabKey sets the key that latches the cursor grab. common.KeyUnbound
// disables the toggle.
//
// Parameters:
//   - key: toggle key
//
// Returns:
//   - CameraControllerOption: functional option to set the toggle key
func WithToggleGrabKey(key common.Key) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.KeyToggleCursorGrab = key
	}
}

// WithGrabButton sets the mouse button held for look control.
//
// Parameters:
//   - button: grab button
//
// Returns:
//   - CameraControllerOption: functional option to set the grab button
func WithGrabButton(button common.MouseButton) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.MouseKeyCursorGrab = button
	}
}

// WithSpeeds sets the walk and run speeds.
//
// Parameters:
//   - walk: base speed in world units per second
//   - run: speed while the run key is held
//
// Returns:
//   - CameraControllerOption: functional option to set the speeds
func WithSpeeds(walk, run float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.WalkSpeed = walk
		cc.cfg.RunSpeed = run
	}
}

// WithScrollFactor sets how strongly the scroll wheel changes speed.
//
// Parameters:
//   - factor: relative speed change per scroll unit
//
// Returns:
//   - CameraControllerOption: functional option to set the scroll factor
func WithScrollFactor(factor float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.ScrollFactor = factor
	}
}

// WithFriction sets the velocity damping rate.
//
// Parameters:
//   - friction: exponential damping rate per second, 0 for no smoothing
//
// Returns:
//   - CameraControllerOption: functional option to set friction
func WithFriction(friction float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.cfg.Friction = friction
	}
}

// WithYawPitch seeds the look angles and marks the controller active, so the
// first update does not derive them from the camera transform.
//
// Parameters:
//   - yaw: rotation about world Y in radians
//   - pitch: rotation above the horizon in radians, clamped to ±89°
//
// Returns:
//   - CameraControllerOption: functional option to seed the look angles
func WithYawPitch(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = common.ClampPitch(pitch)
		cc.state = StateActive
	}
}
