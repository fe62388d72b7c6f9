package camera

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/input"
	"github.com/go-gl/mathgl/mgl32"
)

// ControllerState tags the controller's lifecycle.
type ControllerState int

const (
	// StateUninitialized means yaw and pitch have not been seeded yet. The next
	// active update derives them from the camera transform it is given.
	StateUninitialized ControllerState = iota

	// StateActive means yaw and pitch are owned by the controller.
	StateActive
)

// String returns the state name.
func (s ControllerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// CursorCommand is an instruction for the window layer, issued only when the
// grab state changes.
type CursorCommand int

const (
	// CursorNone leaves the cursor as it is.
	CursorNone CursorCommand = iota

	// CursorGrab hides the cursor and locks it to the window.
	CursorGrab

	// CursorRelease shows and frees the cursor.
	CursorRelease
)

// String returns the command name.
func (c CursorCommand) String() string {
	switch c {
	case CursorNone:
		return "none"
	case CursorGrab:
		return "grab"
	case CursorRelease:
		return "release"
	default:
		return "unknown"
	}
}

// CameraController turns per-frame input into free-fly camera motion. It owns
// the look angles and a smoothed velocity; the camera transform itself stays with
// the caller, which passes it in and writes the result back every frame.
//
// Conventions: right-handed, +Y up, the camera looks down -Z. Positive yaw turns
// the view left. Moving the mouse right decreases yaw and moving it down
// decreases pitch, so the view follows the mouse.
type CameraController interface {
	// Update advances the controller by one frame.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	//   - snap: the frame's input
	//   - transform: the camera's current transform
	//
	// Returns:
	//   - common.Transform: the new camera transform
	//   - CursorCommand: a cursor lock change for the window layer, or CursorNone
	Update(dt float32, snap input.Snapshot, transform common.Transform) (common.Transform, CursorCommand)

	// Config returns a copy of the current configuration.
	//
	// Returns:
	//   - CameraControllerConfig: the configuration
	Config() CameraControllerConfig

	// SetConfig replaces the configuration. Invalid numbers are sanitized (see
	// CameraControllerConfig.Validate). Runtime state is kept, except that
	// disabling the controller releases a held grab.
	//
	// Parameters:
	//   - cfg: the new configuration
	//
	// Returns:
	//   - CursorCommand: CursorRelease if the change disabled a grabbed controller
	SetConfig(cfg CameraControllerConfig) CursorCommand

	// Enabled reports whether the controller reacts to input.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled turns the controller on or off. Turning it off while the cursor is
	// grabbed releases the grab and clears the velocity.
	//
	// Parameters:
	//   - enabled: the new switch position
	//
	// Returns:
	//   - CursorCommand: CursorRelease when a grab was dropped, else CursorNone
	SetEnabled(enabled bool) CursorCommand

	// State returns the lifecycle state.
	//
	// Returns:
	//   - ControllerState: StateUninitialized until the first active update
	State() ControllerState

	// Reset returns the controller to StateUninitialized with zero velocity and
	// unit speed scale. The next update re-seeds yaw and pitch from the transform.
	//
	// Returns:
	//   - CursorCommand: CursorRelease if the cursor was grabbed
	Reset() CursorCommand

	// Yaw returns the look angle about world +Y in radians.
	Yaw() float32

	// Pitch returns the look angle above the horizon in radians.
	Pitch() float32

	// Velocity returns the current smoothed velocity in world units per second.
	Velocity() mgl32.Vec3

	// SpeedScale returns the persistent scroll-driven speed multiplier.
	SpeedScale() float32

	// Grabbed reports whether look control currently owns the cursor.
	Grabbed() bool
}
