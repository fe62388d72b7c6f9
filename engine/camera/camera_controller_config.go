package camera

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// Speed scale bounds applied to the scroll-driven multiplier.
const (
	MinSpeedScale float32 = 0.01
	MaxSpeedScale float32 = 100
)

// CameraControllerConfig holds the user-tunable settings of a CameraController.
// It is a plain record: copy it, edit it and hand it back with SetConfig.
type CameraControllerConfig struct {
	// Enabled is the master switch. A disabled controller ignores all input.
	Enabled bool

	// Sensitivity converts mouse motion into look rotation (radians per unit of delta).
	Sensitivity float32

	KeyForward common.Key
	KeyBack    common.Key
	KeyLeft    common.Key
	KeyRight   common.Key
	KeyUp      common.Key
	KeyDown    common.Key

	// KeyRun switches from WalkSpeed to RunSpeed while held.
	KeyRun common.Key

	// KeyToggleCursorGrab latches the grab on and off without holding a button.
	KeyToggleCursorGrab common.Key

	// MouseKeyCursorGrab enables look control and locks the cursor while held.
	MouseKeyCursorGrab common.MouseButton

	// WalkSpeed and RunSpeed are base speeds in world units per second.
	WalkSpeed float32
	RunSpeed  float32

	// ScrollFactor is the relative speed change per scroll unit.
	ScrollFactor float32

	// Friction is the exponential velocity damping rate per second. Higher values
	// reach the target velocity faster; zero disables smoothing entirely.
	Friction float32
}

// DefaultCameraControllerConfig returns the stock free-fly settings: WASD to move,
// E/Q for up/down, left shift to run, hold the left mouse button (or press M) to look.
//
// Returns:
//   - CameraControllerConfig: the default configuration
func DefaultCameraControllerConfig() CameraControllerConfig {
	return CameraControllerConfig{
		Enabled:             true,
		Sensitivity:         0.002,
		KeyForward:          common.KeyW,
		KeyBack:             common.KeyS,
		KeyLeft:             common.KeyA,
		KeyRight:            common.KeyD,
		KeyUp:               common.KeyE,
		KeyDown:             common.KeyQ,
		KeyRun:              common.KeyLeftShift,
		KeyToggleCursorGrab: common.KeyM,
		MouseKeyCursorGrab:  common.MouseButtonLeft,
		WalkSpeed:           5,
		RunSpeed:            15,
		ScrollFactor:        0.1,
		Friction:            10,
	}
}

// Validate reports every numeric field that is negative or not finite.
//
// Returns:
//   - error: joined errors naming each invalid field, or nil
func (c CameraControllerConfig) Validate() error {
	var errs []error
	for _, f := range c.numericFields() {
		if !common.IsFinite(*f.value) || *f.value < 0 {
			errs = append(errs, fmt.Errorf("%s must be a finite non-negative number, got %v", f.name, *f.value))
		}
	}
	return errors.Join(errs...)
}

// Sanitized returns a copy with every invalid numeric field replaced by 0.
//
// Returns:
//   - CameraControllerConfig: the sanitized copy
func (c CameraControllerConfig) Sanitized() CameraControllerConfig {
	for _, f := range c.numericFields() {
		if !common.IsFinite(*f.value) || *f.value < 0 {
			*f.value = 0
		}
	}
	return c
}

type namedField struct {
	name  string
	value *float32
}

func (c *CameraControllerConfig) numericFields() []namedField {
	return []namedField{
		{"sensitivity", &c.Sensitivity},
		{"walk_speed", &c.WalkSpeed},
		{"run_speed", &c.RunSpeed},
		{"scroll_factor", &c.ScrollFactor},
		{"friction", &c.Friction},
	}
}
