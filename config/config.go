// Package config reads the viewer's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure returned by Load and Parse.
var ErrInvalid = errors.New("invalid configuration")

// Config is the whole viewer configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Window     WindowConfig     `yaml:"window"`
	Camera     CameraConfig     `yaml:"camera"`
	Controller ControllerConfig `yaml:"controller"`
	Lights     LightsConfig     `yaml:"lights"`
	Ground     GroundConfig     `yaml:"ground"`
}

// ModelConfig selects the glTF asset to show. Both references use the
// path#SceneN and path#AnimationN label forms.
type ModelConfig struct {
	Scene     string `yaml:"scene"`
	Animation string `yaml:"animation"`
}

// WindowConfig sizes the window and tunes presentation.
type WindowConfig struct {
	Title         string  `yaml:"title"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	VSync         bool    `yaml:"vsync"`
	MSAA          bool    `yaml:"msaa"`
	FrameLimit    float64 `yaml:"frame_limit"`
	CloseOnEscape bool    `yaml:"close_on_escape"`
}

// CameraConfig places the spawn camera. Fov is in degrees.
type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	Fov      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

// ControllerConfig mirrors camera.CameraControllerConfig with keys and buttons
// written by name ("w", "left_shift", "left").
type ControllerConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Sensitivity  float32 `yaml:"sensitivity"`
	WalkSpeed    float32 `yaml:"walk_speed"`
	RunSpeed     float32 `yaml:"run_speed"`
	ScrollFactor float32 `yaml:"scroll_factor"`
	Friction     float32 `yaml:"friction"`

	KeyForward          string `yaml:"key_forward"`
	KeyBack             string `yaml:"key_back"`
	KeyLeft             string `yaml:"key_left"`
	KeyRight            string `yaml:"key_right"`
	KeyUp               string `yaml:"key_up"`
	KeyDown             string `yaml:"key_down"`
	KeyRun              string `yaml:"key_run"`
	KeyToggleCursorGrab string `yaml:"key_toggle_cursor_grab"`
	MouseKeyCursorGrab  string `yaml:"mouse_key_cursor_grab"`
}

// LightsConfig describes the fixed lighting rig.
type LightsConfig struct {
	Ambient AmbientConfig `yaml:"ambient"`
	Point   PointConfig   `yaml:"point"`
	Sun     SunConfig     `yaml:"sun"`
}

// AmbientConfig is the uniform fill light.
type AmbientConfig struct {
	Color      [3]float32 `yaml:"color"`
	Brightness float32    `yaml:"brightness"`
}

// PointConfig is the single point light. Intensity is in lumens.
type PointConfig struct {
	Enabled   bool       `yaml:"enabled"`
	Position  [3]float32 `yaml:"position"`
	Intensity float32    `yaml:"intensity"`
	Range     float32    `yaml:"range"`
	Shadows   bool       `yaml:"shadows"`
}

// SunConfig is the directional light that turns over time.
type SunConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Animate     bool    `yaml:"animate"`
	Illuminance float32 `yaml:"illuminance"`
	Shadows     bool    `yaml:"shadows"`
	Cascades    int     `yaml:"cascades"`
	MaxDistance float32 `yaml:"max_distance"`
}

// GroundConfig is the flat plane under the model.
type GroundConfig struct {
	Enabled bool       `yaml:"enabled"`
	Size    float32    `yaml:"size"`
	Color   [3]float32 `yaml:"color"`
}

// Default returns the stock viewer setup: the angel model on a green plane,
// lit by a point light and a slowly turning sun, seen from (0, 5, 10).
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Model: ModelConfig{
			Scene:     "assets/ANGEL-FRANK1_converted.glb#Scene0",
			Animation: "assets/ANGEL-FRANK1_converted.glb#Animation0",
		},
		Window: WindowConfig{
			Title:         "oxy-viewer",
			Width:         1280,
			Height:        720,
			VSync:         true,
			MSAA:          true,
			CloseOnEscape: true,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, 5, 10},
			Fov:      45,
			Near:     0.1,
			Far:      1000,
		},
		Controller: FromCamera(camera.DefaultCameraControllerConfig()),
		Lights: LightsConfig{
			Ambient: AmbientConfig{Color: [3]float32{1, 1, 1}, Brightness: 2000},
			Point: PointConfig{
				Enabled:   true,
				Position:  [3]float32{4, 8, 4},
				Intensity: 1500,
				Range:     20,
				Shadows:   true,
			},
			Sun: SunConfig{
				Enabled:     true,
				Animate:     true,
				Illuminance: 10000,
				Shadows:     true,
				Cascades:    1,
				MaxDistance: 1.6,
			},
		},
		Ground: GroundConfig{
			Enabled: true,
			Size:    500000,
			Color:   [3]float32{0.3, 0.5, 0.3},
		},
	}
}

// Load reads and validates a configuration file. Settings missing from the
// file keep their Default values.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the parsed configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the parsed configuration
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
//
// Returns:
//   - error: joined errors wrapping ErrInvalid, or nil
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := loader.ParseAssetLabel(c.Model.Scene); err != nil {
		add("model.scene: %v", err)
	}
	if c.Model.Animation != "" {
		if _, err := loader.ParseAssetLabel(c.Model.Animation); err != nil {
			add("model.animation: %v", err)
		}
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.FrameLimit < 0 {
		add("window.frame_limit must not be negative")
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		add("camera.fov must be between 0 and 180 degrees, got %v", c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		add("camera clip planes must satisfy 0 < near < far, got %v and %v", c.Camera.Near, c.Camera.Far)
	}
	if mgl32.Vec3(c.Camera.Position).ApproxEqual(mgl32.Vec3(c.Camera.Target)) {
		add("camera.position and camera.target must differ")
	}
	if _, err := c.Controller.ToCamera(); err != nil {
		add("controller: %v", err)
	}
	if c.Lights.Sun.Cascades < 1 || c.Lights.Sun.Cascades > light.MaxCascades {
		add("lights.sun.cascades must lie in [1, %d], got %d", light.MaxCascades, c.Lights.Sun.Cascades)
	}
	if c.Lights.Sun.MaxDistance <= 0 {
		add("lights.sun.max_distance must be positive")
	}
	if c.Ground.Enabled && c.Ground.Size <= 0 {
		add("ground.size must be positive")
	}
	return errors.Join(errs...)
}

// ToCamera resolves key names and validates the numeric settings.
//
// Returns:
//   - camera.CameraControllerConfig: the controller settings
//   - error: unknown key or button names, or invalid numbers
func (c ControllerConfig) ToCamera() (camera.CameraControllerConfig, error) {
	out := camera.CameraControllerConfig{
		Enabled:      c.Enabled,
		Sensitivity:  c.Sensitivity,
		WalkSpeed:    c.WalkSpeed,
		RunSpeed:     c.RunSpeed,
		ScrollFactor: c.ScrollFactor,
		Friction:     c.Friction,
	}

	var errs []error
	keys := []struct {
		name string
		src  string
		dst  *common.Key
	}{
		{"key_forward", c.KeyForward, &out.KeyForward},
		{"key_back", c.KeyBack, &out.KeyBack},
		{"key_left", c.KeyLeft, &out.KeyLeft},
		{"key_right", c.KeyRight, &out.KeyRight},
		{"key_up", c.KeyUp, &out.KeyUp},
		{"key_down", c.KeyDown, &out.KeyDown},
		{"key_run", c.KeyRun, &out.KeyRun},
		{"key_toggle_cursor_grab", c.KeyToggleCursorGrab, &out.KeyToggleCursorGrab},
	}
	for _, k := range keys {
		key, err := common.ParseKey(k.src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k.name, err))
			continue
		}
		*k.dst = key
	}
	button, err := common.ParseMouseButton(c.MouseKeyCursorGrab)
	if err != nil {
		errs = append(errs, fmt.Errorf("mouse_key_cursor_grab: %w", err))
	}
	out.MouseKeyCursorGrab = button

	if err := out.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return camera.CameraControllerConfig{}, errors.Join(errs...)
	}
	return out, nil
}

// FromCamera writes controller settings back in their file form.
//
// Parameters:
//   - cfg: the controller settings
//
// Returns:
//   - ControllerConfig: the named form
func FromCamera(cfg camera.CameraControllerConfig) ControllerConfig {
	return ControllerConfig{
		Enabled:             cfg.Enabled,
		Sensitivity:         cfg.Sensitivity,
		WalkSpeed:           cfg.WalkSpeed,
		RunSpeed:            cfg.RunSpeed,
		ScrollFactor:        cfg.ScrollFactor,
		Friction:            cfg.Friction,
		KeyForward:          cfg.KeyForward.String(),
		KeyBack:             cfg.KeyBack.String(),
		KeyLeft:             cfg.KeyLeft.String(),
		KeyRight:            cfg.KeyRight.String(),
		KeyUp:               cfg.KeyUp.String(),
		KeyDown:             cfg.KeyDown.String(),
		KeyRun:              cfg.KeyRun.String(),
		KeyToggleCursorGrab: cfg.KeyToggleCursorGrab.String(),
		MouseKeyCursorGrab:  cfg.MouseKeyCursorGrab.String(),
	}
}
