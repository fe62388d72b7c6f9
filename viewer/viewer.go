// Package viewer assembles the engine into a glTF model viewer with a
// free-fly camera.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/input"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// Viewer owns every engine component of the running application.
type Viewer struct {
	cfg config.Config

	win    window.Window
	r      renderer.Renderer
	ld     loader.Loader
	eng    engine.Engine
	sc     scene.Scene
	cam    camera.Camera
	input  *input.State
	camObj game_object.GameObject
	sun    light.Light

	watcher    *config.Watcher
	configPath string
	profiling  bool

	clip    int
	elapsed float32
	modelID uint64

	closeOnce sync.Once
}

// New builds the window, renderer, scene and engine described by cfg and
// starts loading the model. Components supplied through options are used
// instead of the platform ones.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options to configure the viewer
//
// Returns:
//   - *Viewer: the ready viewer
//   - error: invalid configuration or a config watch failure
func New(cfg config.Config, options ...ViewerOption) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctrlCfg, err := cfg.Controller.ToCamera()
	if err != nil {
		return nil, err
	}

	v := &Viewer{cfg: cfg, input: input.NewState()}
	for _, opt := range options {
		opt(v)
	}

	if v.win == nil {
		v.win = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithWidth(cfg.Window.Width),
			window.WithHeight(cfg.Window.Height),
			window.WithCloseOnEscape(cfg.Window.CloseOnEscape),
		)
	}
	if v.r == nil {
		present, msaa := renderer.PresentModeVSync, renderer.MSAAOff
		if !cfg.Window.VSync {
			present = renderer.PresentModeUncapped
		}
		if cfg.Window.MSAA {
			msaa = renderer.MSAA4x
		}
		v.r = renderer.NewRenderer(renderer.BackendTypeWGPU, v.win,
			renderer.WithPresentMode(present),
			renderer.WithMSAA(msaa),
		)
	}
	if v.ld == nil {
		v.ld = loader.NewLoader(loader.BackendTypeGLTF)
	}

	v.input.Attach(v.win)
	v.win.SetFocusCallback(func(focused bool) {
		if !focused {
			v.input.Reset()
		}
	})

	v.buildScene(ctrlCfg)

	v.eng = engine.NewEngine(
		engine.WithWindow(v.win),
		engine.WithScene(0, v.sc),
		engine.WithRenderFrameLimit(cfg.Window.FrameLimit),
		engine.WithProfiling(v.profiling),
	)
	v.eng.SetTickCallback(v.tick)

	if v.configPath != "" {
		w, err := config.Watch(v.configPath, config.DefaultDebounce)
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("viewer: %w", err)
		}
		v.watcher = w
	}

	if err := v.loadModel(); err != nil {
		v.Close()
		return nil, fmt.Errorf("viewer: %w", err)
	}
	return v, nil
}

// buildScene creates the camera, lights, ground and camera entity.
func (v *Viewer) buildScene(ctrlCfg camera.CameraControllerConfig) {
	cc := v.cfg.Camera
	ctrl := camera.NewCameraController(camera.WithConfig(ctrlCfg))
	v.cam = camera.NewCamera(
		camera.WithLookAt(mgl32.Vec3(cc.Position), mgl32.Vec3(cc.Target)),
		camera.WithFov(mgl32.DegToRad(cc.Fov)),
		camera.WithNear(cc.Near),
		camera.WithFar(cc.Far),
		camera.WithAspect(aspect(v.win.Width(), v.win.Height())),
		camera.WithController(ctrl),
	)

	lc := v.cfg.Lights
	var lights []light.Light
	if lc.Point.Enabled {
		p := lc.Point.Position
		lights = append(lights, light.NewLight(light.LightTypePoint,
			light.WithPosition(p[0], p[1], p[2]),
			light.WithIntensity(lc.Point.Intensity),
			light.WithRange(lc.Point.Range),
			light.WithCastsShadows(lc.Point.Shadows),
		))
	}
	if lc.Sun.Enabled {
		v.sun = light.NewLight(light.LightTypeDirectional,
			light.WithRotation(light.SunRotation(0)),
			light.WithIntensity(lc.Sun.Illuminance),
			light.WithCastsShadows(lc.Sun.Shadows),
			light.WithCascades(sunCascades(lc.Sun)),
		)
		lights = append(lights, v.sun)
	}

	v.sc = scene.NewScene("viewer", v.cam, v.r,
		scene.WithLights(lights...),
		scene.WithAmbientLight(light.AmbientLight{Color: lc.Ambient.Color, Brightness: lc.Ambient.Brightness}),
	)
	v.sc.OnAnimationPlayerAdded(v.startAnimation)

	v.camObj = game_object.NewGameObject(
		game_object.WithName("camera"),
		game_object.WithTransform(v.cam.Transform()),
		game_object.WithCameraController(ctrl),
	)
	v.sc.Spawn(v.camObj)

	if g := v.cfg.Ground; g.Enabled {
		plane := model.NewPlane("ground", g.Size, [4]float32{g.Color[0], g.Color[1], g.Color[2], 1})
		v.sc.Spawn(game_object.NewGameObject(game_object.WithName("ground"), game_object.WithModel(plane)))
	}
}

// sunCascades converts the sun settings to a cascade layout.
func sunCascades(s config.SunConfig) light.CascadeConfig {
	return light.CascadeConfig{
		Cascades:             s.Cascades,
		FirstCascadeFarBound: s.MaxDistance / float32(s.Cascades+1),
		MaxDistance:          s.MaxDistance,
		Overlap:              0.2,
	}
}

// loadModel requests the configured model; the entity is spawned from Poll.
//
// Returns:
//   - error: a malformed scene or animation reference
func (v *Viewer) loadModel() error {
	sceneRef, err := loader.ParseAssetLabel(v.cfg.Model.Scene)
	if err != nil {
		return fmt.Errorf("model.scene: %w", err)
	}
	if v.cfg.Model.Animation != "" {
		animRef, err := loader.ParseAssetLabel(v.cfg.Model.Animation)
		if err != nil {
			return fmt.Errorf("model.animation: %w", err)
		}
		if animRef.Kind == loader.LabelAnimation {
			v.clip = animRef.Index
		}
	}

	v.ld.LoadAsync(v.cfg.Model.Scene, func(m model.Model, err error) {
		if err != nil {
			slog.Error("model load failed", slog.String("path", sceneRef.Path), slog.Any("error", err))
			return
		}
		if sceneRef.Kind == loader.LabelScene && sceneRef.Index != m.DefaultScene() {
			slog.Warn("drawing the model's default scene",
				slog.Int("requested", sceneRef.Index), slog.Int("default", m.DefaultScene()))
		}
		v.spawnModel(m)
	})
	return nil
}

// spawnModel adds the loaded model to the scene with an animation player when
// it has clips.
func (v *Viewer) spawnModel(m model.Model) {
	obj := game_object.NewGameObject(game_object.WithName(m.Name()), game_object.WithModel(m))
	v.modelID = v.sc.Spawn(obj)
	if m.AnimationCount() > 0 {
		obj.SetAnimationPlayer(animator.NewAnimationPlayer(m))
	}
}

// startAnimation plays the configured clip forever once the entity has a player.
func (v *Viewer) startAnimation(obj game_object.GameObject) {
	p := obj.AnimationPlayer()
	clip := v.clip
	if clip >= p.Model().AnimationCount() {
		slog.Warn("animation clip out of range, playing clip 0", slog.Int("clip", clip))
		clip = 0
	}
	if err := p.Play(clip, 0); err != nil {
		slog.Error("failed to start animation", slog.Any("error", err))
		return
	}
	p.SetRepeat(animator.RepeatForever)
}

// tick runs once per frame before the scene update.
func (v *Viewer) tick(dt float32) {
	v.ld.Poll()
	v.applyConfigUpdates()

	ctrl := v.cam.Controller()
	t, cmd := ctrl.Update(dt, v.input.Snapshot(), v.cam.Transform())
	v.cam.SetTransform(t)
	v.camObj.SetTransform(t)
	v.applyCursor(cmd)

	v.elapsed += dt
	if v.sun != nil && v.cfg.Lights.Sun.Animate {
		v.sun.SetRotation(light.SunRotation(v.elapsed))
	}
}

// applyConfigUpdates hands hot-reloaded controller settings to the controller.
func (v *Viewer) applyConfigUpdates() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case cfg, ok := <-v.watcher.Updates():
			if !ok {
				return
			}
			ctrlCfg, err := cfg.Controller.ToCamera()
			if err != nil {
				slog.Warn("ignoring controller settings", slog.Any("error", err))
				continue
			}
			v.applyCursor(v.cam.Controller().SetConfig(ctrlCfg))
			slog.Info("controller settings applied")
		case err, ok := <-v.watcher.Errors():
			if !ok {
				return
			}
			slog.Warn("config reload failed, keeping current settings", slog.Any("error", err))
		default:
			return
		}
	}
}

// applyCursor forwards a controller cursor command to the window. Changing the
// cursor mode makes the platform report a jump, so the motion tracker restarts.
func (v *Viewer) applyCursor(cmd camera.CursorCommand) {
	switch cmd {
	case camera.CursorGrab:
		v.win.SetCursorGrabbed(true)
	case camera.CursorRelease:
		v.win.SetCursorGrabbed(false)
	default:
		return
	}
	v.input.ResetMotion()
}

// Engine returns the engine driving the viewer.
func (v *Viewer) Engine() engine.Engine {
	return v.eng
}

// Scene returns the viewer's scene.
func (v *Viewer) Scene() scene.Scene {
	return v.sc
}

// Camera returns the viewer's camera.
func (v *Viewer) Camera() camera.Camera {
	return v.cam
}

// Run blocks until the window closes, then releases every component.
func (v *Viewer) Run() error {
	v.eng.Run()
	return v.Close()
}

// Close releases every component. Safe to call multiple times.
//
// Returns:
//   - error: joined errors from the watcher and window
func (v *Viewer) Close() error {
	var errs []error
	v.closeOnce.Do(func() {
		if v.eng != nil {
			v.eng.Quit()
		}
		if v.watcher != nil {
			errs = append(errs, v.watcher.Close())
		}
		v.sc.Close()
		v.ld.Close()
		v.r.Release()
		errs = append(errs, v.win.Close())
	})
	return errors.Join(errs...)
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
