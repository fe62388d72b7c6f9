package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/game_object"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithZOrder sets the draw order of the scene among the engine's scenes.
//
// Parameters:
//   - z: lower values draw first
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithZOrder(z int) SceneBuilderOption {
	return func(s *scene) {
		s.zOrder = z
	}
}

// WithObjects spawns initial objects into the scene once it is constructed.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		s.initial = append(s.initial, objects...)
	}
}

// WithLights adds initial lights to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithAmbientLight sets the scene's ambient light. Defaults to light.DefaultAmbientLight.
//
// Parameters:
//   - a: the ambient light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbientLight(a light.AmbientLight) SceneBuilderOption {
	return func(s *scene) {
		s.ambient = a
	}
}

// WithComputeWorkers sets the number of worker goroutines that pose and skin
// entities during Update. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.computeWorkers = max(n, 1)
	}
}

// WithCullingDisabled disables frustum culling for the scene, so every
// primitive is drawn. By default culling is enabled.
//
// Parameters:
//   - disabled: true to disable frustum culling, false to enable it (default)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}
