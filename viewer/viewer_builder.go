package viewer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

// ViewerOption is a functional option applied by New.
type ViewerOption func(*Viewer)

// WithWindow uses an existing window instead of opening a GLFW one.
func WithWindow(w window.Window) ViewerOption {
	return func(v *Viewer) {
		v.win = w
	}
}

// WithRenderer uses an existing renderer instead of creating the WebGPU one.
func WithRenderer(r renderer.Renderer) ViewerOption {
	return func(v *Viewer) {
		v.r = r
	}
}

// WithLoader uses an existing model loader.
func WithLoader(l loader.Loader) ViewerOption {
	return func(v *Viewer) {
		v.ld = l
	}
}

// WithConfigWatch reloads controller settings whenever the file at path changes.
//
// Parameters:
//   - path: the configuration file to watch; empty disables watching
//
// Returns:
//   - ViewerOption: option function to apply
func WithConfigWatch(path string) ViewerOption {
	return func(v *Viewer) {
		v.configPath = path
	}
}

// WithProfiling logs frame statistics once per second.
func WithProfiling(enabled bool) ViewerOption {
	return func(v *Viewer) {
		v.profiling = enabled
	}
}
