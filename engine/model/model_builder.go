package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithNodes is an option builder that sets the node hierarchy. Parent fields are
// recomputed from Children.
//
// Parameters:
//   - nodes: the nodes, indexed by node index
//
// Returns:
//   - ModelBuilderOption: a function that applies the nodes option to a model
func WithNodes(nodes []Node) ModelBuilderOption {
	return func(m *model) {
		m.nodes = nodes
	}
}

// WithMeshes is an option builder that sets the meshes referenced by nodes.
//
// Parameters:
//   - meshes: the meshes, indexed by mesh index
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes []Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}

// WithSkins is an option builder that sets the skins referenced by nodes.
//
// Parameters:
//   - skins: the skins, indexed by skin index
//
// Returns:
//   - ModelBuilderOption: a function that applies the skins option to a model
func WithSkins(skins []Skin) ModelBuilderOption {
	return func(m *model) {
		m.skins = skins
	}
}

// WithScenes is an option builder that sets the scenes and the default scene index.
//
// Parameters:
//   - scenes: the scenes
//   - defaultScene: index of the scene used when none is requested
//
// Returns:
//   - ModelBuilderOption: a function that applies the scenes option to a model
func WithScenes(scenes []SceneRoots, defaultScene int) ModelBuilderOption {
	return func(m *model) {
		m.scenes = scenes
		m.defaultScene = defaultScene
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithMaterials is an option builder that sets the imported materials of the Model.
//
// Parameters:
//   - materials: the materials, indexed by material index
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(materials []common.ImportedMaterial) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}
