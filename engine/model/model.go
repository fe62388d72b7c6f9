package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// ErrInvalidHierarchy is returned by BuildModel for inconsistent node data.
var ErrInvalidHierarchy = errors.New("invalid node hierarchy")

// DefaultMaterial is used by primitives without a material.
var DefaultMaterial = common.ImportedMaterial{
	Name:      "default",
	BaseColor: [4]float32{0.8, 0.8, 0.8, 1},
	Metallic:  0,
	Roughness: 0.5,
}

// model is the implementation of the Model interface.
// A model is immutable once built and may be shared between entities.
type model struct {
	name         string
	nodes        []Node
	meshes       []Mesh
	skins        []Skin
	scenes       []SceneRoots
	defaultScene int
	animations   []*AnimationClip
	materials    []common.ImportedMaterial
}

// Model defines the interface for a loaded 3D model.
// A Model is a CPU-side container holding the node hierarchy, meshes, skins,
// animation clips, and material properties. It is produced by the Loader after
// importing a model file, or built procedurally (see NewPlane).
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Nodes retrieves the node hierarchy. Callers must not modify the slice.
	//
	// Returns:
	//   - []Node: all nodes, indexed by node index
	Nodes() []Node

	// Meshes retrieves the meshes referenced by nodes.
	//
	// Returns:
	//   - []Mesh: all meshes, indexed by mesh index
	Meshes() []Mesh

	// Skins retrieves the skins referenced by nodes.
	//
	// Returns:
	//   - []Skin: all skins, indexed by skin index
	Skins() []Skin

	// Skinned reports whether any primitive carries joint influences.
	//
	// Returns:
	//   - bool: true if the model has skinned geometry
	Skinned() bool

	// Scenes retrieves the scenes stored in the model.
	//
	// Returns:
	//   - []SceneRoots: the scenes
	Scenes() []SceneRoots

	// DefaultScene returns the index of the scene to show when none is requested.
	//
	// Returns:
	//   - int: the default scene index
	DefaultScene() int

	// SceneNodes returns every node reachable from a scene's roots, parents before children.
	//
	// Parameters:
	//   - scene: the scene index
	//
	// Returns:
	//   - []int: node indices in traversal order
	//   - error: error if the scene index is out of range
	SceneNodes(scene int) ([]int, error)

	// Animations retrieves all animation clips bundled with this model.
	//
	// Returns:
	//   - []*AnimationClip: the animation clips
	Animations() []*AnimationClip

	// AnimationCount returns the number of available animation clips.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animation clips.
	//
	// Returns:
	//   - []string: the animation clip names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation clip name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// Materials retrieves the material properties imported from the model file.
	//
	// Returns:
	//   - []common.ImportedMaterial: the imported materials
	Materials() []common.ImportedMaterial

	// Material resolves a primitive's material index, falling back to DefaultMaterial.
	//
	// Parameters:
	//   - index: the material index, or -1
	//
	// Returns:
	//   - common.ImportedMaterial: the material
	Material(index int) common.ImportedMaterial
}

var _ Model = &model{}

// NewModel creates a Model from the given options. Parent links are derived from
// the nodes' Children lists, and scenes default to a single scene holding every
// root node. NewModel panics if the hierarchy is invalid; use BuildModel for
// untrusted input.
//
// Parameters:
//   - options: functional options describing the model
//
// Returns:
//   - Model: the newly created model
func NewModel(options ...ModelBuilderOption) Model {
	m, err := BuildModel(options...)
	if err != nil {
		panic(err)
	}
	return m
}

// BuildModel is NewModel for data read from files: out-of-range child, mesh,
// skin or joint indices, nodes with two parents and parent cycles are reported
// as errors wrapping ErrInvalidHierarchy.
//
// Parameters:
//   - options: functional options describing the model
//
// Returns:
//   - Model: the newly created model
//   - error: error if the hierarchy is invalid
func BuildModel(options ...ModelBuilderOption) (Model, error) {
	m := &model{}
	for _, option := range options {
		option(m)
	}
	if err := m.link(); err != nil {
		return nil, fmt.Errorf("model %q: %w: %w", m.name, ErrInvalidHierarchy, err)
	}
	return m, nil
}

// link validates indices, fills in parent links and the default scene.
func (m *model) link() error {
	for i := range m.nodes {
		m.nodes[i].Parent = -1
	}
	for i, n := range m.nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(m.nodes) {
				return fmt.Errorf("node %d: child %d out of range", i, c)
			}
			if m.nodes[c].Parent != -1 {
				return fmt.Errorf("node %d has more than one parent", c)
			}
			m.nodes[c].Parent = i
		}
		if n.Mesh < -1 || n.Mesh >= len(m.meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", i, n.Mesh)
		}
		if n.Skin < -1 || n.Skin >= len(m.skins) {
			return fmt.Errorf("node %d: skin %d out of range", i, n.Skin)
		}
	}
	for i := range m.nodes {
		// a chain longer than the node count must loop
		steps := 0
		for p := m.nodes[i].Parent; p != -1; p = m.nodes[p].Parent {
			if steps++; steps > len(m.nodes) {
				return fmt.Errorf("node %d is part of a parent cycle", i)
			}
		}
	}
	for i, s := range m.skins {
		for _, j := range s.Joints {
			if j < 0 || j >= len(m.nodes) {
				return fmt.Errorf("skin %d: joint %d out of range", i, j)
			}
		}
	}
	if len(m.scenes) == 0 {
		var roots []int
		for i, n := range m.nodes {
			if n.Parent == -1 {
				roots = append(roots, i)
			}
		}
		m.scenes = []SceneRoots{{Name: m.name, Roots: roots}}
	}
	if m.defaultScene < 0 || m.defaultScene >= len(m.scenes) {
		m.defaultScene = 0
	}
	return nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Nodes() []Node {
	return m.nodes
}

func (m *model) Meshes() []Mesh {
	return m.meshes
}

func (m *model) Skins() []Skin {
	return m.skins
}

func (m *model) Skinned() bool {
	for _, mesh := range m.meshes {
		for _, p := range mesh.Primitives {
			if p.Skinned {
				return true
			}
		}
	}
	return false
}

func (m *model) Scenes() []SceneRoots {
	return m.scenes
}

func (m *model) DefaultScene() int {
	return m.defaultScene
}

func (m *model) SceneNodes(scene int) ([]int, error) {
	if scene < 0 || scene >= len(m.scenes) {
		return nil, fmt.Errorf("scene %d out of range (model has %d)", scene, len(m.scenes))
	}
	visited := make([]bool, len(m.nodes))
	var out []int
	queue := append([]int(nil), m.scenes[scene].Roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n < 0 || n >= len(m.nodes) || visited[n] {
			continue
		}
		visited[n] = true
		out = append(out, n)
		queue = append(queue, m.nodes[n].Children...)
	}
	return out, nil
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, a := range m.animations {
		names[i] = a.Name
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, a := range m.animations {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) Materials() []common.ImportedMaterial {
	return m.materials
}

func (m *model) Material(index int) common.ImportedMaterial {
	if index < 0 || index >= len(m.materials) {
		return DefaultMaterial
	}
	return m.materials[index]
}
