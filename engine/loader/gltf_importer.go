package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// ErrInvalidDocument wraps every structural problem found in a decoded glTF document.
var ErrInvalidDocument = errors.New("invalid glTF document")

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	doc *gltf.Document
}

// gltfImporter orchestrates a full glTF import: it runs every extractor over a
// decoded document and assembles the result into a model.Model.
type gltfImporter interface {
	// Import converts the document.
	//
	// Parameters:
	//   - name: the model name
	//
	// Returns:
	//   - model.Model: the imported model
	//   - error: error wrapping ErrInvalidDocument if the document is inconsistent
	Import(name string) (model.Model, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer for a decoded document.
//
// Parameters:
//   - doc: the decoded document
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(doc *gltf.Document) gltfImporter {
	return &gltfImporterImpl{doc: doc}
}

func (imp *gltfImporterImpl) Import(name string) (model.Model, error) {
	materials := newGLTFMaterialExtractor(imp.doc).ExtractAllMaterials()

	meshes, err := newGLTFMeshExtractor(imp.doc).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	skins, err := newGLTFSkeletonExtractor(imp.doc).ExtractAllSkins()
	if err != nil {
		return nil, fmt.Errorf("skin extraction failed: %w", err)
	}

	animations, err := newGLTFAnimationExtractor(imp.doc).ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	nodes := imp.extractNodes()
	scenes, defaultScene, err := imp.extractScenes()
	if err != nil {
		return nil, err
	}

	m, err := model.BuildModel(
		model.WithName(name),
		model.WithNodes(nodes),
		model.WithMeshes(meshes),
		model.WithSkins(skins),
		model.WithScenes(scenes, defaultScene),
		model.WithAnimations(animations),
		model.WithMaterials(materials),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return m, nil
}

// extractNodes converts the document's node list. Index validation happens in model.BuildModel.
func (imp *gltfImporterImpl) extractNodes() []model.Node {
	nodes := make([]model.Node, len(imp.doc.Nodes))
	for i, n := range imp.doc.Nodes {
		node := model.Node{
			Name:     n.Name,
			Children: append([]int(nil), n.Children...),
			Local:    gltfNodeTransform(n),
			Mesh:     -1,
			Skin:     -1,
		}
		if node.Name == "" {
			node.Name = fmt.Sprintf("node_%d", i)
		}
		if n.Mesh != nil {
			node.Mesh = *n.Mesh
		}
		if n.Skin != nil {
			node.Skin = *n.Skin
		}
		nodes[i] = node
	}
	return nodes
}

// extractScenes converts the document's scenes. A document without scenes gets
// the model's implicit all-roots scene.
func (imp *gltfImporterImpl) extractScenes() ([]model.SceneRoots, int, error) {
	scenes := make([]model.SceneRoots, 0, len(imp.doc.Scenes))
	for i, s := range imp.doc.Scenes {
		for _, root := range s.Nodes {
			if root < 0 || root >= len(imp.doc.Nodes) {
				return nil, 0, fmt.Errorf("%w: scene %d root %d out of range", ErrInvalidDocument, i, root)
			}
		}
		scenes = append(scenes, model.SceneRoots{Name: s.Name, Roots: append([]int(nil), s.Nodes...)})
	}
	defaultScene := 0
	if imp.doc.Scene != nil {
		defaultScene = *imp.doc.Scene
	}
	return scenes, defaultScene, nil
}

// gltfNodeTransform reads a node's local transform, decomposing the matrix form
// when present.
func gltfNodeTransform(n *gltf.Node) common.Transform {
	if n.Matrix != gltf.DefaultMatrix && n.Matrix != [16]float64{} {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return decomposeMatrix(m)
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return common.Transform{
		Position: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation: mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize(),
		Scale:    mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	}
}

// decomposeMatrix splits an affine matrix without shear into translation,
// rotation and scale. A negative determinant flips the X scale.
func decomposeMatrix(m mgl32.Mat4) common.Transform {
	x, y, z := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	rot := mgl32.Ident4()
	for c, axis := range []mgl32.Vec3{x, y, z} {
		if scale[c] != 0 {
			axis = axis.Mul(1 / scale[c])
		}
		rot.SetCol(c, axis.Vec4(0))
	}

	return common.Transform{
		Position: m.Col(3).Vec3(),
		Rotation: mgl32.Mat4ToQuat(rot).Normalize(),
		Scale:    scale,
	}
}
