package loader

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	doc *gltf.Document
}

// gltfMeshExtractor extracts triangle geometry from a decoded glTF document.
type gltfMeshExtractor interface {
	// ExtractMesh extracts a single mesh by index. Non-triangle primitives are skipped.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//
	// Returns:
	//   - model.Mesh: the extracted mesh
	//   - error: error if an accessor is missing or malformed
	ExtractMesh(meshIndex int) (model.Mesh, error)

	// ExtractAllMeshes extracts every mesh, keeping document indices.
	//
	// Returns:
	//   - []model.Mesh: the meshes
	//   - error: error if extraction fails
	ExtractAllMeshes() ([]model.Mesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a decoded document.
func newGLTFMeshExtractor(doc *gltf.Document) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{doc: doc}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]model.Mesh, error) {
	meshes := make([]model.Mesh, len(e.doc.Meshes))
	for i := range e.doc.Meshes {
		mesh, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		meshes[i] = mesh
	}
	return meshes, nil
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) (model.Mesh, error) {
	if meshIndex < 0 || meshIndex >= len(e.doc.Meshes) {
		return model.Mesh{}, fmt.Errorf("%w: mesh index %d out of range", ErrInvalidDocument, meshIndex)
	}
	gm := e.doc.Meshes[meshIndex]

	mesh := model.Mesh{Name: gm.Name}
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			slog.Warn("skipping non-triangle primitive",
				slog.String("mesh", gm.Name), slog.Int("primitive", pi), slog.Any("mode", prim.Mode))
			continue
		}
		p, err := e.extractPrimitive(prim)
		if err != nil {
			return model.Mesh{}, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, pi, err)
		}
		mesh.Primitives = append(mesh.Primitives, p)
	}
	return mesh, nil
}

// extractPrimitive reads the vertex attributes and indices of one primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltf.Primitive) (model.Primitive, error) {
	posAcc, err := e.attribute(prim, "POSITION")
	if err != nil {
		return model.Primitive{}, err
	}
	if posAcc == nil {
		return model.Primitive{}, fmt.Errorf("%w: primitive has no POSITION attribute", ErrInvalidDocument)
	}
	positions, err := modeler.ReadPosition(e.doc, posAcc, nil)
	if err != nil {
		return model.Primitive{}, fmt.Errorf("positions: %w", err)
	}

	verts := make([]model.Vertex, len(positions))
	for i, p := range positions {
		verts[i].Position = p
	}

	if acc, err := e.attribute(prim, "NORMAL"); err != nil {
		return model.Primitive{}, err
	} else if acc != nil {
		normals, err := modeler.ReadNormal(e.doc, acc, nil)
		if err != nil {
			return model.Primitive{}, fmt.Errorf("normals: %w", err)
		}
		for i := range min(len(normals), len(verts)) {
			verts[i].Normal = normals[i]
		}
	}

	if acc, err := e.attribute(prim, "TEXCOORD_0"); err != nil {
		return model.Primitive{}, err
	} else if acc != nil {
		uvs, err := modeler.ReadTextureCoord(e.doc, acc, nil)
		if err != nil {
			return model.Primitive{}, fmt.Errorf("texcoords: %w", err)
		}
		for i := range min(len(uvs), len(verts)) {
			verts[i].UV = uvs[i]
		}
	}

	skinned, err := e.extractSkinning(prim, verts)
	if err != nil {
		return model.Primitive{}, err
	}

	var indices []uint32
	if prim.Indices != nil {
		acc, err := e.accessor(*prim.Indices)
		if err != nil {
			return model.Primitive{}, err
		}
		if indices, err = modeler.ReadIndices(e.doc, acc, nil); err != nil {
			return model.Primitive{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(verts))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return model.Primitive{}, fmt.Errorf("%w: %d indices do not form triangles", ErrInvalidDocument, len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(verts) {
			return model.Primitive{}, fmt.Errorf("%w: index %d exceeds %d vertices", ErrInvalidDocument, idx, len(verts))
		}
	}

	if _, ok := prim.Attributes["NORMAL"]; !ok {
		computeNormals(verts, indices)
	}

	materialIndex := -1
	if prim.Material != nil {
		materialIndex = *prim.Material
	}

	lo, hi := model.Bounds(verts)
	return model.Primitive{
		Vertices:      verts,
		Indices:       indices,
		MaterialIndex: materialIndex,
		Skinned:       skinned,
		BoundsMin:     lo,
		BoundsMax:     hi,
	}, nil
}

// extractSkinning reads JOINTS_0 and WEIGHTS_0 into the vertices and normalizes
// the weights. It reports false when the primitive carries no skinning data.
func (e *gltfMeshExtractorImpl) extractSkinning(prim *gltf.Primitive, verts []model.Vertex) (bool, error) {
	jointAcc, err := e.attribute(prim, "JOINTS_0")
	if err != nil {
		return false, err
	}
	weightAcc, err := e.attribute(prim, "WEIGHTS_0")
	if err != nil {
		return false, err
	}
	if jointAcc == nil || weightAcc == nil {
		return false, nil
	}

	joints, err := modeler.ReadJoints(e.doc, jointAcc, nil)
	if err != nil {
		return false, fmt.Errorf("joints: %w", err)
	}
	weights, err := modeler.ReadWeights(e.doc, weightAcc, nil)
	if err != nil {
		return false, fmt.Errorf("weights: %w", err)
	}

	for i := range min(len(joints), len(weights), len(verts)) {
		w := weights[i]
		sum := w[0] + w[1] + w[2] + w[3]
		if sum > 0 {
			for k := range w {
				w[k] /= sum
			}
		}
		verts[i].Joints = joints[i]
		verts[i].Weights = w
	}
	return true, nil
}

// attribute resolves a named vertex attribute, returning nil when absent.
func (e *gltfMeshExtractorImpl) attribute(prim *gltf.Primitive, name string) (*gltf.Accessor, error) {
	idx, ok := prim.Attributes[name]
	if !ok {
		return nil, nil
	}
	return e.accessor(idx)
}

func (e *gltfMeshExtractorImpl) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(e.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidDocument, idx)
	}
	return e.doc.Accessors[idx], nil
}

// computeNormals fills area-weighted smooth normals for primitives that lack them.
func computeNormals(verts []model.Vertex, indices []uint32) {
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		pa, pb, pc := verts[a].Position, verts[b].Position, verts[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		verts[a].Normal = verts[a].Normal.Add(n)
		verts[b].Normal = verts[b].Normal.Add(n)
		verts[c].Normal = verts[c].Normal.Add(n)
	}
	for i := range verts {
		if verts[i].Normal.Len() > 0 {
			verts[i].Normal = verts[i].Normal.Normalize()
		} else {
			verts[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}
