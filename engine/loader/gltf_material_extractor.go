package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/qmuntal/gltf"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	doc *gltf.Document
}

// gltfMaterialExtractor reads the metallic-roughness factors of every material.
// Textures are not imported; the renderer shades with the base color factor.
type gltfMaterialExtractor interface {
	// ExtractMaterial extracts a single material by index.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - common.ImportedMaterial: the extracted material
	ExtractMaterial(materialIndex int) common.ImportedMaterial

	// ExtractAllMaterials extracts all materials from the document.
	//
	// Returns:
	//   - []common.ImportedMaterial: all extracted materials
	ExtractAllMaterials() []common.ImportedMaterial
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a decoded document.
func newGLTFMaterialExtractor(doc *gltf.Document) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{doc: doc}
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() []common.ImportedMaterial {
	materials := make([]common.ImportedMaterial, len(e.doc.Materials))
	for i := range e.doc.Materials {
		materials[i] = e.ExtractMaterial(i)
	}
	return materials
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) common.ImportedMaterial {
	gm := e.doc.Materials[materialIndex]

	// glTF defaults: white, fully metallic, fully rough
	mat := common.ImportedMaterial{
		Name:      gm.Name,
		BaseColor: [4]float32{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
	}
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material_%d", materialIndex)
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		mat.BaseColor = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
	}
	return mat
}
