package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfSkeletonExtractorImpl is the implementation of the gltfSkeletonExtractor interface.
type gltfSkeletonExtractorImpl struct {
	doc *gltf.Document
}

// gltfSkeletonExtractor extracts skins (joint lists and inverse bind matrices)
// from a decoded glTF document. Joints stay in document order because vertex
// joint indices refer to positions in that list.
type gltfSkeletonExtractor interface {
	// ExtractSkin extracts a skin by index.
	//
	// Parameters:
	//   - skinIndex: the index of the skin to extract
	//
	// Returns:
	//   - model.Skin: the extracted skin
	//   - error: error if the inverse bind matrices are malformed
	ExtractSkin(skinIndex int) (model.Skin, error)

	// ExtractAllSkins extracts every skin, keeping document indices.
	//
	// Returns:
	//   - []model.Skin: the skins
	//   - error: error if extraction fails
	ExtractAllSkins() ([]model.Skin, error)
}

var _ gltfSkeletonExtractor = &gltfSkeletonExtractorImpl{}

// newGLTFSkeletonExtractor creates a new skeleton extractor for a decoded document.
func newGLTFSkeletonExtractor(doc *gltf.Document) gltfSkeletonExtractor {
	return &gltfSkeletonExtractorImpl{doc: doc}
}

func (e *gltfSkeletonExtractorImpl) ExtractAllSkins() ([]model.Skin, error) {
	skins := make([]model.Skin, len(e.doc.Skins))
	for i := range e.doc.Skins {
		skin, err := e.ExtractSkin(i)
		if err != nil {
			return nil, err
		}
		skins[i] = skin
	}
	return skins, nil
}

func (e *gltfSkeletonExtractorImpl) ExtractSkin(skinIndex int) (model.Skin, error) {
	if skinIndex < 0 || skinIndex >= len(e.doc.Skins) {
		return model.Skin{}, fmt.Errorf("%w: skin index %d out of range", ErrInvalidDocument, skinIndex)
	}
	gs := e.doc.Skins[skinIndex]

	skin := model.Skin{
		Name:                gs.Name,
		Joints:              append([]int(nil), gs.Joints...),
		InverseBindMatrices: make([]mgl32.Mat4, len(gs.Joints)),
	}
	for i := range skin.InverseBindMatrices {
		skin.InverseBindMatrices[i] = mgl32.Ident4()
	}
	if gs.InverseBindMatrices == nil {
		return skin, nil
	}

	idx := *gs.InverseBindMatrices
	if idx < 0 || idx >= len(e.doc.Accessors) {
		return model.Skin{}, fmt.Errorf("%w: skin %d: accessor %d out of range", ErrInvalidDocument, skinIndex, idx)
	}
	data, err := modeler.ReadAccessor(e.doc, e.doc.Accessors[idx], nil)
	if err != nil {
		return model.Skin{}, fmt.Errorf("skin %d inverse bind matrices: %w", skinIndex, err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return model.Skin{}, fmt.Errorf("%w: skin %d inverse bind matrices have type %T", ErrInvalidDocument, skinIndex, data)
	}
	if len(mats) < len(gs.Joints) {
		return model.Skin{}, fmt.Errorf("%w: skin %d has %d joints but %d inverse bind matrices",
			ErrInvalidDocument, skinIndex, len(gs.Joints), len(mats))
	}
	for i := range skin.InverseBindMatrices {
		skin.InverseBindMatrices[i] = columnsToMat4(mats[i])
	}
	return skin, nil
}

// columnsToMat4 converts a glTF column-major MAT4 element.
func columnsToMat4(cols [4][4]float32) mgl32.Mat4 {
	var m mgl32.Mat4
	for c := range cols {
		for r := range cols[c] {
			m[c*4+r] = cols[c][r]
		}
	}
	return m
}
