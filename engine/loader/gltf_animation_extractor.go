package loader

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	doc *gltf.Document
}

// gltfAnimationExtractor converts glTF animations into clips. Channels that
// target the same node with the same interpolation are merged into one
// AnimationChannel. Morph target weights are not supported and are skipped.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - *model.AnimationClip: the extracted animation clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation from the document.
	//
	// Returns:
	//   - []*model.AnimationClip: all extracted animation clips
	//   - error: error if extraction fails
	ExtractAllAnimations() ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a decoded document.
func newGLTFAnimationExtractor(doc *gltf.Document) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{doc: doc}
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*model.AnimationClip, error) {
	clips := make([]*model.AnimationClip, 0, len(e.doc.Animations))
	for i := range e.doc.Animations {
		clip, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*model.AnimationClip, error) {
	if animIndex < 0 || animIndex >= len(e.doc.Animations) {
		return nil, fmt.Errorf("%w: animation index %d out of range", ErrInvalidDocument, animIndex)
	}
	anim := e.doc.Animations[animIndex]

	clip := &model.AnimationClip{Name: anim.Name}
	if clip.Name == "" {
		clip.Name = fmt.Sprintf("animation_%d", animIndex)
	}

	type channelKey struct {
		node   int
		interp model.Interpolation
	}
	merged := make(map[channelKey]int)

	for ci, ch := range anim.Channels {
		if ch.Target.Node == nil {
			continue
		}
		node := *ch.Target.Node
		if node < 0 || node >= len(e.doc.Nodes) {
			return nil, fmt.Errorf("%w: animation %d channel %d targets node %d", ErrInvalidDocument, animIndex, ci, node)
		}
		if ch.Target.Path == gltf.TRSWeights {
			slog.Debug("skipping morph weight channel", slog.String("animation", clip.Name), slog.Int("channel", ci))
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("%w: animation %d channel %d sampler %d out of range", ErrInvalidDocument, animIndex, ci, ch.Sampler)
		}
		sampler := anim.Samplers[ch.Sampler]
		interp := convertInterpolation(sampler.Interpolation)

		times, err := e.readTimes(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %d channel %d: %w", animIndex, ci, err)
		}
		if n := len(times); n > 0 && times[n-1] > clip.Duration {
			clip.Duration = times[n-1]
		}

		key := channelKey{node: node, interp: interp}
		idx, ok := merged[key]
		if !ok {
			idx = len(clip.Channels)
			merged[key] = idx
			clip.Channels = append(clip.Channels, model.AnimationChannel{NodeIndex: node, Interpolation: interp})
		}
		out := &clip.Channels[idx]

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, err := e.readVec3(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", animIndex, ci, err)
			}
			keys, err := vectorKeys(times, cubicValues(values, interp))
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", animIndex, ci, err)
			}
			if ch.Target.Path == gltf.TRSTranslation {
				out.PositionKeys = keys
			} else {
				out.ScaleKeys = keys
			}
		case gltf.TRSRotation:
			values, err := e.readQuats(sampler.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %d channel %d: %w", animIndex, ci, err)
			}
			values = cubicValues(values, interp)
			if len(values) != len(times) {
				return nil, fmt.Errorf("%w: animation %d channel %d has %d times and %d rotations",
					ErrInvalidDocument, animIndex, ci, len(times), len(values))
			}
			out.RotationKeys = make([]model.QuaternionKeyframe, len(times))
			for i, t := range times {
				out.RotationKeys[i] = model.QuaternionKeyframe{Time: t, Value: values[i]}
			}
		}
	}
	return clip, nil
}

func (e *gltfAnimationExtractorImpl) read(idx int) (any, error) {
	if idx < 0 || idx >= len(e.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrInvalidDocument, idx)
	}
	return modeler.ReadAccessor(e.doc, e.doc.Accessors[idx], nil)
}

// readTimes reads a sampler input accessor.
func (e *gltfAnimationExtractorImpl) readTimes(idx int) ([]float32, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}
	times, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: keyframe times have type %T", ErrInvalidDocument, data)
	}
	return times, nil
}

// readVec3 reads translation or scale outputs.
func (e *gltfAnimationExtractorImpl) readVec3(idx int) ([]mgl32.Vec3, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("%w: vector keyframes have type %T", ErrInvalidDocument, data)
	}
	out := make([]mgl32.Vec3, len(raw))
	for i, v := range raw {
		out[i] = v
	}
	return out, nil
}

// readQuats reads rotation outputs, accepting float and normalized integer storage.
func (e *gltfAnimationExtractorImpl) readQuats(idx int) ([]mgl32.Quat, error) {
	data, err := e.read(idx)
	if err != nil {
		return nil, err
	}

	var raw [][4]float32
	switch d := data.(type) {
	case [][4]float32:
		raw = d
	case [][4]int8:
		raw = normalizeComponents(d, func(v int8) float32 { return max(float32(v)/127, -1) })
	case [][4]uint8:
		raw = normalizeComponents(d, func(v uint8) float32 { return float32(v) / 255 })
	case [][4]int16:
		raw = normalizeComponents(d, func(v int16) float32 { return max(float32(v)/32767, -1) })
	case [][4]uint16:
		raw = normalizeComponents(d, func(v uint16) float32 { return float32(v) / 65535 })
	default:
		return nil, fmt.Errorf("%w: rotation keyframes have type %T", ErrInvalidDocument, data)
	}

	out := make([]mgl32.Quat, len(raw))
	for i, q := range raw {
		// glTF stores x, y, z, w
		out[i] = mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}.Normalize()
	}
	return out, nil
}

func normalizeComponents[T int8 | uint8 | int16 | uint16](in [][4]T, conv func(T) float32) [][4]float32 {
	out := make([][4]float32, len(in))
	for i, v := range in {
		for k := range v {
			out[i][k] = conv(v[k])
		}
	}
	return out
}

// cubicValues keeps the value element of each (in-tangent, value, out-tangent)
// triplet of a cubic spline sampler; other interpolations pass through.
func cubicValues[T any](values []T, interp model.Interpolation) []T {
	if interp != model.InterpolationCubicSpline {
		return values
	}
	out := make([]T, 0, len(values)/3)
	for i := 1; i < len(values); i += 3 {
		out = append(out, values[i])
	}
	return out
}

func vectorKeys(times []float32, values []mgl32.Vec3) ([]model.VectorKeyframe, error) {
	if len(values) != len(times) {
		return nil, fmt.Errorf("%w: %d times and %d values", ErrInvalidDocument, len(times), len(values))
	}
	keys := make([]model.VectorKeyframe, len(times))
	for i, t := range times {
		keys[i] = model.VectorKeyframe{Time: t, Value: values[i]}
	}
	return keys, nil
}

func convertInterpolation(i gltf.Interpolation) model.Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return model.InterpolationStep
	case gltf.InterpolationCubicSpline:
		return model.InterpolationCubicSpline
	default:
		return model.InterpolationLinear
	}
}
